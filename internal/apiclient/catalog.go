package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/fastservices/gateway/internal/cache"
	"github.com/fastservices/gateway/internal/domain/appointment"
	"github.com/fastservices/gateway/internal/domain/offering"
	"github.com/fastservices/gateway/internal/domain/organization"
	"github.com/fastservices/gateway/internal/domain/queue"
)

// catalogCache holds public, unauthenticated catalog reads keyed by path.
// A nil cache disables caching.
type catalogCache struct {
	c *cache.Cache[any]
}

func newCatalogCache(ttl time.Duration) *catalogCache {
	if ttl <= 0 {
		return nil
	}
	return &catalogCache{c: cache.New[any](ttl)}
}

func (cc *catalogCache) clear() {
	if cc != nil {
		cc.c.Clear()
	}
}

// publicGet performs an unauthenticated GET through the catalog cache.
func publicGet[T any](ctx context.Context, c *Client, route, path string) (T, error) {
	load := func() (any, error) {
		var out T
		err := c.do(ctx, call{method: http.MethodGet, route: route, path: path, out: &out})
		return out, err
	}

	var zero T
	if c.catalog == nil {
		v, err := load()
		if err != nil {
			return zero, err
		}
		return v.(T), nil
	}

	v, err := c.catalog.c.GetOrLoad(path, load)
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// mutate runs an authenticated write and drops cached catalog reads.
func (c *Client) mutate(ctx context.Context, in call) error {
	in.authed = true
	err := c.do(ctx, in)
	if err == nil {
		c.catalog.clear()
	}
	return err
}

// Organizations

func (c *Client) ListOrganizations(ctx context.Context) ([]organization.Organization, error) {
	return publicGet[[]organization.Organization](ctx, c, "/api/organizations", "/api/organizations")
}

func (c *Client) GetOrganization(ctx context.Context, id string) (organization.Organization, error) {
	return publicGet[organization.Organization](ctx, c, "/api/organizations/:id", "/api/organizations/"+url.PathEscape(id))
}

func (c *Client) DeleteOrganization(ctx context.Context, id string) error {
	return c.mutate(ctx, call{method: http.MethodDelete, route: "/api/organizations/:id", path: "/api/organizations/" + url.PathEscape(id)})
}

// Offerings

func (c *Client) ListOfferings(ctx context.Context) ([]offering.Offering, error) {
	return publicGet[[]offering.Offering](ctx, c, "/api/offerings", "/api/offerings")
}

func (c *Client) GetOffering(ctx context.Context, id string) (offering.Offering, error) {
	return publicGet[offering.Offering](ctx, c, "/api/offerings/:id", "/api/offerings/"+url.PathEscape(id))
}

func (c *Client) ListOfferingsByOrganization(ctx context.Context, organizationID string) ([]offering.Offering, error) {
	return publicGet[[]offering.Offering](ctx, c, "/api/offerings/organization/:organizationId", "/api/offerings/organization/"+url.PathEscape(organizationID))
}

func (c *Client) CreateOffering(ctx context.Context, req offering.Request) (offering.Offering, error) {
	var out offering.Offering
	err := c.mutate(ctx, call{method: http.MethodPost, route: "/api/offerings", path: "/api/offerings", body: req, out: &out})
	return out, err
}

func (c *Client) UpdateOffering(ctx context.Context, id string, req offering.Request) (offering.Offering, error) {
	var out offering.Offering
	err := c.mutate(ctx, call{method: http.MethodPut, route: "/api/offerings/:id", path: "/api/offerings/" + url.PathEscape(id), body: req, out: &out})
	return out, err
}

func (c *Client) DeleteOffering(ctx context.Context, id string) error {
	return c.mutate(ctx, call{method: http.MethodDelete, route: "/api/offerings/:id", path: "/api/offerings/" + url.PathEscape(id)})
}

// Queues

func (c *Client) ListQueues(ctx context.Context) ([]queue.Queue, error) {
	return publicGet[[]queue.Queue](ctx, c, "/api/queues", "/api/queues")
}

func (c *Client) GetQueue(ctx context.Context, id string) (queue.Queue, error) {
	return publicGet[queue.Queue](ctx, c, "/api/queues/:id", "/api/queues/"+url.PathEscape(id))
}

func (c *Client) ListQueuesByOrganization(ctx context.Context, organizationID string) ([]queue.Queue, error) {
	return publicGet[[]queue.Queue](ctx, c, "/api/queues/organization/:organizationId", "/api/queues/organization/"+url.PathEscape(organizationID))
}

func (c *Client) CreateQueue(ctx context.Context, req queue.Request) (queue.Queue, error) {
	var out queue.Queue
	err := c.mutate(ctx, call{method: http.MethodPost, route: "/api/queues", path: "/api/queues", body: req, out: &out})
	return out, err
}

func (c *Client) UpdateQueue(ctx context.Context, id string, req queue.Request) (queue.Queue, error) {
	var out queue.Queue
	err := c.mutate(ctx, call{method: http.MethodPut, route: "/api/queues/:id", path: "/api/queues/" + url.PathEscape(id), body: req, out: &out})
	return out, err
}

func (c *Client) DeleteQueue(ctx context.Context, id string) error {
	return c.mutate(ctx, call{method: http.MethodDelete, route: "/api/queues/:id", path: "/api/queues/" + url.PathEscape(id)})
}

// Appointments are per-user data and never cached.

func (c *Client) listAppointments(ctx context.Context, route, path string) ([]appointment.Appointment, error) {
	var out []appointment.Appointment
	err := c.do(ctx, call{method: http.MethodGet, route: route, path: path, out: &out, authed: true})
	return out, err
}

func (c *Client) ListAppointments(ctx context.Context) ([]appointment.Appointment, error) {
	return c.listAppointments(ctx, "/api/appointments", "/api/appointments")
}

func (c *Client) GetAppointment(ctx context.Context, id string) (appointment.Appointment, error) {
	var out appointment.Appointment
	err := c.do(ctx, call{method: http.MethodGet, route: "/api/appointments/:id", path: "/api/appointments/" + url.PathEscape(id), out: &out, authed: true})
	return out, err
}

func (c *Client) ListAppointmentsByCustomer(ctx context.Context, customerID string) ([]appointment.Appointment, error) {
	return c.listAppointments(ctx, "/api/appointments/customer/:customerId", "/api/appointments/customer/"+url.PathEscape(customerID))
}

func (c *Client) ListAppointmentsByOffering(ctx context.Context, offeringID string) ([]appointment.Appointment, error) {
	return c.listAppointments(ctx, "/api/appointments/offering/:offeringId", "/api/appointments/offering/"+url.PathEscape(offeringID))
}

func (c *Client) ListAppointmentsByQueue(ctx context.Context, queueID string) ([]appointment.Appointment, error) {
	return c.listAppointments(ctx, "/api/appointments/queue/:queueId", "/api/appointments/queue/"+url.PathEscape(queueID))
}

func (c *Client) CreateAppointment(ctx context.Context, req appointment.CreateRequest) (appointment.Appointment, error) {
	var out appointment.Appointment
	err := c.do(ctx, call{method: http.MethodPost, route: "/api/appointments", path: "/api/appointments", body: req, out: &out, authed: true})
	return out, err
}

func (c *Client) UpdateAppointment(ctx context.Context, id string, req appointment.UpdateRequest) (appointment.Appointment, error) {
	var out appointment.Appointment
	err := c.do(ctx, call{method: http.MethodPut, route: "/api/appointments/:id", path: "/api/appointments/" + url.PathEscape(id), body: req, out: &out, authed: true})
	return out, err
}

func (c *Client) DeleteAppointment(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, route: "/api/appointments/:id", path: "/api/appointments/" + url.PathEscape(id), authed: true})
}
