package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fastservices/gateway/internal/apperr"
	"github.com/fastservices/gateway/internal/domain/appointment"
	"github.com/fastservices/gateway/internal/domain/offering"
	"github.com/fastservices/gateway/internal/domain/organization"
	"github.com/fastservices/gateway/internal/domain/queue"
	"github.com/google/uuid"
)

// CatalogRepo holds organizations, offerings, queues and appointments for
// mock mode.
type CatalogRepo struct {
	mu           sync.RWMutex
	orgs         map[string]organization.Organization
	offerings    map[string]offering.Offering
	queues       map[string]queue.Queue
	appointments map[string]appointment.Appointment
	now          func() time.Time
}

func NewCatalogRepo() *CatalogRepo {
	return &CatalogRepo{
		orgs:         make(map[string]organization.Organization),
		offerings:    make(map[string]offering.Offering),
		queues:       make(map[string]queue.Queue),
		appointments: make(map[string]appointment.Appointment),
		now:          time.Now,
	}
}

func notFound(what string) error {
	return apperr.New(apperr.ErrNotFound, what+" not found")
}

// Organizations

func (r *CatalogRepo) PutOrganization(ctx context.Context, o organization.Organization) organization.Organization {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = r.now().UTC()
	}
	r.mu.Lock()
	r.orgs[o.ID] = o
	r.mu.Unlock()
	return o
}

func (r *CatalogRepo) ListOrganizations(ctx context.Context) ([]organization.Organization, error) {
	r.mu.RLock()
	out := make([]organization.Organization, 0, len(r.orgs))
	for _, o := range r.orgs {
		out = append(out, o)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *CatalogRepo) GetOrganization(ctx context.Context, id string) (organization.Organization, error) {
	r.mu.RLock()
	o, ok := r.orgs[id]
	r.mu.RUnlock()
	if !ok {
		return organization.Organization{}, notFound("Organization")
	}
	return o, nil
}

func (r *CatalogRepo) DeleteOrganization(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orgs[id]; !ok {
		return notFound("Organization")
	}
	delete(r.orgs, id)
	return nil
}

// Offerings

func (r *CatalogRepo) ListOfferings(ctx context.Context) ([]offering.Offering, error) {
	return r.filterOfferings(func(offering.Offering) bool { return true }), nil
}

func (r *CatalogRepo) ListOfferingsByOrganization(ctx context.Context, organizationID string) ([]offering.Offering, error) {
	return r.filterOfferings(func(o offering.Offering) bool { return o.OrganizationID == organizationID }), nil
}

func (r *CatalogRepo) filterOfferings(keep func(offering.Offering) bool) []offering.Offering {
	r.mu.RLock()
	out := make([]offering.Offering, 0, len(r.offerings))
	for _, o := range r.offerings {
		if keep(o) {
			out = append(out, o)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *CatalogRepo) GetOffering(ctx context.Context, id string) (offering.Offering, error) {
	r.mu.RLock()
	o, ok := r.offerings[id]
	r.mu.RUnlock()
	if !ok {
		return offering.Offering{}, notFound("Offering")
	}
	return o, nil
}

func (r *CatalogRepo) CreateOffering(ctx context.Context, req offering.Request) (offering.Offering, error) {
	return r.saveOffering(uuid.NewString(), req, false)
}

func (r *CatalogRepo) UpdateOffering(ctx context.Context, id string, req offering.Request) (offering.Offering, error) {
	return r.saveOffering(id, req, true)
}

func (r *CatalogRepo) saveOffering(id string, req offering.Request, mustExist bool) (offering.Offering, error) {
	if err := req.Validate(); err != nil {
		return offering.Offering{}, apperr.New(apperr.ErrValidation, err.Error())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.offerings[id]; mustExist && !ok {
		return offering.Offering{}, notFound("Offering")
	}
	if _, ok := r.orgs[req.OrganizationID]; !ok {
		return offering.Offering{}, apperr.New(apperr.ErrValidation, "unknown organization")
	}

	o := offering.Offering{
		ID:                id,
		Name:              req.Name,
		Description:       req.Description,
		EstimatedWaitTime: req.EstimatedWaitTime,
		Duration:          req.Duration,
		OrganizationID:    req.OrganizationID,
	}
	r.offerings[id] = o
	return o, nil
}

func (r *CatalogRepo) DeleteOffering(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.offerings[id]; !ok {
		return notFound("Offering")
	}
	delete(r.offerings, id)
	return nil
}

// Queues

func (r *CatalogRepo) ListQueues(ctx context.Context) ([]queue.Queue, error) {
	return r.filterQueues(func(queue.Queue) bool { return true }), nil
}

func (r *CatalogRepo) ListQueuesByOrganization(ctx context.Context, organizationID string) ([]queue.Queue, error) {
	return r.filterQueues(func(q queue.Queue) bool { return q.OrganizationID == organizationID }), nil
}

func (r *CatalogRepo) filterQueues(keep func(queue.Queue) bool) []queue.Queue {
	r.mu.RLock()
	out := make([]queue.Queue, 0, len(r.queues))
	for _, q := range r.queues {
		if keep(q) {
			out = append(out, q)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *CatalogRepo) GetQueue(ctx context.Context, id string) (queue.Queue, error) {
	r.mu.RLock()
	q, ok := r.queues[id]
	r.mu.RUnlock()
	if !ok {
		return queue.Queue{}, notFound("Queue")
	}
	return q, nil
}

func (r *CatalogRepo) CreateQueue(ctx context.Context, req queue.Request) (queue.Queue, error) {
	return r.saveQueue(uuid.NewString(), req, false)
}

func (r *CatalogRepo) UpdateQueue(ctx context.Context, id string, req queue.Request) (queue.Queue, error) {
	return r.saveQueue(id, req, true)
}

func (r *CatalogRepo) saveQueue(id string, req queue.Request, mustExist bool) (queue.Queue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.queues[id]; mustExist && !ok {
		return queue.Queue{}, notFound("Queue")
	}
	if _, ok := r.orgs[req.OrganizationID]; !ok {
		return queue.Queue{}, apperr.New(apperr.ErrValidation, "unknown organization")
	}

	q := queue.Queue{
		ID:             id,
		Name:           req.Name,
		Description:    req.Description,
		OrganizationID: req.OrganizationID,
	}
	r.queues[id] = q
	return q, nil
}

func (r *CatalogRepo) DeleteQueue(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.queues[id]; !ok {
		return notFound("Queue")
	}
	delete(r.queues, id)
	return nil
}

// Appointments

func (r *CatalogRepo) ListAppointments(ctx context.Context) ([]appointment.Appointment, error) {
	return r.filterAppointments(func(appointment.Appointment) bool { return true }), nil
}

func (r *CatalogRepo) ListAppointmentsByCustomer(ctx context.Context, customerID string) ([]appointment.Appointment, error) {
	return r.filterAppointments(func(a appointment.Appointment) bool { return a.UserID == customerID }), nil
}

func (r *CatalogRepo) ListAppointmentsByOffering(ctx context.Context, offeringID string) ([]appointment.Appointment, error) {
	return r.filterAppointments(func(a appointment.Appointment) bool { return a.OfferingID == offeringID }), nil
}

func (r *CatalogRepo) ListAppointmentsByQueue(ctx context.Context, queueID string) ([]appointment.Appointment, error) {
	return r.filterAppointments(func(a appointment.Appointment) bool { return a.QueueID == queueID }), nil
}

func (r *CatalogRepo) filterAppointments(keep func(appointment.Appointment) bool) []appointment.Appointment {
	r.mu.RLock()
	out := make([]appointment.Appointment, 0, len(r.appointments))
	for _, a := range r.appointments {
		if keep(a) {
			out = append(out, r.expand(a))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].AppointmentDate.Equal(out[j].AppointmentDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].AppointmentDate.Before(out[j].AppointmentDate)
	})
	return out
}

// expand attaches the offering and queue; callers hold r.mu.
func (r *CatalogRepo) expand(a appointment.Appointment) appointment.Appointment {
	if o, ok := r.offerings[a.OfferingID]; ok {
		a.Offering = &o
	}
	if q, ok := r.queues[a.QueueID]; ok {
		a.Queue = &q
	}
	return a
}

func (r *CatalogRepo) GetAppointment(ctx context.Context, id string) (appointment.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.appointments[id]
	if !ok {
		return appointment.Appointment{}, notFound("Appointment")
	}
	return r.expand(a), nil
}

func (r *CatalogRepo) CreateAppointment(ctx context.Context, req appointment.CreateRequest) (appointment.Appointment, error) {
	if err := req.ValidateAt(r.now()); err != nil {
		return appointment.Appointment{}, apperr.New(apperr.ErrValidation, err.Error())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.offerings[req.OfferingID]; !ok {
		return appointment.Appointment{}, apperr.New(apperr.ErrValidation, "unknown offering")
	}
	if req.QueueID != "" {
		if _, ok := r.queues[req.QueueID]; !ok {
			return appointment.Appointment{}, apperr.New(apperr.ErrValidation, "unknown queue")
		}
	}

	a := appointment.Appointment{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		OfferingID:      req.OfferingID,
		QueueID:         req.QueueID,
		AppointmentDate: req.AppointmentDate.UTC(),
		Status:          appointment.StatusScheduled,
	}
	r.appointments[a.ID] = a
	return r.expand(a), nil
}

func (r *CatalogRepo) UpdateAppointment(ctx context.Context, id string, req appointment.UpdateRequest) (appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return appointment.Appointment{}, notFound("Appointment")
	}
	if req.Status != "" {
		a.Status = req.Status
	}
	if req.QueueID != "" {
		a.QueueID = req.QueueID
	}
	if req.AppointmentDate != nil {
		a.AppointmentDate = req.AppointmentDate.UTC()
	}
	r.appointments[id] = a
	return r.expand(a), nil
}

func (r *CatalogRepo) DeleteAppointment(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[id]; !ok {
		return notFound("Appointment")
	}
	delete(r.appointments, id)
	return nil
}

// Seed inserts fixed records as is, replacing any with the same id.
func (r *CatalogRepo) Seed(orgs []organization.Organization, offerings []offering.Offering, queues []queue.Queue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range orgs {
		r.orgs[o.ID] = o
	}
	for _, o := range offerings {
		r.offerings[o.ID] = o
	}
	for _, q := range queues {
		r.queues[q.ID] = q
	}
}
