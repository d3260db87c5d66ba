package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fastservices/gateway/internal/backend"
	"github.com/fastservices/gateway/internal/domain/appointment"
	"github.com/fastservices/gateway/internal/domain/offering"
	"github.com/fastservices/gateway/internal/domain/organization"
	"github.com/fastservices/gateway/internal/domain/queue"
	"github.com/fastservices/gateway/internal/domain/user"
	"github.com/fastservices/gateway/internal/guard"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// ViewsHandler renders the page models of the public pages and the four
// dashboards. Role checks happen in the guard before these run.
type ViewsHandler struct {
	b   backend.Backend
	now func() time.Time
}

func NewViewsHandler(b backend.Backend) *ViewsHandler {
	return &ViewsHandler{b: b, now: time.Now}
}

func sessionUser(ctx *gin.Context) (*user.User, bool) {
	ac, ok := guard.ContextFrom(ctx)
	if !ok {
		return nil, false
	}
	u := ac.State().User
	return u, u != nil
}

// Public pages

func (h *ViewsHandler) Home(ctx *gin.Context) {
	orgs, err := h.b.ListOrganizations(ctx.Request.Context())
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"view": "home", "organizations": orgs})
}

func (h *ViewsHandler) Organizations(ctx *gin.Context) {
	orgs, err := h.b.ListOrganizations(ctx.Request.Context())
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"view": "organizations", "organizations": orgs})
}

func (h *ViewsHandler) OrganizationDetail(ctx *gin.Context) {
	id := ctx.Param("id")

	var (
		org       organization.Organization
		offerings []offering.Offering
		queues    []queue.Queue
	)
	g, gctx := errgroup.WithContext(ctx.Request.Context())
	g.Go(func() (err error) {
		org, err = h.b.GetOrganization(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		offerings, err = h.b.ListOfferingsByOrganization(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		queues, err = h.b.ListQueuesByOrganization(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"view":         "organization",
		"organization": org,
		"offerings":    offerings,
		"queues":       queues,
	})
}

// Booking (customers only)

func (h *ViewsHandler) BookingForm(ctx *gin.Context) {
	o, err := h.b.GetOffering(ctx.Request.Context(), ctx.Param("offeringId"))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	queues, err := h.b.ListQueuesByOrganization(ctx.Request.Context(), o.OrganizationID)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"view": "book", "offering": o, "queues": queues})
}

type bookingBody struct {
	QueueID         string    `json:"queueId"`
	AppointmentDate time.Time `json:"appointmentDate" binding:"required"`
}

func (h *ViewsHandler) Book(ctx *gin.Context) {
	var body bookingBody
	if !BindJSON(ctx, &body) {
		return
	}
	u, ok := sessionUser(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Please log in to continue.")
		return
	}

	req := appointment.CreateRequest{
		UserID:          u.ID,
		OfferingID:      ctx.Param("offeringId"),
		QueueID:         body.QueueID,
		AppointmentDate: body.AppointmentDate,
	}
	if err := req.ValidateAt(h.now()); err != nil {
		RespondBadRequest(ctx, "Appointment date must be in the future.", gin.H{"field": "appointmentDate"})
		return
	}

	a, err := h.b.CreateAppointment(ctx.Request.Context(), req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"appointment": a, "redirect": guard.DefaultTab(user.RoleCustomer)})
}

// DashboardIndex sends a dashboard root to the role's default tab.
func DashboardIndex(role user.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Redirect(http.StatusFound, guard.DefaultTab(role))
	}
}

// Super admin

type SystemStats struct {
	Users                int                        `json:"users"`
	UsersByRole          map[user.Role]int          `json:"usersByRole"`
	Organizations        int                        `json:"organizations"`
	Offerings            int                        `json:"offerings"`
	Appointments         int                        `json:"appointments"`
	AppointmentsByStatus map[appointment.Status]int `json:"appointmentsByStatus"`
}

func buildStats(users []user.User, orgs []organization.Organization, offerings []offering.Offering, appts []appointment.Appointment) SystemStats {
	st := SystemStats{
		Users:                len(users),
		UsersByRole:          make(map[user.Role]int, len(user.AllRoles)),
		Organizations:        len(orgs),
		Offerings:            len(offerings),
		Appointments:         len(appts),
		AppointmentsByStatus: make(map[appointment.Status]int, len(appointment.AllStatuses)),
	}
	for _, r := range user.AllRoles {
		st.UsersByRole[r] = 0
	}
	for _, s := range appointment.AllStatuses {
		st.AppointmentsByStatus[s] = 0
	}
	for _, u := range users {
		if r, ok := u.PrimaryRole(); ok {
			st.UsersByRole[r]++
		}
	}
	for _, a := range appts {
		st.AppointmentsByStatus[a.Status]++
	}
	return st
}

func (h *ViewsHandler) AdminStats(ctx *gin.Context) {
	var (
		users     []user.User
		orgs      []organization.Organization
		offerings []offering.Offering
		appts     []appointment.Appointment
	)
	g, gctx := errgroup.WithContext(ctx.Request.Context())
	g.Go(func() (err error) { users, err = h.b.ListUsers(gctx); return err })
	g.Go(func() (err error) { orgs, err = h.b.ListOrganizations(gctx); return err })
	g.Go(func() (err error) { offerings, err = h.b.ListOfferings(gctx); return err })
	g.Go(func() (err error) { appts, err = h.b.ListAppointments(gctx); return err })
	if err := g.Wait(); err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"view": "admin.stats", "stats": buildStats(users, orgs, offerings, appts)})
}

func (h *ViewsHandler) AdminUsers(ctx *gin.Context) {
	users, err := h.b.ListUsers(ctx.Request.Context())
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"view": "admin.users", "users": users})
}

func (h *ViewsHandler) AdminOrganizations(ctx *gin.Context) {
	orgs, err := h.b.ListOrganizations(ctx.Request.Context())
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"view": "admin.organizations", "organizations": orgs})
}

// Organization admin

// ownOrganization finds the organization whose contact email is the signed-in
// admin's. Nil means the admin manages no registered organization yet and
// sees the whole catalog.
func (h *ViewsHandler) ownOrganization(ctx context.Context, u *user.User) (*organization.Organization, error) {
	orgs, err := h.b.ListOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	for i := range orgs {
		if strings.EqualFold(orgs[i].ContactEmail, u.Email) {
			return &orgs[i], nil
		}
	}
	return nil, nil
}

func (h *ViewsHandler) orgScope(ctx *gin.Context) (*organization.Organization, bool) {
	u, ok := sessionUser(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Please log in to continue.")
		return nil, false
	}
	org, err := h.ownOrganization(ctx.Request.Context(), u)
	if err != nil {
		RespondAppError(ctx, err)
		return nil, false
	}
	return org, true
}

func (h *ViewsHandler) offeringsFor(ctx context.Context, org *organization.Organization) ([]offering.Offering, error) {
	if org == nil {
		return h.b.ListOfferings(ctx)
	}
	return h.b.ListOfferingsByOrganization(ctx, org.ID)
}

func (h *ViewsHandler) OrgOfferings(ctx *gin.Context) {
	org, ok := h.orgScope(ctx)
	if !ok {
		return
	}
	offerings, err := h.offeringsFor(ctx.Request.Context(), org)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"view": "organization.offerings", "organization": org, "offerings": offerings})
}

func (h *ViewsHandler) OrgQueues(ctx *gin.Context) {
	org, ok := h.orgScope(ctx)
	if !ok {
		return
	}

	var (
		queues []queue.Queue
		err    error
	)
	if org == nil {
		queues, err = h.b.ListQueues(ctx.Request.Context())
	} else {
		queues, err = h.b.ListQueuesByOrganization(ctx.Request.Context(), org.ID)
	}
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"view": "organization.queues", "organization": org, "queues": queues})
}

func (h *ViewsHandler) OrgAppointments(ctx *gin.Context) {
	org, ok := h.orgScope(ctx)
	if !ok {
		return
	}

	var (
		offerings []offering.Offering
		appts     []appointment.Appointment
	)
	g, gctx := errgroup.WithContext(ctx.Request.Context())
	g.Go(func() (err error) { offerings, err = h.offeringsFor(gctx, org); return err })
	g.Go(func() (err error) { appts, err = h.b.ListAppointments(gctx); return err })
	if err := g.Wait(); err != nil {
		RespondAppError(ctx, err)
		return
	}

	if org != nil {
		appts = forOfferings(appts, offerings)
	}
	ctx.JSON(http.StatusOK, gin.H{"view": "organization.appointments", "organization": org, "appointments": appts})
}

func forOfferings(appts []appointment.Appointment, offerings []offering.Offering) []appointment.Appointment {
	ids := make(map[string]struct{}, len(offerings))
	for _, o := range offerings {
		ids[o.ID] = struct{}{}
	}
	out := make([]appointment.Appointment, 0, len(appts))
	for _, a := range appts {
		if _, ok := ids[a.OfferingID]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Staff

func (h *ViewsHandler) StaffQueue(ctx *gin.Context) {
	var (
		queues []queue.Queue
		appts  []appointment.Appointment
	)
	g, gctx := errgroup.WithContext(ctx.Request.Context())
	g.Go(func() (err error) { queues, err = h.b.ListQueues(gctx); return err })
	g.Go(func() (err error) { appts, err = h.b.ListAppointments(gctx); return err })
	if err := g.Wait(); err != nil {
		RespondAppError(ctx, err)
		return
	}

	active := make([]appointment.Appointment, 0, len(appts))
	for _, a := range appts {
		if a.Status.Active() {
			active = append(active, a)
		}
	}
	ctx.JSON(http.StatusOK, gin.H{"view": "staff.queue", "queues": queues, "appointments": active})
}

// Customer

func (h *ViewsHandler) customerAppointments(ctx *gin.Context) (upcoming, history []appointment.Appointment, ok bool) {
	u, ok := sessionUser(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Please log in to continue.")
		return nil, nil, false
	}
	appts, err := h.b.ListAppointmentsByCustomer(ctx.Request.Context(), u.ID)
	if err != nil {
		RespondAppError(ctx, err)
		return nil, nil, false
	}
	upcoming, history = appointment.Split(appts, h.now())
	return upcoming, history, true
}

func (h *ViewsHandler) CustomerUpcoming(ctx *gin.Context) {
	upcoming, _, ok := h.customerAppointments(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"view": "customer.upcoming", "appointments": upcoming})
}

func (h *ViewsHandler) CustomerHistory(ctx *gin.Context) {
	_, history, ok := h.customerAppointments(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"view": "customer.history", "appointments": history})
}
