package handlers

import (
	"net/http"
	"time"

	"github.com/fastservices/gateway/internal/backend"
	"github.com/fastservices/gateway/internal/domain/appointment"
	"github.com/fastservices/gateway/internal/domain/offering"
	"github.com/fastservices/gateway/internal/domain/queue"
	"github.com/fastservices/gateway/internal/domain/user"
	"github.com/fastservices/gateway/internal/guard"
	"github.com/gin-gonic/gin"
)

// DataHandler is the /api data plane the dashboards call. Each call goes to
// the backend with the session's token.
type DataHandler struct {
	b   backend.Backend
	now func() time.Time
}

func NewDataHandler(b backend.Backend) *DataHandler {
	return &DataHandler{b: b, now: time.Now}
}

func sessionRole(ctx *gin.Context) user.Role {
	ac, ok := guard.ContextFrom(ctx)
	if !ok {
		return ""
	}
	return ac.State().Role
}

func respondList[T any](ctx *gin.Context, items []T, err error) {
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	RespondJSONWithETag(ctx, http.StatusOK, items)
}

func respondOne[T any](ctx *gin.Context, status int, item T, err error) {
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(status, item)
}

func respondDeleted(ctx *gin.Context, err error) {
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Users

func (h *DataHandler) ListUsers(ctx *gin.Context) {
	items, err := h.b.ListUsers(ctx.Request.Context())
	respondList(ctx, items, err)
}

func (h *DataHandler) GetUser(ctx *gin.Context) {
	u, err := h.b.GetUser(ctx.Request.Context(), ctx.Param("id"))
	respondOne(ctx, http.StatusOK, u, err)
}

func (h *DataHandler) UpdateUser(ctx *gin.Context) {
	var req user.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}
	u, err := h.b.UpdateUser(ctx.Request.Context(), ctx.Param("id"), req)
	respondOne(ctx, http.StatusOK, u, err)
}

func (h *DataHandler) DeleteUser(ctx *gin.Context) {
	respondDeleted(ctx, h.b.DeleteUser(ctx.Request.Context(), ctx.Param("id")))
}

// Organizations

func (h *DataHandler) ListOrganizations(ctx *gin.Context) {
	items, err := h.b.ListOrganizations(ctx.Request.Context())
	respondList(ctx, items, err)
}

func (h *DataHandler) GetOrganization(ctx *gin.Context) {
	o, err := h.b.GetOrganization(ctx.Request.Context(), ctx.Param("id"))
	respondOne(ctx, http.StatusOK, o, err)
}

func (h *DataHandler) DeleteOrganization(ctx *gin.Context) {
	respondDeleted(ctx, h.b.DeleteOrganization(ctx.Request.Context(), ctx.Param("id")))
}

// Offerings

func (h *DataHandler) ListOfferings(ctx *gin.Context) {
	items, err := h.b.ListOfferings(ctx.Request.Context())
	respondList(ctx, items, err)
}

func (h *DataHandler) GetOffering(ctx *gin.Context) {
	o, err := h.b.GetOffering(ctx.Request.Context(), ctx.Param("id"))
	respondOne(ctx, http.StatusOK, o, err)
}

func (h *DataHandler) ListOfferingsByOrganization(ctx *gin.Context) {
	items, err := h.b.ListOfferingsByOrganization(ctx.Request.Context(), ctx.Param("organizationId"))
	respondList(ctx, items, err)
}

func (h *DataHandler) CreateOffering(ctx *gin.Context) {
	var req offering.Request
	if !BindJSON(ctx, &req) {
		return
	}
	o, err := h.b.CreateOffering(ctx.Request.Context(), req)
	respondOne(ctx, http.StatusCreated, o, err)
}

func (h *DataHandler) UpdateOffering(ctx *gin.Context) {
	var req offering.Request
	if !BindJSON(ctx, &req) {
		return
	}
	o, err := h.b.UpdateOffering(ctx.Request.Context(), ctx.Param("id"), req)
	respondOne(ctx, http.StatusOK, o, err)
}

func (h *DataHandler) DeleteOffering(ctx *gin.Context) {
	respondDeleted(ctx, h.b.DeleteOffering(ctx.Request.Context(), ctx.Param("id")))
}

// Queues

func (h *DataHandler) ListQueues(ctx *gin.Context) {
	items, err := h.b.ListQueues(ctx.Request.Context())
	respondList(ctx, items, err)
}

func (h *DataHandler) GetQueue(ctx *gin.Context) {
	q, err := h.b.GetQueue(ctx.Request.Context(), ctx.Param("id"))
	respondOne(ctx, http.StatusOK, q, err)
}

func (h *DataHandler) ListQueuesByOrganization(ctx *gin.Context) {
	items, err := h.b.ListQueuesByOrganization(ctx.Request.Context(), ctx.Param("organizationId"))
	respondList(ctx, items, err)
}

func (h *DataHandler) CreateQueue(ctx *gin.Context) {
	var req queue.Request
	if !BindJSON(ctx, &req) {
		return
	}
	q, err := h.b.CreateQueue(ctx.Request.Context(), req)
	respondOne(ctx, http.StatusCreated, q, err)
}

func (h *DataHandler) UpdateQueue(ctx *gin.Context) {
	var req queue.Request
	if !BindJSON(ctx, &req) {
		return
	}
	q, err := h.b.UpdateQueue(ctx.Request.Context(), ctx.Param("id"), req)
	respondOne(ctx, http.StatusOK, q, err)
}

func (h *DataHandler) DeleteQueue(ctx *gin.Context) {
	respondDeleted(ctx, h.b.DeleteQueue(ctx.Request.Context(), ctx.Param("id")))
}

// Appointments

func (h *DataHandler) ListAppointments(ctx *gin.Context) {
	items, err := h.b.ListAppointments(ctx.Request.Context())
	respondList(ctx, items, err)
}

func (h *DataHandler) GetAppointment(ctx *gin.Context) {
	a, err := h.b.GetAppointment(ctx.Request.Context(), ctx.Param("id"))
	if err == nil && sessionRole(ctx) == user.RoleCustomer {
		if u, ok := sessionUser(ctx); !ok || a.UserID != u.ID {
			RespondForbidden(ctx, "You can only view your own appointments.")
			return
		}
	}
	respondOne(ctx, http.StatusOK, a, err)
}

// ListAppointmentsByCustomer lets customers read only their own list.
func (h *DataHandler) ListAppointmentsByCustomer(ctx *gin.Context) {
	customerID := ctx.Param("customerId")
	if sessionRole(ctx) == user.RoleCustomer {
		if u, ok := sessionUser(ctx); !ok || u.ID != customerID {
			RespondForbidden(ctx, "You can only view your own appointments.")
			return
		}
	}
	items, err := h.b.ListAppointmentsByCustomer(ctx.Request.Context(), customerID)
	respondList(ctx, items, err)
}

func (h *DataHandler) ListAppointmentsByOffering(ctx *gin.Context) {
	items, err := h.b.ListAppointmentsByOffering(ctx.Request.Context(), ctx.Param("offeringId"))
	respondList(ctx, items, err)
}

func (h *DataHandler) ListAppointmentsByQueue(ctx *gin.Context) {
	items, err := h.b.ListAppointmentsByQueue(ctx.Request.Context(), ctx.Param("queueId"))
	respondList(ctx, items, err)
}

// CreateAppointment books for the signed-in customer; other roles may book
// on behalf of a user id.
func (h *DataHandler) CreateAppointment(ctx *gin.Context) {
	var req appointment.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}
	if u, ok := sessionUser(ctx); ok && (req.UserID == "" || sessionRole(ctx) == user.RoleCustomer) {
		req.UserID = u.ID
	}
	if err := req.ValidateAt(h.now()); err != nil {
		RespondBadRequest(ctx, "Appointment date must be in the future.", gin.H{"field": "appointmentDate"})
		return
	}
	a, err := h.b.CreateAppointment(ctx.Request.Context(), req)
	respondOne(ctx, http.StatusCreated, a, err)
}

func (h *DataHandler) UpdateAppointment(ctx *gin.Context) {
	var req appointment.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}
	a, err := h.b.UpdateAppointment(ctx.Request.Context(), ctx.Param("id"), req)
	respondOne(ctx, http.StatusOK, a, err)
}

func (h *DataHandler) DeleteAppointment(ctx *gin.Context) {
	respondDeleted(ctx, h.b.DeleteAppointment(ctx.Request.Context(), ctx.Param("id")))
}
