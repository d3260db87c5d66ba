package mockbackend

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fastservices/gateway/internal/apperr"
	"github.com/fastservices/gateway/internal/auth"
	"github.com/fastservices/gateway/internal/backend"
	"github.com/fastservices/gateway/internal/domain/appointment"
	"github.com/fastservices/gateway/internal/domain/offering"
	"github.com/fastservices/gateway/internal/domain/organization"
	"github.com/fastservices/gateway/internal/domain/queue"
	"github.com/fastservices/gateway/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// TokenDecoder checks the bearer token on protected routes.
type TokenDecoder interface {
	Decode(raw string) (*auth.Claims, error)
}

const (
	ctxUserID = "mock.userID"
	ctxRole   = "mock.role"
)

// Server exposes a Backend over the FastServices REST contract.
type Server struct {
	b      backend.Backend
	tokens TokenDecoder
}

func NewServer(b backend.Backend, tokens TokenDecoder) *Server {
	return &Server{b: b, tokens: tokens}
}

// Routes registers the REST contract on r.
func (s *Server) Routes(r gin.IRouter) {
	api := r.Group("/api")

	api.POST("/auth/login", s.login)
	api.POST("/auth/register", s.register)
	api.POST("/organizations/register", s.registerOrganization)

	api.GET("/organizations", s.listOrganizations)
	api.GET("/organizations/:id", s.getOrganization)
	api.GET("/offerings", s.listOfferings)
	api.GET("/offerings/:id", s.getOffering)
	api.GET("/offerings/organization/:organizationId", s.listOfferingsByOrganization)
	api.GET("/queues", s.listQueues)
	api.GET("/queues/:id", s.getQueue)
	api.GET("/queues/organization/:organizationId", s.listQueuesByOrganization)

	authed := api.Group("", s.requireBearer())

	authed.GET("/users", s.listUsers)
	authed.GET("/users/:id", s.getUser)
	authed.PUT("/users/:id", s.updateUser)
	authed.DELETE("/users/:id", s.deleteUser)

	authed.DELETE("/organizations/:id", s.deleteOrganization)

	authed.POST("/offerings", s.createOffering)
	authed.PUT("/offerings/:id", s.updateOffering)
	authed.DELETE("/offerings/:id", s.deleteOffering)

	authed.POST("/queues", s.createQueue)
	authed.PUT("/queues/:id", s.updateQueue)
	authed.DELETE("/queues/:id", s.deleteQueue)

	authed.GET("/appointments", s.listAppointments)
	authed.GET("/appointments/:id", s.getAppointment)
	authed.GET("/appointments/customer/:customerId", s.listAppointmentsByCustomer)
	authed.GET("/appointments/offering/:offeringId", s.listAppointmentsByOffering)
	authed.GET("/appointments/queue/:queueId", s.listAppointmentsByQueue)
	authed.POST("/appointments", s.createAppointment)
	authed.PUT("/appointments/:id", s.updateAppointment)
	authed.DELETE("/appointments/:id", s.deleteAppointment)
}

func (s *Server) requireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing access token"})
			return
		}

		claims, err := s.tokens.Decode(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired access token"})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.BackendRole())
		c.Next()
	}
}

func respondErr(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := apperr.StatusOf(kind)

	msg := apperr.CannedMessage(kind)
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Message != "" {
		msg = ae.Message
	}
	if status >= http.StatusInternalServerError {
		slog.Default().ErrorContext(c.Request.Context(), "mock backend failure", "route", c.FullPath(), "err", err)
	}
	c.JSON(status, gin.H{"message": msg})
}

func bind(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return false
	}
	return true
}

func reply[T any](c *gin.Context, status int, v T, err error) {
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(status, v)
}

func replyNoContent(c *gin.Context, err error) {
	if err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Auth

func (s *Server) login(c *gin.Context) {
	var req user.LoginRequest
	if !bind(c, &req) {
		return
	}
	res, err := s.b.Login(c.Request.Context(), req.Email, req.Password)
	reply(c, http.StatusOK, res, err)
}

func (s *Server) register(c *gin.Context) {
	var req user.RegisterRequest
	if !bind(c, &req) {
		return
	}
	res, err := s.b.Register(c.Request.Context(), req)
	reply(c, http.StatusCreated, res, err)
}

func (s *Server) registerOrganization(c *gin.Context) {
	var req organization.RegisterRequest
	if !bind(c, &req) {
		return
	}
	res, err := s.b.RegisterOrganization(c.Request.Context(), req)
	reply(c, http.StatusCreated, res, err)
}

// Users

func (s *Server) listUsers(c *gin.Context) {
	out, err := s.b.ListUsers(c.Request.Context())
	reply(c, http.StatusOK, out, err)
}

func (s *Server) getUser(c *gin.Context) {
	out, err := s.b.GetUser(c.Request.Context(), c.Param("id"))
	reply(c, http.StatusOK, out, err)
}

func (s *Server) updateUser(c *gin.Context) {
	var req user.UpdateRequest
	if !bind(c, &req) {
		return
	}
	out, err := s.b.UpdateUser(c.Request.Context(), c.Param("id"), req)
	reply(c, http.StatusOK, out, err)
}

func (s *Server) deleteUser(c *gin.Context) {
	replyNoContent(c, s.b.DeleteUser(c.Request.Context(), c.Param("id")))
}

// Organizations

func (s *Server) listOrganizations(c *gin.Context) {
	out, err := s.b.ListOrganizations(c.Request.Context())
	reply(c, http.StatusOK, out, err)
}

func (s *Server) getOrganization(c *gin.Context) {
	out, err := s.b.GetOrganization(c.Request.Context(), c.Param("id"))
	reply(c, http.StatusOK, out, err)
}

func (s *Server) deleteOrganization(c *gin.Context) {
	replyNoContent(c, s.b.DeleteOrganization(c.Request.Context(), c.Param("id")))
}

// Offerings

func (s *Server) listOfferings(c *gin.Context) {
	out, err := s.b.ListOfferings(c.Request.Context())
	reply(c, http.StatusOK, out, err)
}

func (s *Server) getOffering(c *gin.Context) {
	out, err := s.b.GetOffering(c.Request.Context(), c.Param("id"))
	reply(c, http.StatusOK, out, err)
}

func (s *Server) listOfferingsByOrganization(c *gin.Context) {
	out, err := s.b.ListOfferingsByOrganization(c.Request.Context(), c.Param("organizationId"))
	reply(c, http.StatusOK, out, err)
}

func (s *Server) createOffering(c *gin.Context) {
	var req offering.Request
	if !bind(c, &req) {
		return
	}
	out, err := s.b.CreateOffering(c.Request.Context(), req)
	reply(c, http.StatusCreated, out, err)
}

func (s *Server) updateOffering(c *gin.Context) {
	var req offering.Request
	if !bind(c, &req) {
		return
	}
	out, err := s.b.UpdateOffering(c.Request.Context(), c.Param("id"), req)
	reply(c, http.StatusOK, out, err)
}

func (s *Server) deleteOffering(c *gin.Context) {
	replyNoContent(c, s.b.DeleteOffering(c.Request.Context(), c.Param("id")))
}

// Queues

func (s *Server) listQueues(c *gin.Context) {
	out, err := s.b.ListQueues(c.Request.Context())
	reply(c, http.StatusOK, out, err)
}

func (s *Server) getQueue(c *gin.Context) {
	out, err := s.b.GetQueue(c.Request.Context(), c.Param("id"))
	reply(c, http.StatusOK, out, err)
}

func (s *Server) listQueuesByOrganization(c *gin.Context) {
	out, err := s.b.ListQueuesByOrganization(c.Request.Context(), c.Param("organizationId"))
	reply(c, http.StatusOK, out, err)
}

func (s *Server) createQueue(c *gin.Context) {
	var req queue.Request
	if !bind(c, &req) {
		return
	}
	out, err := s.b.CreateQueue(c.Request.Context(), req)
	reply(c, http.StatusCreated, out, err)
}

func (s *Server) updateQueue(c *gin.Context) {
	var req queue.Request
	if !bind(c, &req) {
		return
	}
	out, err := s.b.UpdateQueue(c.Request.Context(), c.Param("id"), req)
	reply(c, http.StatusOK, out, err)
}

func (s *Server) deleteQueue(c *gin.Context) {
	replyNoContent(c, s.b.DeleteQueue(c.Request.Context(), c.Param("id")))
}

// Appointments

func (s *Server) listAppointments(c *gin.Context) {
	out, err := s.b.ListAppointments(c.Request.Context())
	reply(c, http.StatusOK, out, err)
}

func (s *Server) getAppointment(c *gin.Context) {
	out, err := s.b.GetAppointment(c.Request.Context(), c.Param("id"))
	reply(c, http.StatusOK, out, err)
}

func (s *Server) listAppointmentsByCustomer(c *gin.Context) {
	out, err := s.b.ListAppointmentsByCustomer(c.Request.Context(), c.Param("customerId"))
	reply(c, http.StatusOK, out, err)
}

func (s *Server) listAppointmentsByOffering(c *gin.Context) {
	out, err := s.b.ListAppointmentsByOffering(c.Request.Context(), c.Param("offeringId"))
	reply(c, http.StatusOK, out, err)
}

func (s *Server) listAppointmentsByQueue(c *gin.Context) {
	out, err := s.b.ListAppointmentsByQueue(c.Request.Context(), c.Param("queueId"))
	reply(c, http.StatusOK, out, err)
}

func (s *Server) createAppointment(c *gin.Context) {
	var req appointment.CreateRequest
	if !bind(c, &req) {
		return
	}
	if req.UserID == "" {
		req.UserID = c.GetString(ctxUserID)
	}
	out, err := s.b.CreateAppointment(c.Request.Context(), req)
	reply(c, http.StatusCreated, out, err)
}

func (s *Server) updateAppointment(c *gin.Context) {
	var req appointment.UpdateRequest
	if !bind(c, &req) {
		return
	}
	out, err := s.b.UpdateAppointment(c.Request.Context(), c.Param("id"), req)
	reply(c, http.StatusOK, out, err)
}

func (s *Server) deleteAppointment(c *gin.Context) {
	replyNoContent(c, s.b.DeleteAppointment(c.Request.Context(), c.Param("id")))
}
