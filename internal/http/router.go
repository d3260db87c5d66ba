package http

import (
	"log/slog"

	"github.com/fastservices/gateway/internal/authctx"
	"github.com/fastservices/gateway/internal/backend"
	"github.com/fastservices/gateway/internal/config"
	"github.com/fastservices/gateway/internal/domain/user"
	"github.com/fastservices/gateway/internal/guard"
	"github.com/fastservices/gateway/internal/http/handlers"
	"github.com/fastservices/gateway/internal/http/middlewares"
	"github.com/fastservices/gateway/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20

type Deps struct {
	Log     *slog.Logger
	Config  config.Config
	Backend backend.Backend
	Auth    *authctx.Manager
	Guard   *guard.Guard
	Prom    *observability.Prom
	Metrics prometheus.Gatherer
	Checks  []handlers.Check
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.Env != "dev" && d.Config.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(observability.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(d.Config.IsProd()))
	r.Use(middlewares.CORSMiddleware(d.Config.CORSAllowedOrigins))

	// health
	h := handlers.NewHealthHandler(d.Checks...)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{})))
	}

	cookie := middlewares.SessionCookie{Name: d.Config.SessionCookie, Secure: d.Config.IsProd()}
	g := d.Guard

	// everything below belongs to a browser session
	s := r.Group("", middlewares.Session(d.Auth, cookie), middlewares.MaxBodyBytes(maxBodyBytes), middlewares.RequireJSON())

	authH := handlers.NewAuthHandler(d.Auth, cookie, d.Config.HydrationGrace)
	limiter := middlewares.NewRateLimiter(d.Config.AuthRateLimitRPS, d.Config.AuthRateLimitBurst)
	limited := limiter.RateLimiterMiddleware(middlewares.KeyByIP)

	s.GET("/login", authH.LoginView)
	authGroup := s.Group("/auth")
	{
		authGroup.POST("/login", limited, authH.Login)
		authGroup.POST("/register", limited, authH.Register)
		authGroup.POST("/organizations/register", limited, authH.RegisterOrganization)
		authGroup.POST("/logout", authH.Logout)
		authGroup.GET("/me", authH.Me)
	}

	views := handlers.NewViewsHandler(d.Backend)

	// public pages
	s.GET("/", views.Home)
	s.GET("/organizations", views.Organizations)
	s.GET("/organizations/:id", views.OrganizationDetail)

	customerOnly := g.Require(user.RoleCustomer)
	s.GET("/book/:offeringId", customerOnly, views.BookingForm)
	s.POST("/book/:offeringId", customerOnly, views.Book)

	admin := s.Group("/admin", g.Require(user.RoleSuperAdmin))
	{
		admin.GET("", handlers.DashboardIndex(user.RoleSuperAdmin))
		admin.GET("/stats", views.AdminStats)
		admin.GET("/users", views.AdminUsers)
		admin.GET("/organizations", views.AdminOrganizations)
	}

	org := s.Group("/organization", g.Require(user.RoleOrgAdmin))
	{
		org.GET("", handlers.DashboardIndex(user.RoleOrgAdmin))
		org.GET("/offerings", views.OrgOfferings)
		org.GET("/queues", views.OrgQueues)
		org.GET("/appointments", views.OrgAppointments)
	}

	staff := s.Group("/staff", g.Require(user.RoleStaff))
	{
		staff.GET("", handlers.DashboardIndex(user.RoleStaff))
		staff.GET("/queue", views.StaffQueue)
	}

	customer := s.Group("/customer", g.Require(user.RoleCustomer))
	{
		customer.GET("", handlers.DashboardIndex(user.RoleCustomer))
		customer.GET("/upcoming", views.CustomerUpcoming)
		customer.GET("/history", views.CustomerHistory)
	}

	registerDataPlane(s.Group("/api"), handlers.NewDataHandler(d.Backend), g)

	return r
}

func registerDataPlane(api *gin.RouterGroup, data *handlers.DataHandler, g *guard.Guard) {
	signedIn := g.RequireSession()
	superAdmin := g.RequireSession(user.RoleSuperAdmin)
	catalogAdmin := g.RequireSession(user.RoleSuperAdmin, user.RoleOrgAdmin)
	operators := g.RequireSession(user.RoleSuperAdmin, user.RoleOrgAdmin, user.RoleStaff)

	// public catalog
	api.GET("/organizations", data.ListOrganizations)
	api.GET("/organizations/:id", data.GetOrganization)
	api.GET("/offerings", data.ListOfferings)
	api.GET("/offerings/:id", data.GetOffering)
	api.GET("/offerings/organization/:organizationId", data.ListOfferingsByOrganization)
	api.GET("/queues", data.ListQueues)
	api.GET("/queues/:id", data.GetQueue)
	api.GET("/queues/organization/:organizationId", data.ListQueuesByOrganization)

	api.DELETE("/organizations/:id", superAdmin, data.DeleteOrganization)

	api.POST("/offerings", catalogAdmin, data.CreateOffering)
	api.PUT("/offerings/:id", catalogAdmin, data.UpdateOffering)
	api.DELETE("/offerings/:id", catalogAdmin, data.DeleteOffering)

	api.POST("/queues", catalogAdmin, data.CreateQueue)
	api.PUT("/queues/:id", catalogAdmin, data.UpdateQueue)
	api.DELETE("/queues/:id", catalogAdmin, data.DeleteQueue)

	users := api.Group("/users", superAdmin)
	{
		users.GET("", data.ListUsers)
		users.GET("/:id", data.GetUser)
		users.PUT("/:id", data.UpdateUser)
		users.DELETE("/:id", data.DeleteUser)
	}

	appts := api.Group("/appointments")
	{
		appts.GET("", operators, data.ListAppointments)
		appts.GET("/:id", signedIn, data.GetAppointment)
		appts.GET("/customer/:customerId", signedIn, data.ListAppointmentsByCustomer)
		appts.GET("/offering/:offeringId", operators, data.ListAppointmentsByOffering)
		appts.GET("/queue/:queueId", operators, data.ListAppointmentsByQueue)
		appts.POST("", signedIn, data.CreateAppointment)
		appts.PUT("/:id", operators, data.UpdateAppointment)
		appts.DELETE("/:id", catalogAdmin, data.DeleteAppointment)
	}
}
