package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fastservices/gateway/internal/authctx"
	"github.com/fastservices/gateway/internal/domain/organization"
	"github.com/fastservices/gateway/internal/domain/user"
	"github.com/fastservices/gateway/internal/guard"
	"github.com/gin-gonic/gin"
)

// SessionCookie sets the browser's session cookie on sign-in and clears it
// on logout.
type SessionCookie interface {
	Issue(ctx *gin.Context, sid string)
	Clear(ctx *gin.Context)
}

// SessionRotator moves a freshly signed-in session to a new id.
type SessionRotator interface {
	Rotate(ctx context.Context, old *authctx.Context) (*authctx.Context, error)
}

type AuthHandler struct {
	sessions SessionRotator
	cookie   SessionCookie
	grace    time.Duration
}

func NewAuthHandler(sessions SessionRotator, cookie SessionCookie, grace time.Duration) *AuthHandler {
	return &AuthHandler{sessions: sessions, cookie: cookie, grace: grace}
}

// signedIn rotates the session id after a successful sign-in and answers
// with the new session's state.
func (h *AuthHandler) signedIn(ctx *gin.Context, ac *authctx.Context, status int, role user.Role, redirect string) {
	next, err := h.sessions.Rotate(ctx.Request.Context(), ac)
	if err != nil {
		slog.ErrorContext(ctx.Request.Context(), "session rotation failed", "err", err)
		RespondInternal(ctx, "Could not start your session. Please try again.")
		return
	}
	h.cookie.Issue(ctx, next.SessionID())
	guard.SetContext(ctx, next)

	ctx.JSON(status, authResponse{Role: role, User: next.State().User, Redirect: redirect})
}

type loginBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	From     string `json:"from,omitempty"`
}

type authResponse struct {
	Role     user.Role  `json:"role"`
	User     *user.User `json:"user"`
	Redirect string     `json:"redirect"`
}

func contextWithTimeout(ctx *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), d)
}

func authContext(ctx *gin.Context) (*authctx.Context, bool) {
	ac, ok := guard.ContextFrom(ctx)
	if !ok {
		RespondInternal(ctx, "Session context missing")
	}
	return ac, ok
}

// landing is where a freshly signed-in role goes: the remembered location
// when it is local, else the role's dashboard.
func landing(role user.Role, from string) string {
	if to, ok := guard.SafeReturn(from); ok {
		return to
	}
	return guard.DefaultTab(role)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req loginBody
	if !BindJSON(ctx, &req) {
		return
	}
	ac, ok := authContext(ctx)
	if !ok {
		return
	}

	role, err := ac.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	from := req.From
	if from == "" {
		from = ctx.Query("from")
	}
	h.signedIn(ctx, ac, http.StatusOK, role, landing(role, from))
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest
	if !BindJSON(ctx, &req) {
		return
	}
	ac, ok := authContext(ctx)
	if !ok {
		return
	}

	role, err := ac.Register(ctx.Request.Context(), req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	h.signedIn(ctx, ac, http.StatusCreated, role, guard.DefaultTab(role))
}

func (h *AuthHandler) RegisterOrganization(ctx *gin.Context) {
	var req organization.RegisterRequest
	if !BindJSON(ctx, &req) {
		return
	}
	ac, ok := authContext(ctx)
	if !ok {
		return
	}

	role, err := ac.RegisterOrganization(ctx.Request.Context(), req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	h.signedIn(ctx, ac, http.StatusCreated, role, guard.DefaultTab(role))
}

// Logout is local only: the backend token stays valid until it expires.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	ac, ok := authContext(ctx)
	if !ok {
		return
	}

	if err := ac.Logout(ctx.Request.Context()); err != nil {
		RespondAppError(ctx, err)
		return
	}
	h.cookie.Clear(ctx)
	ctx.JSON(http.StatusOK, gin.H{"redirect": guard.LoginPath})
}

// Me reports the session state, waiting briefly for hydration.
func (h *AuthHandler) Me(ctx *gin.Context) {
	ac, ok := authContext(ctx)
	if !ok {
		return
	}

	if h.grace > 0 {
		wctx, cancel := contextWithTimeout(ctx, h.grace)
		_ = ac.AwaitHydrated(wctx)
		cancel()
	}
	ctx.JSON(http.StatusOK, ac.State())
}

// LoginView is the login page model; it echoes a safe return location.
func (h *AuthHandler) LoginView(ctx *gin.Context) {
	view := gin.H{"view": "login"}
	if from, ok := guard.SafeReturn(ctx.Query("from")); ok {
		view["from"] = from
	}
	ctx.JSON(http.StatusOK, view)
}
