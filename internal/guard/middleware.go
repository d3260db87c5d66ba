package guard

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fastservices/gateway/internal/authctx"
	"github.com/fastservices/gateway/internal/domain/user"
	"github.com/gin-gonic/gin"
)

const ctxAuthKey = "auth.context"

// SetContext stores the session's Auth Context on the gin context.
func SetContext(c *gin.Context, ac *authctx.Context) {
	c.Set(ctxAuthKey, ac)
}

func ContextFrom(c *gin.Context) (*authctx.Context, bool) {
	v, ok := c.Get(ctxAuthKey)
	if !ok {
		return nil, false
	}
	ac, ok := v.(*authctx.Context)
	return ac, ok && ac != nil
}

// Observer records guard decisions.
type Observer interface {
	ObserveGuard(outcome string)
}

// Guard turns decisions into HTTP responses.
type Guard struct {
	// Grace is how long a request waits for hydration before the loading
	// placeholder is served.
	Grace time.Duration
	obs   Observer
}

func New(grace time.Duration) *Guard {
	return &Guard{Grace: grace}
}

// WithObserver returns g reporting to obs.
func (g *Guard) WithObserver(obs Observer) *Guard {
	g.obs = obs
	return g
}

func (g *Guard) state(c *gin.Context) (authctx.State, bool) {
	ac, ok := ContextFrom(c)
	if !ok {
		return authctx.State{}, false
	}
	if g.Grace > 0 {
		ctx, cancel := context.WithTimeout(c.Request.Context(), g.Grace)
		_ = ac.AwaitHydrated(ctx)
		cancel()
	}
	return ac.State(), true
}

func requestPath(c *gin.Context) string {
	if q := c.Request.URL.RawQuery; q != "" {
		return c.Request.URL.Path + "?" + q
	}
	return c.Request.URL.Path
}

// Require guards a view subtree. Redirects are 302s; the loading placeholder
// is a 202 the browser is told to retry.
func (g *Guard) Require(roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, ok := g.state(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{"code": "internal_error", "message": "Session context missing"},
			})
			return
		}

		d := Decide(st, c.Request.URL.Path, roles)
		if g.obs != nil {
			g.obs.ObserveGuard(d.Outcome.String())
		}
		switch d.Outcome {
		case Allow:
			c.Next()
		case Loading:
			c.Header("Retry-After", strconv.Itoa(1))
			c.AbortWithStatusJSON(http.StatusAccepted, gin.H{"view": "loading"})
		case RedirectLogin:
			c.Redirect(http.StatusFound, LoginLocation(requestPath(c)))
			c.Abort()
		default:
			c.Redirect(http.StatusFound, d.Location)
			c.Abort()
		}
	}
}

// RequireSession guards data endpoints. It answers in JSON instead of
// redirecting; an empty roles list admits any signed-in session.
func (g *Guard) RequireSession(roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, ok := g.state(c)
		if !ok || st.Loading {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": gin.H{"code": "session_loading", "message": "Session is still loading"},
			})
			return
		}
		if !st.Authenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":    gin.H{"code": "unauthorized", "message": "Please log in to continue."},
				"redirect": LoginPath,
			})
			return
		}
		if len(roles) > 0 && !roleAllowed(st.Role, roles) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{"code": "forbidden", "message": "Your role cannot perform this action."},
			})
			return
		}
		c.Next()
	}
}
