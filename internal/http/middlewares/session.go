package middlewares

import (
	"net/http"
	"time"

	"github.com/fastservices/gateway/internal/actorctx"
	"github.com/fastservices/gateway/internal/authctx"
	"github.com/fastservices/gateway/internal/guard"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionCookie issues and clears the opaque session id cookie.
type SessionCookie struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

func (s SessionCookie) Issue(ctx *gin.Context, sid string) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	maxAge := 0 // browser session
	if s.TTL > 0 {
		maxAge = int(s.TTL.Seconds())
	}
	ctx.SetCookie(s.Name, sid, maxAge, "/", "", s.Secure, true)
}

// Clear expires the cookie; the next request starts anonymous.
func (s SessionCookie) Clear(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(s.Name, "", -1, "/", "", s.Secure, true)
}

// Session attaches the request's Auth Context. A well-formed cookie resumes
// its session; without one the request is anonymous and no cookie is issued
// until sign-in, which moves the session to a fresh id.
func Session(m *authctx.Manager, cookie SessionCookie) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var ac *authctx.Context
		if sid, err := ctx.Cookie(cookie.Name); err == nil && uuid.Validate(sid) == nil {
			ac = m.For(sid)
		} else {
			ac = m.Ephemeral()
		}

		ctx.Set(CtxSessionID, ac.SessionID())
		ctx.Request = ctx.Request.WithContext(actorctx.WithSessionID(ctx.Request.Context(), ac.SessionID()))
		guard.SetContext(ctx, ac)

		ctx.Next()
	}
}
