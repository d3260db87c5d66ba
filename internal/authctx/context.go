// Package authctx holds the per-session authentication state of the gateway.
// State moves Anonymous -> Authenticated(role) -> Anonymous; loading is a
// transient flag, not a state.
package authctx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fastservices/gateway/internal/actorctx"
	"github.com/fastservices/gateway/internal/backend"
	"github.com/fastservices/gateway/internal/domain/organization"
	"github.com/fastservices/gateway/internal/domain/user"
	"github.com/fastservices/gateway/internal/session"
)

// TokenService decodes roles out of access tokens and mints tokens for
// sessions the backend created without one.
type TokenService interface {
	DecodeRole(raw string) (user.Role, error)
	Mint(userID, email, backendRole string) (string, error)
}

// Observer records authentication outcomes.
type Observer interface {
	ObserveAuth(op, outcome string)
}

type State struct {
	User          *user.User `json:"user"`
	Token         string     `json:"-"`
	Role          user.Role  `json:"role,omitempty"`
	Authenticated bool       `json:"isAuthenticated"`
	Loading       bool       `json:"isLoading"`
}

// Context is the authentication state of one browser session.
type Context struct {
	scope  session.Scope
	auth   backend.Auth
	tokens TokenService
	obs    Observer
	log    *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	u        *user.User
	token    string
	role     user.Role
	inflight int
	lastSeen time.Time

	hydrated chan struct{}
}

func newContext(scope session.Scope, auth backend.Auth, tokens TokenService, obs Observer, log *slog.Logger, now func() time.Time) *Context {
	return &Context{
		scope:    scope,
		auth:     auth,
		tokens:   tokens,
		obs:      obs,
		log:      log,
		now:      now,
		lastSeen: now(),
		hydrated: make(chan struct{}),
	}
}

func (c *Context) SessionID() string { return c.scope.ID() }

// State returns a snapshot.
func (c *Context) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := State{
		Token:         c.token,
		Role:          c.role,
		Authenticated: c.u != nil && c.token != "",
		Loading:       !c.isHydrated() || c.inflight > 0,
	}
	if c.u != nil {
		u := *c.u
		st.User = &u
	}
	return st
}

func (c *Context) isHydrated() bool {
	select {
	case <-c.hydrated:
		return true
	default:
		return false
	}
}

// AwaitHydrated blocks until the initial load from the session store is done
// or ctx ends.
func (c *Context) AwaitHydrated(ctx context.Context) error {
	select {
	case <-c.hydrated:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// hydrate runs exactly once per Context.
func (c *Context) hydrate(ctx context.Context) {
	defer close(c.hydrated)

	sess, err := c.scope.Load(ctx)
	if err != nil {
		c.log.WarnContext(ctx, "session hydrate failed", "session_id", c.scope.ID(), "err", err)
		return
	}
	if sess == nil {
		return
	}

	role, err := c.tokens.DecodeRole(sess.Token)
	if err != nil {
		c.log.WarnContext(ctx, "stored token rejected", "session_id", c.scope.ID(), "err", err)
		c.observe("hydrate", "rejected")
		if clearErr := c.scope.Clear(ctx); clearErr != nil {
			c.log.ErrorContext(ctx, "clear rejected session failed", "err", clearErr)
		}
		return
	}

	u := sess.User
	c.set(&u, sess.Token, role)
	c.observe("hydrate", "restored")
}

func (c *Context) begin() {
	c.mu.Lock()
	c.inflight++
	c.lastSeen = c.now()
	c.mu.Unlock()
}

func (c *Context) end() {
	c.mu.Lock()
	c.inflight--
	c.mu.Unlock()
}

func (c *Context) touch() {
	c.mu.Lock()
	c.lastSeen = c.now()
	c.mu.Unlock()
}

func (c *Context) idleSince(cutoff time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isHydrated() && c.inflight == 0 && c.lastSeen.Before(cutoff)
}

func (c *Context) observe(op, outcome string) {
	if c.obs != nil {
		c.obs.ObserveAuth(op, outcome)
	}
}

func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	return "failure"
}

func (c *Context) withSession(ctx context.Context) context.Context {
	return actorctx.WithSessionID(ctx, c.scope.ID())
}

// Login authenticates against the backend and returns the resolved role so
// the caller can navigate without re-reading state.
func (c *Context) Login(ctx context.Context, email, password string) (role user.Role, err error) {
	if err := c.AwaitHydrated(ctx); err != nil {
		return "", err
	}
	c.begin()
	defer c.end()
	defer func() { c.observe("login", outcomeOf(err)) }()

	email = strings.TrimSpace(email)
	res, err := c.auth.Login(c.withSession(ctx), email, password)
	if err != nil {
		return "", err
	}

	return c.adopt(ctx, res.AccessToken, res.User, res.Role, "", email)
}

// Register creates an account. An authenticated result is adopted as a
// login; a created result gets a gateway-minted session token.
func (c *Context) Register(ctx context.Context, req user.RegisterRequest) (role user.Role, err error) {
	if err := c.AwaitHydrated(ctx); err != nil {
		return "", err
	}
	c.begin()
	defer c.end()
	defer func() { c.observe("register", outcomeOf(err)) }()

	req = req.Normalize()
	res, err := c.auth.Register(c.withSession(ctx), req)
	if err != nil {
		return "", err
	}
	return c.adoptRegistration(ctx, res, req.Role, req.Email)
}

// RegisterOrganization registers an organization and signs its admin in.
func (c *Context) RegisterOrganization(ctx context.Context, req organization.RegisterRequest) (role user.Role, err error) {
	if err := c.AwaitHydrated(ctx); err != nil {
		return "", err
	}
	c.begin()
	defer c.end()
	defer func() { c.observe("register_organization", outcomeOf(err)) }()

	req.ContactEmail = strings.ToLower(strings.TrimSpace(req.ContactEmail))
	res, err := c.auth.RegisterOrganization(c.withSession(ctx), req)
	if err != nil {
		return "", err
	}
	return c.adoptRegistration(ctx, res, user.BackendOrganization, req.ContactEmail)
}

// adoptRegistration signs the new account in. requested is the backend role
// string the account was registered with; it stands in when the result
// carries no role.
func (c *Context) adoptRegistration(ctx context.Context, res backend.RegisterResult, requested, email string) (user.Role, error) {
	switch res.Kind {
	case backend.KindAuthenticated:
		return c.adopt(ctx, res.AccessToken, res.User, res.Role, requested, email)
	case backend.KindCreated:
		backendRole := res.Role
		if backendRole == "" {
			backendRole = requested
		}
		id := res.User.ID
		if id == "" {
			id = "temp-id"
		}
		token, err := c.tokens.Mint(id, email, user.BackendRole(backendRole))
		if err != nil {
			return "", fmt.Errorf("mint session token: %w", err)
		}
		return c.adopt(ctx, token, res.User, backendRole, requested, email)
	default:
		return "", fmt.Errorf("unknown registration result %q", res.Kind)
	}
}

// adopt stores the session. With no backend role the token's role is used,
// then fallback.
func (c *Context) adopt(ctx context.Context, token string, p user.Profile, backendRole, fallback, email string) (user.Role, error) {
	if token == "" {
		return "", errors.New("backend returned no access token")
	}

	role := user.RoleFromBackend(backendRole)
	if backendRole == "" {
		if decoded, err := c.tokens.DecodeRole(token); err == nil {
			role = decoded
		} else {
			role = user.RoleFromBackend(fallback)
		}
	}

	u := p.ToUser(role, strings.ToLower(email), c.now())
	if err := c.scope.Save(ctx, token, u); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	c.set(&u, token, role)
	return role, nil
}

// Logout drops the session locally. The backend is not told; the token stays
// valid there until it expires.
func (c *Context) Logout(ctx context.Context) error {
	if err := c.AwaitHydrated(ctx); err != nil {
		return err
	}
	c.begin()
	defer c.end()

	err := c.scope.Clear(ctx)
	c.reset()
	c.observe("logout", outcomeOf(err))
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// signedIn returns the session's credentials when authenticated.
func (c *Context) signedIn() (token string, u user.User, role user.Role, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.u == nil || c.token == "" {
		return "", user.User{}, "", false
	}
	return c.token, *c.u, c.role, true
}

func (c *Context) set(u *user.User, token string, role user.Role) {
	c.mu.Lock()
	c.u, c.token, c.role = u, token, role
	c.mu.Unlock()
}

func (c *Context) reset() {
	c.mu.Lock()
	c.u, c.token, c.role = nil, "", ""
	c.mu.Unlock()
}
