package authctx

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fastservices/gateway/internal/backend"
	"github.com/fastservices/gateway/internal/session"
	"github.com/google/uuid"
)

const defaultIdleTTL = 30 * time.Minute

type ManagerConfig struct {
	// IdleTTL is how long an untouched Context stays in memory. Evicted
	// contexts hydrate again from the session store on next use.
	IdleTTL  time.Duration
	Observer Observer
	Logger   *slog.Logger
}

// Manager owns the Auth Context of every live session.
type Manager struct {
	store  session.Store
	auth   backend.Auth
	tokens TokenService
	obs    Observer
	log    *slog.Logger
	idle   time.Duration
	now    func() time.Time

	mu       sync.Mutex
	contexts map[string]*Context

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(store session.Store, auth backend.Auth, tokens TokenService, cfg ManagerConfig) *Manager {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultIdleTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	base, cancel := context.WithCancel(context.Background())

	return &Manager{
		store:    store,
		auth:     auth,
		tokens:   tokens,
		obs:      cfg.Observer,
		log:      cfg.Logger,
		idle:     cfg.IdleTTL,
		now:      time.Now,
		contexts: make(map[string]*Context),
		base:     base,
		cancel:   cancel,
	}
}

// For returns the Context of sid, creating it and starting hydration on
// first use.
func (m *Manager) For(sid string) *Context {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.contexts[sid]; ok {
		c.touch()
		return c
	}

	c := newContext(session.NewScope(m.store, sid), m.auth, m.tokens, m.obs, m.log, m.now)
	m.contexts[sid] = c

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		c.hydrate(m.base)
	}()
	return c
}

// Ephemeral returns an anonymous, already hydrated Context that the manager
// does not track. Requests without a session cookie use one, so browsing
// public pages costs no store lookup and leaves nothing behind.
func (m *Manager) Ephemeral() *Context {
	c := newContext(session.NewScope(m.store, uuid.NewString()), m.auth, m.tokens, m.obs, m.log, m.now)
	close(c.hydrated)
	return c
}

// Rotate moves the session held by old to a fresh id. The old id is cleared
// from the store and left anonymous, so an id known before sign-in never
// carries the signed-in session.
func (m *Manager) Rotate(ctx context.Context, old *Context) (*Context, error) {
	sid := uuid.NewString()
	next := newContext(session.NewScope(m.store, sid), m.auth, m.tokens, m.obs, m.log, m.now)
	close(next.hydrated)

	if token, u, role, ok := old.signedIn(); ok {
		if err := next.scope.Save(ctx, token, u); err != nil {
			return nil, fmt.Errorf("save rotated session: %w", err)
		}
		next.set(&u, token, role)
	}

	if err := old.scope.Clear(ctx); err != nil {
		m.log.WarnContext(ctx, "clear previous session failed", "session_id", old.SessionID(), "err", err)
	}
	old.reset()

	m.mu.Lock()
	if cur, ok := m.contexts[old.SessionID()]; ok && cur == old {
		delete(m.contexts, old.SessionID())
	}
	m.contexts[sid] = next
	m.mu.Unlock()

	next.observe("session", "rotated")
	return next, nil
}

// HandleUnauthorized resets the session after the backend rejected its
// token. The store has already been cleared by the caller.
func (m *Manager) HandleUnauthorized(ctx context.Context, sid string) {
	m.mu.Lock()
	c, ok := m.contexts[sid]
	m.mu.Unlock()
	if !ok {
		return
	}
	c.reset()
	c.observe("session", "expired")
	m.log.InfoContext(ctx, "session expired by backend", "session_id", sid)
}

// Start runs idle eviction until ctx ends or Close is called.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		t := time.NewTicker(m.idle / 2)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-m.base.Done():
				return
			case <-t.C:
				if n := m.evictIdle(); n > 0 {
					m.log.Debug("evicted idle auth contexts", "count", n)
				}
			}
		}
	}()
}

func (m *Manager) evictIdle() int {
	cutoff := m.now().Add(-m.idle)

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for sid, c := range m.contexts {
		if c.idleSince(cutoff) {
			delete(m.contexts, sid)
			n++
		}
	}
	return n
}

// Len is the number of contexts held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.contexts)
}

// Close cancels pending hydration, stops eviction and waits for both.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()
}
