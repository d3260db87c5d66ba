// Package session persists the authentication token and cached user profile
// of a browser session. Token and user are always written and cleared
// together.
package session

import (
	"context"
	"errors"

	"github.com/fastservices/gateway/internal/domain/user"
)

const (
	TokenKey = "token"
	UserKey  = "user"
)

var ErrNoSessionID = errors.New("session id is required")

type Session struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

type Store interface {
	Save(ctx context.Context, sid, token string, u user.User) error
	// Load returns nil, nil when no complete session is stored.
	Load(ctx context.Context, sid string) (*Session, error)
	Clear(ctx context.Context, sid string) error
}

// Scope binds a Store to one session id.
type Scope struct {
	store Store
	sid   string
}

func NewScope(store Store, sid string) Scope {
	return Scope{store: store, sid: sid}
}

func (s Scope) ID() string { return s.sid }

func (s Scope) Save(ctx context.Context, token string, u user.User) error {
	return s.store.Save(ctx, s.sid, token, u)
}

func (s Scope) Load(ctx context.Context) (*Session, error) {
	return s.store.Load(ctx, s.sid)
}

func (s Scope) Clear(ctx context.Context) error {
	return s.store.Clear(ctx, s.sid)
}
