package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/fastservices/gateway/internal/domain/user"
)

// MemoryStore keeps each session as two raw values, mirroring the
// token/user key pair of the Redis store.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]map[string]string)}
}

func (m *MemoryStore) Save(ctx context.Context, sid, token string, u user.User) error {
	if sid == "" {
		return ErrNoSessionID
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.items[sid] = map[string]string{TokenKey: token, UserKey: string(raw)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, sid string) (*Session, error) {
	if sid == "" {
		return nil, ErrNoSessionID
	}

	m.mu.RLock()
	kv, ok := m.items[sid]
	var token, rawUser string
	if ok {
		token, rawUser = kv[TokenKey], kv[UserKey]
	}
	m.mu.RUnlock()

	if token == "" || rawUser == "" {
		return nil, nil
	}

	var u user.User
	if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
		return nil, err
	}
	return &Session{Token: token, User: u}, nil
}

func (m *MemoryStore) Clear(ctx context.Context, sid string) error {
	if sid == "" {
		return ErrNoSessionID
	}
	m.mu.Lock()
	delete(m.items, sid)
	m.mu.Unlock()
	return nil
}

// Len is the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
