package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/fastservices/gateway/internal/domain/user"
)

// AccountsRepo is the non-durable mock directory store.
type AccountsRepo struct {
	mu    sync.RWMutex
	items map[string]user.Account // lowercased email -> account
}

func NewAccountsRepo() *AccountsRepo {
	return &AccountsRepo{items: make(map[string]user.Account)}
}

func (r *AccountsRepo) List(ctx context.Context) ([]user.Account, error) {
	r.mu.RLock()
	out := make([]user.Account, 0, len(r.items))
	for _, a := range r.items {
		out = append(out, a)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *AccountsRepo) Upsert(ctx context.Context, a user.Account) error {
	a.Email = strings.ToLower(a.Email)
	r.mu.Lock()
	r.items[a.Email] = a
	r.mu.Unlock()
	return nil
}

func (r *AccountsRepo) Delete(ctx context.Context, email string) error {
	r.mu.Lock()
	delete(r.items, strings.ToLower(email))
	r.mu.Unlock()
	return nil
}
