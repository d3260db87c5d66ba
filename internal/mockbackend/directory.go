package mockbackend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fastservices/gateway/internal/apperr"
	"github.com/fastservices/gateway/internal/backend"
	"github.com/fastservices/gateway/internal/domain/user"
	"github.com/fastservices/gateway/internal/security"
	"github.com/google/uuid"
)

// AccountStore is the durable side of the directory. It is never cleared
// by the directory itself.
type AccountStore interface {
	List(ctx context.Context) ([]user.Account, error)
	Upsert(ctx context.Context, a user.Account) error
	Delete(ctx context.Context, email string) error
}

type TokenMinter interface {
	Mint(userID, email, backendRole string) (string, error)
}

// Directory emulates the authentication and user endpoints.
type Directory struct {
	mu       sync.RWMutex
	accounts map[string]user.Account // lowercased email -> account
	store    AccountStore
	tokens   TokenMinter
	now      func() time.Time
}

// NewDirectory seeds the demo accounts and merges whatever the store already
// holds; stored accounts win over seeds with the same email.
func NewDirectory(ctx context.Context, store AccountStore, tokens TokenMinter) (*Directory, error) {
	d := &Directory{
		accounts: make(map[string]user.Account),
		store:    store,
		tokens:   tokens,
		now:      time.Now,
	}

	seeds, err := SeedAccounts(d.now())
	if err != nil {
		return nil, fmt.Errorf("hash seed accounts: %w", err)
	}
	for _, a := range seeds {
		d.accounts[a.Email] = a
	}

	persisted, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load mock directory: %w", err)
	}
	for _, a := range persisted {
		d.accounts[strings.ToLower(a.Email)] = a
	}
	return d, nil
}

func (d *Directory) Login(ctx context.Context, email, password string) (backend.AuthResult, error) {
	d.mu.RLock()
	a, ok := d.accounts[strings.ToLower(strings.TrimSpace(email))]
	d.mu.RUnlock()

	if !ok {
		return backend.AuthResult{}, apperr.NotFound()
	}

	match, err := security.PasswordMatches(a.PasswordHash, password)
	if err != nil {
		return backend.AuthResult{}, fmt.Errorf("compare password: %w", err)
	}
	if !match {
		return backend.AuthResult{}, apperr.InvalidCredentials()
	}

	token, err := d.tokens.Mint(a.ID, a.Email, a.Role)
	if err != nil {
		return backend.AuthResult{}, fmt.Errorf("mint token: %w", err)
	}

	return backend.AuthResult{AccessToken: token, User: a.Profile(), Role: a.Role}, nil
}

// Register creates an account and logs it in. Duplicate emails fail without
// touching state.
func (d *Directory) Register(ctx context.Context, req user.RegisterRequest) (backend.RegisterResult, error) {
	req = req.Normalize()
	return d.create(ctx, user.Account{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Role:      req.Role,
	}, req.Password)
}

func (d *Directory) create(ctx context.Context, a user.Account, password string) (backend.RegisterResult, error) {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))

	d.mu.RLock()
	_, exists := d.accounts[a.Email]
	d.mu.RUnlock()
	if exists {
		return backend.RegisterResult{}, apperr.DuplicateEmail()
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return backend.RegisterResult{}, fmt.Errorf("hash password: %w", err)
	}
	a.ID = "mock-" + uuid.NewString()
	a.PasswordHash = hash
	a.CreatedAt = d.now().UTC()

	d.mu.Lock()
	if _, exists := d.accounts[a.Email]; exists {
		d.mu.Unlock()
		return backend.RegisterResult{}, apperr.DuplicateEmail()
	}
	if err := d.store.Upsert(ctx, a); err != nil {
		d.mu.Unlock()
		return backend.RegisterResult{}, fmt.Errorf("persist mock account: %w", err)
	}
	d.accounts[a.Email] = a
	d.mu.Unlock()

	token, err := d.tokens.Mint(a.ID, a.Email, a.Role)
	if err != nil {
		return backend.RegisterResult{}, fmt.Errorf("mint token: %w", err)
	}

	return backend.RegisterResult{
		Kind:        backend.KindAuthenticated,
		AccessToken: token,
		User:        a.Profile(),
		Role:        a.Role,
	}, nil
}

func (d *Directory) ListUsers(ctx context.Context) ([]user.User, error) {
	d.mu.RLock()
	out := make([]user.User, 0, len(d.accounts))
	for _, a := range d.accounts {
		out = append(out, a.User())
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (d *Directory) findByID(id string) (user.Account, bool) {
	for _, a := range d.accounts {
		if a.ID == id {
			return a, true
		}
	}
	return user.Account{}, false
}

func (d *Directory) GetUser(ctx context.Context, id string) (user.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.findByID(id)
	if !ok {
		return user.User{}, apperr.New(apperr.ErrNotFound, "User not found")
	}
	return a.User(), nil
}

func (d *Directory) UpdateUser(ctx context.Context, id string, req user.UpdateRequest) (user.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	a, ok := d.findByID(id)
	if !ok {
		return user.User{}, apperr.New(apperr.ErrNotFound, "User not found")
	}
	if req.FirstName != "" {
		a.FirstName = req.FirstName
	}
	if req.LastName != "" {
		a.LastName = req.LastName
	}
	if req.Phone != "" {
		a.Phone = req.Phone
	}
	if err := d.store.Upsert(ctx, a); err != nil {
		return user.User{}, fmt.Errorf("persist mock account: %w", err)
	}
	d.accounts[a.Email] = a
	return a.User(), nil
}

func (d *Directory) DeleteUser(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	a, ok := d.findByID(id)
	if !ok {
		return apperr.New(apperr.ErrNotFound, "User not found")
	}
	if err := d.store.Delete(ctx, a.Email); err != nil {
		return fmt.Errorf("delete mock account: %w", err)
	}
	delete(d.accounts, a.Email)
	return nil
}
