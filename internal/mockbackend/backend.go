// Package mockbackend serves the whole backend contract from memory so the
// gateway can run without the real FastServices API.
package mockbackend

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/fastservices/gateway/internal/backend"
	"github.com/fastservices/gateway/internal/domain/organization"
	"github.com/fastservices/gateway/internal/domain/user"
	"github.com/fastservices/gateway/internal/repo/memory"
)

type Backend struct {
	*Directory
	*memory.CatalogRepo
}

var _ backend.Backend = (*Backend)(nil)

// New builds a mock backend with the demo directory and catalog.
func New(ctx context.Context, store AccountStore, tokens TokenMinter) (*Backend, error) {
	dir, err := NewDirectory(ctx, store, tokens)
	if err != nil {
		return nil, err
	}

	catalog := memory.NewCatalogRepo()
	catalog.Seed(seedCatalog(time.Now().UTC()))

	return &Backend{Directory: dir, CatalogRepo: catalog}, nil
}

// RegisterOrganization creates the organization's admin account (keyed by the
// contact email) and the organization record.
func (b *Backend) RegisterOrganization(ctx context.Context, req organization.RegisterRequest) (backend.RegisterResult, error) {
	res, err := b.Directory.create(ctx, user.Account{
		FirstName: req.Name,
		LastName:  "Organization",
		Email:     req.ContactEmail,
		Phone:     req.ContactPhone,
		Role:      user.BackendOrganization,
	}, req.Password)
	if err != nil {
		return backend.RegisterResult{}, err
	}

	b.CatalogRepo.PutOrganization(ctx, organization.Organization{
		Name:         req.Name,
		Address:      req.Address,
		ContactEmail: strings.ToLower(req.ContactEmail),
		ContactPhone: req.ContactPhone,
		Code:         orgCode(req.Name),
	})
	return res, nil
}

// orgCode derives a short code from the initials of the name.
func orgCode(name string) string {
	var b strings.Builder
	for _, w := range strings.Fields(name) {
		r := []rune(w)[0]
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
		if b.Len() == 4 {
			break
		}
	}
	if b.Len() == 0 {
		return "ORG"
	}
	return b.String()
}
