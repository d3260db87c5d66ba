package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fastservices/gateway/internal/apperr"
	"github.com/fastservices/gateway/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
)

func TestMintAndDecodeRole(t *testing.T) {
	m := NewManager("test-secret", time.Minute)

	tests := []struct {
		backendRole string
		want        user.Role
	}{
		{"SUPER_ADMIN", user.RoleSuperAdmin},
		{"ORGANIZATION", user.RoleOrgAdmin},
		{"STAFF", user.RoleStaff},
		{"CUSTOMER", user.RoleCustomer},
		{"SOMETHING_ELSE", user.RoleCustomer},
	}

	for _, tt := range tests {
		t.Run(tt.backendRole, func(t *testing.T) {
			raw, err := m.Mint("u1", "a@b.c", tt.backendRole)
			if err != nil {
				t.Fatalf("mint: %v", err)
			}
			got, err := m.DecodeRole(raw)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got role %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeRole_RolesArrayFirstWins(t *testing.T) {
	secret := []byte("test-secret")
	claims := Claims{Roles: []string{"ORGANIZATION", "STAFF"}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	got, err := NewManager(string(secret), time.Minute).DecodeRole(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != user.RoleOrgAdmin {
		t.Fatalf("got %q, want ORG_ADMIN", got)
	}
}

func TestDecode_RejectsMalformed(t *testing.T) {
	m := NewManager("test-secret", time.Minute)
	other, _ := NewManager("other-secret", time.Minute).Mint("u1", "a@b.c", "STAFF")
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"role":"STAFF"}`))

	cases := map[string]string{
		"empty":        "",
		"opaque":       "mock-jwt-token-1700000000",
		"two parts":    "abc." + payload,
		"bad payload":  "eyJhbGciOiJIUzI1NiJ9.%%%." + "sig",
		"wrong secret": other,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := m.DecodeRole(raw)
			if !errors.Is(err, apperr.ErrMalformedToken) {
				t.Fatalf("expected ErrMalformedToken, got %v", err)
			}
		})
	}
}

func TestDecode_UnverifiedStillChecksStructureAndExpiry(t *testing.T) {
	signer := NewManager("backend-secret", time.Minute)
	raw, err := signer.Mint("u1", "a@b.c", "STAFF")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	m := NewManager("", time.Minute)
	role, err := m.DecodeRole(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if role != user.RoleStaff {
		t.Fatalf("got %q, want STAFF", role)
	}

	expired := Claims{
		Role: "STAFF",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	rawExpired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString([]byte("x"))
	if _, err := m.DecodeRole(rawExpired); !errors.Is(err, apperr.ErrMalformedToken) {
		t.Fatalf("expected expired token rejection, got %v", err)
	}

	if _, err := m.DecodeRole(strings.Repeat("a", 10)); !errors.Is(err, apperr.ErrMalformedToken) {
		t.Fatalf("expected structural rejection, got %v", err)
	}
}

func TestMint_WorksWithoutBackendSecret(t *testing.T) {
	m := NewManager("", time.Minute)

	raw, err := m.Mint("u", "e@x.ng", "STAFF")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	role, err := m.DecodeRole(raw)
	if err != nil || role != user.RoleStaff {
		t.Fatalf("decode own token: role=%q err=%v", role, err)
	}

	// a gateway holding the backend key does not accept another process's minted token
	if _, err := NewManager("backend-secret", time.Minute).DecodeRole(raw); !errors.Is(err, apperr.ErrMalformedToken) {
		t.Fatalf("expected rejection, got %v", err)
	}
}

func TestDecode_KeepsSigningAndBackendKeysApart(t *testing.T) {
	backendSecret := []byte("backend-secret")
	m := NewManager(string(backendSecret), time.Minute)

	issued, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: "ORGANIZATION"}).SignedString(backendSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	minted, err := m.Mint("u1", "a@b.c", "CUSTOMER")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	tests := []struct {
		name string
		raw  string
		want user.Role
	}{
		{"backend token", issued, user.RoleOrgAdmin},
		{"minted token", minted, user.RoleCustomer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.DecodeRole(tt.raw)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithSigningKey_SharedAcrossManagers(t *testing.T) {
	a := NewManager("backend-secret", time.Minute, WithSigningKey("shared"))
	b := NewManager("backend-secret", time.Minute, WithSigningKey("shared"))

	raw, err := a.Mint("u1", "a@b.c", "STAFF")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if role, err := b.DecodeRole(raw); err != nil || role != user.RoleStaff {
		t.Fatalf("role=%q err=%v", role, err)
	}
}
