package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/fastservices/gateway/internal/apperr"
	"github.com/fastservices/gateway/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims accepts both shapes the backend has issued: a single "role" string
// and a "roles" array (first entry wins).
type Claims struct {
	UserID    string   `json:"uid,omitempty"`
	Email     string   `json:"email,omitempty"`
	Role      string   `json:"role,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	TokenType string   `json:"typ,omitempty"`
	jwt.RegisteredClaims
}

// BackendRole returns the role string carried by the token.
func (c *Claims) BackendRole() string {
	if len(c.Roles) > 0 {
		return c.Roles[0]
	}
	return c.Role
}

type Manager struct {
	backendKey []byte
	signingKey []byte
	accessTTL  time.Duration
	parser     *jwt.Parser
}

type Option func(*Manager)

// WithSigningKey fixes the key for tokens this process mints. Replicas that
// share a session store need the same key to restore each other's sessions.
func WithSigningKey(key string) Option {
	return func(m *Manager) {
		if key != "" {
			m.signingKey = []byte(key)
		}
	}
}

// NewManager builds a token manager. backendSecret verifies tokens issued by
// the backend; when empty they are checked for structure and expiry only,
// which is all a gateway without the backend's key can do. Tokens minted
// here are signed with a separate key, random per process unless
// WithSigningKey is given.
func NewManager(backendSecret string, accessTTL time.Duration, opts ...Option) *Manager {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	m := &Manager{
		backendKey: []byte(backendSecret),
		accessTTL:  accessTTL,
		parser:     jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
	for _, opt := range opts {
		opt(m)
	}
	if len(m.signingKey) == 0 {
		m.signingKey = make([]byte, 32)
		if _, err := rand.Read(m.signingKey); err != nil {
			panic(fmt.Sprintf("auth: generate signing key: %v", err))
		}
	}
	return m
}

// Verifies reports whether backend tokens are signature-checked.
func (m *Manager) Verifies() bool { return len(m.backendKey) > 0 }

// Mint issues an HS256 access token carrying the backend role string. Used by
// the mock backend and for sessions synthesized after a token-less register.
func (m *Manager) Mint(userID, email, backendRole string) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		UserID:    userID,
		Email:     email,
		Role:      backendRole,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			Subject:   userID,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
}

func (m *Manager) verified(raw string, key []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := m.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func (m *Manager) unverified(raw string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := m.parser.ParseUnverified(raw, claims); err != nil {
		return nil, err
	}
	if exp := claims.ExpiresAt; exp != nil && time.Now().After(exp.Time) {
		return nil, errors.New("token expired")
	}
	return claims, nil
}

// Decode parses the token and returns its claims. Tokens minted by this
// manager are tried first, then the backend path. Every failure is reported
// as apperr.ErrMalformedToken.
func (m *Manager) Decode(raw string) (*Claims, error) {
	claims, err := m.verified(raw, m.signingKey)
	if err != nil {
		if m.Verifies() {
			claims, err = m.verified(raw, m.backendKey)
		} else {
			claims, err = m.unverified(raw)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrMalformedToken, err)
	}

	if claims.TokenType != "" && claims.TokenType != "access" {
		return nil, fmt.Errorf("%w: invalid token type %q", apperr.ErrMalformedToken, claims.TokenType)
	}
	return claims, nil
}

// DecodeRole resolves the internal role carried by the token.
func (m *Manager) DecodeRole(raw string) (user.Role, error) {
	claims, err := m.Decode(raw)
	if err != nil {
		return "", err
	}
	return user.RoleFromBackend(claims.BackendRole()), nil
}
