package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fastservices/gateway/internal/auth"
	"github.com/fastservices/gateway/internal/authctx"
	"github.com/fastservices/gateway/internal/config"
	"github.com/fastservices/gateway/internal/guard"
	"github.com/fastservices/gateway/internal/mockbackend"
	"github.com/fastservices/gateway/internal/repo/memory"
	"github.com/fastservices/gateway/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type browser struct {
	t      *testing.T
	r      http.Handler
	cookie *http.Cookie
}

func (b *browser) do(method, path string, body any) *httptest.ResponseRecorder {
	b.t.Helper()

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			b.t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}

	w := httptest.NewRecorder()
	b.r.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name != "fs_session" {
			continue
		}
		if c.MaxAge < 0 {
			b.cookie = nil
		} else {
			b.cookie = c
		}
	}
	return w
}

func newTestRouter(t *testing.T) (http.Handler, *authctx.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx := context.Background()
	tokens := auth.NewManager("router-test-secret", time.Hour)
	b, err := mockbackend.New(ctx, memory.NewAccountsRepo(), tokens)
	if err != nil {
		t.Fatalf("mock backend: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := authctx.NewManager(session.NewMemoryStore(), b, tokens, authctx.ManagerConfig{Logger: log})
	t.Cleanup(manager.Close)

	cfg := config.Config{
		Env:                "test",
		SessionCookie:      "fs_session",
		HydrationGrace:     time.Second,
		AuthRateLimitRPS:   100,
		AuthRateLimitBurst: 100,
	}
	return NewRouter(Deps{
		Log:     log,
		Config:  cfg,
		Backend: b,
		Auth:    manager,
		Guard:   guard.New(cfg.HydrationGrace),
	}), manager
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestCustomerSessionFlow(t *testing.T) {
	r, _ := newTestRouter(t)
	br := &browser{t: t, r: r}

	w := br.do(http.MethodGet, "/customer/upcoming", nil)
	if w.Code != http.StatusFound {
		t.Fatalf("anonymous status = %d, want 302", w.Code)
	}
	if got, want := w.Header().Get("Location"), guard.LoginLocation("/customer/upcoming"); got != want {
		t.Fatalf("Location = %q, want %q", got, want)
	}
	if br.cookie != nil {
		t.Fatalf("anonymous browsing should not issue a session cookie")
	}

	w = br.do(http.MethodPost, "/auth/login", map[string]string{
		"email":    "customer@fastservices.ng",
		"password": "customer123",
		"from":     "/customer/history",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d body=%s", w.Code, w.Body.String())
	}
	var login struct {
		Role     string `json:"role"`
		Redirect string `json:"redirect"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if login.Role != "CUSTOMER" || login.Redirect != "/customer/history" {
		t.Fatalf("login = %+v", login)
	}
	if br.cookie == nil || br.cookie.Value == "" {
		t.Fatalf("login should issue a session cookie")
	}

	tests := []struct {
		name     string
		method   string
		path     string
		status   int
		location string
	}{
		{"own tab", http.MethodGet, "/customer/upcoming", http.StatusOK, ""},
		{"own root", http.MethodGet, "/customer", http.StatusFound, "/customer/upcoming"},
		{"other dashboard", http.MethodGet, "/admin/stats", http.StatusFound, "/"},
		{"booking form", http.MethodGet, "/book/missing", http.StatusNotFound, ""},
		{"admin data", http.MethodGet, "/api/users", http.StatusForbidden, ""},
		{"public catalog", http.MethodGet, "/api/organizations", http.StatusOK, ""},
		{"me", http.MethodGet, "/auth/me", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := br.do(tt.method, tt.path, nil)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d body=%s", w.Code, tt.status, w.Body.String())
			}
			if tt.location != "" {
				if got := w.Header().Get("Location"); got != tt.location {
					t.Fatalf("Location = %q, want %q", got, tt.location)
				}
			}
		})
	}

	w = br.do(http.MethodPost, "/auth/logout", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout status = %d", w.Code)
	}
	if br.cookie != nil {
		t.Fatalf("logout should clear the session cookie")
	}

	w = br.do(http.MethodGet, "/customer/upcoming", nil)
	if w.Code != http.StatusFound || w.Header().Get("Location") != guard.LoginLocation("/customer/upcoming") {
		t.Fatalf("after logout: status=%d location=%q", w.Code, w.Header().Get("Location"))
	}
}

func TestAnonymousDataPlane(t *testing.T) {
	r, _ := newTestRouter(t)
	br := &browser{t: t, r: r}

	w := br.do(http.MethodPost, "/api/appointments", map[string]string{"offeringId": "x"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	var body struct {
		Redirect string `json:"redirect"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Redirect != "/login" {
		t.Fatalf("redirect = %q", body.Redirect)
	}
}

func TestLoginMovesSessionToFreshID(t *testing.T) {
	r, _ := newTestRouter(t)
	planted := &http.Cookie{Name: "fs_session", Value: uuid.NewString()}

	// both browsers carry the same id before sign-in
	victim := &browser{t: t, r: r, cookie: planted}
	other := &browser{t: t, r: r, cookie: planted}

	if w := victim.do(http.MethodGet, "/customer/upcoming", nil); w.Code != http.StatusFound {
		t.Fatalf("pre-login status = %d", w.Code)
	}

	w := victim.do(http.MethodPost, "/auth/login", map[string]string{
		"email":    "customer@fastservices.ng",
		"password": "customer123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d body=%s", w.Code, w.Body.String())
	}
	if victim.cookie == nil || victim.cookie.Value == planted.Value {
		t.Fatalf("login kept the pre-login session id")
	}

	if w := victim.do(http.MethodGet, "/customer/upcoming", nil); w.Code != http.StatusOK {
		t.Fatalf("signed-in status = %d", w.Code)
	}
	w = other.do(http.MethodGet, "/customer/upcoming", nil)
	if w.Code != http.StatusFound || w.Header().Get("Location") != guard.LoginLocation("/customer/upcoming") {
		t.Fatalf("old id should stay anonymous: status=%d location=%q", w.Code, w.Header().Get("Location"))
	}
}

func TestPublicBrowsingTracksNoSessions(t *testing.T) {
	r, manager := newTestRouter(t)
	br := &browser{t: t, r: r}

	for _, path := range []string{"/", "/organizations", "/api/offerings", "/customer"} {
		br.do(http.MethodGet, path, nil)
	}
	if n := manager.Len(); n != 0 {
		t.Fatalf("cookie-less requests left %d auth contexts", n)
	}
	if br.cookie != nil {
		t.Fatalf("unexpected cookie %q", br.cookie.Value)
	}
}
