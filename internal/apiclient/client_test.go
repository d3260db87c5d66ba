package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fastservices/gateway/internal/actorctx"
	"github.com/fastservices/gateway/internal/apperr"
	"github.com/fastservices/gateway/internal/backend"
	"github.com/fastservices/gateway/internal/domain/offering"
	"github.com/fastservices/gateway/internal/domain/user"
	"github.com/fastservices/gateway/internal/session"
)

type fakeObserver struct {
	calls []string
}

func (f *fakeObserver) ObserveUpstream(method, route, status string, d time.Duration) {
	f.calls = append(f.calls, method+" "+route+" "+status)
}

func newTestClient(t *testing.T, h http.HandlerFunc, cfg Config) (*Client, *session.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg.BaseURL = srv.URL
	store := session.NewMemoryStore()
	return New(cfg, store), store
}

func sessionCtx(t *testing.T, store session.Store, sid, token string) context.Context {
	t.Helper()
	ctx := actorctx.WithSessionID(context.Background(), sid)
	if token != "" {
		u := user.User{ID: "u1", Email: "customer@fastservices.ng", Roles: []user.Role{user.RoleCustomer}}
		if err := store.Save(ctx, sid, token, u); err != nil {
			t.Fatalf("save session: %v", err)
		}
	}
	return ctx
}

func TestAuthedCallCarriesBearerToken(t *testing.T) {
	var gotAuth string
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]user.User{{ID: "u1"}})
	}, Config{})

	ctx := sessionCtx(t, store, "sid-1", "tok-abc")
	users, err := c.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if gotAuth != "Bearer tok-abc" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if len(users) != 1 || users[0].ID != "u1" {
		t.Fatalf("unexpected users: %+v", users)
	}
}

func TestNoTokenMeansNoAuthorizationHeader(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]user.User{})
	}, Config{})

	ctx := actorctx.WithSessionID(context.Background(), "sid-empty")
	if _, err := c.ListUsers(ctx); err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("expected no Authorization header, got %q", gotAuth)
	}
}

func TestUnauthorizedClearsSessionAndFiresHook(t *testing.T) {
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, Config{})

	var hooked string
	c.OnUnauthorized(func(ctx context.Context, sid string) { hooked = sid })

	ctx := sessionCtx(t, store, "sid-401", "stale")
	_, err := c.ListAppointments(ctx)
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if hooked != "sid-401" {
		t.Fatalf("expected hook for sid-401, got %q", hooked)
	}
	sess, err := store.Load(context.Background(), "sid-401")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sess != nil {
		t.Fatalf("expected session cleared, got %+v", sess)
	}
}

func TestLogin401IsInvalidCredentialsNotExpiry(t *testing.T) {
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"bad password"}`))
	}, Config{})

	hooked := false
	c.OnUnauthorized(func(ctx context.Context, sid string) { hooked = true })

	ctx := sessionCtx(t, store, "sid-login", "still-valid")
	_, err := c.Login(ctx, "a@b.ng", "nope")
	if !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if hooked {
		t.Fatalf("login 401 must not expire the session")
	}
	if sess, _ := store.Load(context.Background(), "sid-login"); sess == nil {
		t.Fatalf("session should survive a failed login")
	}
}

func TestStatusBuckets(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		verbose bool
		kind    error
		msg     string
	}{
		{"400 canned", 400, `{"message":"name too short"}`, false, apperr.ErrValidation, apperr.MsgValidation},
		{"403 canned", 403, ``, false, apperr.ErrLocked, apperr.MsgLocked},
		{"404 canned", 404, ``, false, apperr.ErrNotFound, apperr.MsgNotFound},
		{"409 canned", 409, `{"error":"dup"}`, false, apperr.ErrDuplicateEmail, apperr.MsgDuplicateEmail},
		{"503 canned", 503, `oops`, false, apperr.ErrServer, apperr.MsgServer},
		{"400 verbose message", 400, `{"message":"name too short"}`, true, apperr.ErrValidation, "name too short"},
		{"409 verbose error string", 409, `{"error":"dup"}`, true, apperr.ErrDuplicateEmail, "dup"},
		{"500 verbose nested", 500, `{"error":{"message":"db down"}}`, true, apperr.ErrServer, "db down"},
		{"500 verbose raw text", 500, `stack trace`, true, apperr.ErrServer, "stack trace"},
		{"418 fallback", 418, ``, false, apperr.ErrValidation, "Request failed: 418"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, Config{ShowBackendErrors: tt.verbose})

			_, err := c.GetOffering(context.Background(), "o1")
			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected kind %v, got %v", tt.kind, err)
			}
			if err.Error() != tt.msg {
				t.Fatalf("expected message %q, got %q", tt.msg, err.Error())
			}
		})
	}
}

func TestNetworkUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	obs := &fakeObserver{}
	c := New(Config{BaseURL: base}, session.NewMemoryStore(), WithObserver(obs))

	_, err := c.ListOrganizations(context.Background())
	if !errors.Is(err, apperr.ErrNetworkUnreachable) {
		t.Fatalf("expected ErrNetworkUnreachable, got %v", err)
	}
	if err.Error() != apperr.MsgNetworkUnreachable {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if len(obs.calls) != 1 || obs.calls[0] != "GET /api/organizations unreachable" {
		t.Fatalf("unexpected observations: %v", obs.calls)
	}
}

func TestRegisterRequiresKind(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		kind    backend.RegisterKind
		wantErr bool
	}{
		{"authenticated", `{"kind":"authenticated","accessToken":"t","user":{"id":"1"},"role":"CUSTOMER"}`, backend.KindAuthenticated, false},
		{"created", `{"kind":"created","user":{"id":"1"},"role":"CUSTOMER"}`, backend.KindCreated, false},
		{"missing kind", `{"accessToken":"t","user":{"id":"1"}}`, "", true},
		{"authenticated without token", `{"kind":"authenticated","user":{"id":"1"}}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/auth/register" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(tt.body))
			}, Config{})

			res, err := c.Register(context.Background(), user.RegisterRequest{Email: "n@x.ng", Password: "secret1"})
			if tt.wantErr {
				if !errors.Is(err, apperr.ErrServer) {
					t.Fatalf("expected ErrServer, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Register: %v", err)
			}
			if res.Kind != tt.kind {
				t.Fatalf("expected kind %q, got %q", tt.kind, res.Kind)
			}
		})
	}
}

func TestCatalogReadsAreCachedUntilMutation(t *testing.T) {
	var gets, posts atomic.Int32
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			gets.Add(1)
			_ = json.NewEncoder(w).Encode([]offering.Offering{{ID: "o1"}})
		case http.MethodPost:
			posts.Add(1)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(offering.Offering{ID: "o7"})
		}
	}, Config{CatalogCacheTTL: time.Minute})

	ctx := sessionCtx(t, store, "sid-org", "tok")
	for i := 0; i < 3; i++ {
		if _, err := c.ListOfferings(ctx); err != nil {
			t.Fatalf("ListOfferings: %v", err)
		}
	}
	if gets.Load() != 1 {
		t.Fatalf("expected 1 upstream GET, got %d", gets.Load())
	}

	if _, err := c.CreateOffering(ctx, offering.Request{Name: "New", OrganizationID: "1"}); err != nil {
		t.Fatalf("CreateOffering: %v", err)
	}
	if _, err := c.ListOfferings(ctx); err != nil {
		t.Fatalf("ListOfferings: %v", err)
	}
	if gets.Load() != 2 || posts.Load() != 1 {
		t.Fatalf("expected cache cleared by mutation, gets=%d posts=%d", gets.Load(), posts.Load())
	}
}

func TestCatalogCacheDisabledWithZeroTTL(t *testing.T) {
	var gets atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gets.Add(1)
		_ = json.NewEncoder(w).Encode([]offering.Offering{})
	}, Config{})

	for i := 0; i < 2; i++ {
		if _, err := c.ListOfferings(context.Background()); err != nil {
			t.Fatalf("ListOfferings: %v", err)
		}
	}
	if gets.Load() != 2 {
		t.Fatalf("expected 2 upstream GETs, got %d", gets.Load())
	}
}

func TestNoContentDelete(t *testing.T) {
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.EscapedPath() != "/api/appointments/a%2F1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}, Config{})

	ctx := sessionCtx(t, store, "sid-del", "tok")
	if err := c.DeleteAppointment(ctx, "a/1"); err != nil {
		t.Fatalf("DeleteAppointment: %v", err)
	}
}
