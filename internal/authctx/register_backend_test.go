package authctx_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fastservices/gateway/internal/apiclient"
	"github.com/fastservices/gateway/internal/app"
	"github.com/fastservices/gateway/internal/authctx"
	"github.com/fastservices/gateway/internal/config"
	"github.com/fastservices/gateway/internal/domain/user"
	"github.com/fastservices/gateway/internal/session"
)

// The backend answers register with a created account and no token; the
// gateway runs with its default real-backend settings (no secrets).
func TestCreatedRegisterAgainstBackendAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/register" {
			http.NotFound(w, r)
			return
		}
		var req user.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"kind": "created",
			"user": map[string]string{"id": "u-42", "firstName": req.FirstName, "email": req.Email},
		})
	}))
	defer srv.Close()

	cfg := config.Config{UseMock: false, SessionStore: "memory", APIBaseURL: srv.URL}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := session.NewMemoryStore()
	client := apiclient.New(apiclient.Config{BaseURL: cfg.APIBaseURL}, store)
	m := authctx.NewManager(store, client, app.Tokens(cfg, log), authctx.ManagerConfig{Logger: log})
	client.OnUnauthorized(m.HandleUnauthorized)
	t.Cleanup(m.Close)

	c := m.For("sid-real")
	role, err := c.Register(context.Background(), user.RegisterRequest{
		FirstName: "Tola", LastName: "Ade", Email: "Tola@Example.com", Password: "secret1", Role: "STAFF",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if role != user.RoleStaff {
		t.Fatalf("role: got %s, want STAFF", role)
	}

	st := c.State()
	if !st.Authenticated || st.User == nil || st.User.ID != "u-42" || st.User.Email != "tola@example.com" {
		t.Fatalf("unexpected state: %+v", st)
	}
	if sess, _ := store.Load(context.Background(), "sid-real"); sess == nil || sess.Token == "" {
		t.Fatalf("session not persisted: %+v", sess)
	}
}
