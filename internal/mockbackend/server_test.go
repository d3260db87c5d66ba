package mockbackend

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fastservices/gateway/internal/backend"
	"github.com/fastservices/gateway/internal/domain/appointment"
	"github.com/gin-gonic/gin"
)

func newTestServer(t *testing.T) (*gin.Engine, *Backend) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b, _, tokens := newTestBackend(t)
	r := gin.New()
	NewServer(b, tokens).Routes(r)
	return r, b
}

func doJSON(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestServerLoginStatuses(t *testing.T) {
	r, _ := newTestServer(t)

	tests := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{"ok", map[string]string{"email": "staff@fastservices.ng", "password": "staff123"}, http.StatusOK},
		{"wrong password", map[string]string{"email": "staff@fastservices.ng", "password": "nope"}, http.StatusUnauthorized},
		{"unknown", map[string]string{"email": "who@fastservices.ng", "password": "nope"}, http.StatusNotFound},
		{"invalid body", map[string]string{"email": "not-an-email"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/api/auth/login", "", tt.body)
			if w.Code != tt.status {
				t.Fatalf("got %d want %d body=%s", w.Code, tt.status, w.Body.String())
			}
		})
	}
}

func TestServerProtectedRoutesNeedBearer(t *testing.T) {
	r, _ := newTestServer(t)

	if w := doJSON(r, http.MethodGet, "/api/users", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: got %d", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/api/users", "garbage", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: got %d", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/api/offerings", "", nil); w.Code != http.StatusOK {
		t.Fatalf("public catalog: got %d", w.Code)
	}
}

func TestServerRegisterAndBook(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(r, http.MethodPost, "/api/auth/register", "", map[string]string{
		"firstName": "Ada", "lastName": "Obi", "email": "ada@example.com", "password": "secret1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: got %d body=%s", w.Code, w.Body.String())
	}
	var res backend.RegisterResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Kind != backend.KindAuthenticated {
		t.Fatalf("kind: %q", res.Kind)
	}

	w = doJSON(r, http.MethodPost, "/api/appointments", res.AccessToken, map[string]any{
		"offeringId":      "o1",
		"appointmentDate": time.Now().Add(48 * time.Hour).UTC(),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("book: got %d body=%s", w.Code, w.Body.String())
	}
	var a appointment.Appointment
	if err := json.Unmarshal(w.Body.Bytes(), &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.UserID != res.User.ID || a.Status != appointment.StatusScheduled {
		t.Fatalf("unexpected appointment: %+v", a)
	}

	w = doJSON(r, http.MethodGet, "/api/appointments/customer/"+res.User.ID, res.AccessToken, nil)
	var mine []appointment.Appointment
	_ = json.Unmarshal(w.Body.Bytes(), &mine)
	if w.Code != http.StatusOK || len(mine) != 1 {
		t.Fatalf("list mine: %d %s", w.Code, w.Body.String())
	}
}

func TestServerDuplicateRegisterIsConflict(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(r, http.MethodPost, "/api/auth/register", "", map[string]string{
		"firstName": "Dup", "lastName": "Org", "email": "org@fastservices.ng", "password": "secret1",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("got %d body=%s", w.Code, w.Body.String())
	}
}
