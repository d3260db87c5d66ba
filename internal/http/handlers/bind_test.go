package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fastservices/gateway/internal/domain/offering"
	"github.com/fastservices/gateway/internal/domain/user"
	"github.com/fastservices/gateway/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

type bindErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			JSON   string                `json:"json"`
			Field  string                `json:"field"`
			Reason string                `json:"reason"`
			Fields []handlers.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func bindRouter[T any]() *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/bind", func(ctx *gin.Context) {
		var req T
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})
	return r
}

func postBind(t *testing.T, r http.Handler, body string) (*httptest.ResponseRecorder, bindErrorResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/bind", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp bindErrorResponse
	if w.Code != http.StatusCreated {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
		}
	}
	return w, resp
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	r := bindRouter[user.RegisterRequest]()

	w, resp := postBind(t, r, `{"firstName":"Ada","email":"not-an-email","password":"123"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}
	if resp.Error.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}

	wantRules := map[string]string{
		"lastName": "required",
		"email":    "email",
		"password": "min",
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Error.Details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Error.Details.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}
}

func TestBindJSON_NegativeMinutesRejected(t *testing.T) {
	r := bindRouter[offering.Request]()

	w, resp := postBind(t, r, `{"name":"Consult","organizationId":"1","duration":-5}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d body=%s", w.Code, w.Body.String())
	}
	if len(resp.Error.Details.Fields) != 1 {
		t.Fatalf("expected one field error, got %+v", resp.Error.Details.Fields)
	}
	fe := resp.Error.Details.Fields[0]
	if fe.Field != "duration" || fe.Rule != "gte" || fe.Message != "must be greater than or equal to 0" {
		t.Fatalf("unexpected field error: %+v", fe)
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	r := bindRouter[offering.Request]()

	w, resp := postBind(t, r, `{"name":"Consult","organizationId":"1","duration":"ten"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	if resp.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Error.Details.JSON)
	}
	if resp.Error.Details.Field != "duration" {
		t.Fatalf("expected detail field to be duration, got %q", resp.Error.Details.Field)
	}
	if len(resp.Error.Details.Fields) == 0 {
		t.Fatalf("expected at least one field error in details.fields")
	}

	fieldErr := resp.Error.Details.Fields[0]
	if fieldErr.Rule != "type" || fieldErr.Message == "" {
		t.Fatalf("unexpected field error: %+v", fieldErr)
	}
}

func TestBindJSON_SyntaxError(t *testing.T) {
	r := bindRouter[user.LoginRequest]()

	w, resp := postBind(t, r, `{"email":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d", w.Code)
	}
	if resp.Error.Details.JSON == "" && resp.Error.Details.Reason == "" {
		t.Fatalf("expected syntax details, got %s", w.Body.String())
	}
}
