package apiclient

import (
	"context"
	"net/http"

	"github.com/fastservices/gateway/internal/apperr"
	"github.com/fastservices/gateway/internal/backend"
	"github.com/fastservices/gateway/internal/domain/organization"
	"github.com/fastservices/gateway/internal/domain/user"
)

var _ backend.Backend = (*Client)(nil)

func (c *Client) Login(ctx context.Context, email, password string) (backend.AuthResult, error) {
	var out backend.AuthResult
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/api/auth/login",
		path:   "/api/auth/login",
		body:   user.LoginRequest{Email: email, Password: password},
		out:    &out,
	})
	return out, err
}

func (c *Client) Register(ctx context.Context, req user.RegisterRequest) (backend.RegisterResult, error) {
	return c.register(ctx, "/api/auth/register", req)
}

func (c *Client) RegisterOrganization(ctx context.Context, req organization.RegisterRequest) (backend.RegisterResult, error) {
	res, err := c.register(ctx, "/api/organizations/register", req)
	if err == nil {
		c.catalog.clear()
	}
	return res, err
}

func (c *Client) register(ctx context.Context, path string, body any) (backend.RegisterResult, error) {
	var out backend.RegisterResult
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  path,
		path:   path,
		body:   body,
		out:    &out,
	})
	if err != nil {
		return backend.RegisterResult{}, err
	}
	if !out.Kind.Valid() {
		return backend.RegisterResult{}, apperr.New(apperr.ErrServer, "Registration response did not say whether a session was issued.")
	}
	if out.Kind == backend.KindAuthenticated && out.AccessToken == "" {
		return backend.RegisterResult{}, apperr.New(apperr.ErrServer, "Registration response is missing its access token.")
	}
	return out, nil
}
