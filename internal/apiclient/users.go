package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fastservices/gateway/internal/domain/user"
)

func (c *Client) ListUsers(ctx context.Context) ([]user.User, error) {
	var out []user.User
	err := c.do(ctx, call{method: http.MethodGet, route: "/api/users", path: "/api/users", out: &out, authed: true})
	return out, err
}

func (c *Client) GetUser(ctx context.Context, id string) (user.User, error) {
	var out user.User
	err := c.do(ctx, call{method: http.MethodGet, route: "/api/users/:id", path: "/api/users/" + url.PathEscape(id), out: &out, authed: true})
	return out, err
}

func (c *Client) UpdateUser(ctx context.Context, id string, req user.UpdateRequest) (user.User, error) {
	var out user.User
	err := c.do(ctx, call{method: http.MethodPut, route: "/api/users/:id", path: "/api/users/" + url.PathEscape(id), body: req, out: &out, authed: true})
	return out, err
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, route: "/api/users/:id", path: "/api/users/" + url.PathEscape(id), authed: true})
}
