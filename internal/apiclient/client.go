// Package apiclient is the single choke point for calls to the FastServices
// REST backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fastservices/gateway/internal/actorctx"
	"github.com/fastservices/gateway/internal/apperr"
	"github.com/fastservices/gateway/internal/session"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const maxErrorBody = 64 << 10

// UnauthorizedHook runs after a 401 cleared the session's stored state.
type UnauthorizedHook func(ctx context.Context, sid string)

// UpstreamObserver records one outbound call.
type UpstreamObserver interface {
	ObserveUpstream(method, route, status string, d time.Duration)
}

type Config struct {
	BaseURL           string
	ShowBackendErrors bool
	CatalogCacheTTL   time.Duration
}

type Client struct {
	baseURL           string
	http              *http.Client
	sessions          session.Store
	showBackendErrors bool
	onUnauthorized    UnauthorizedHook
	observer          UpstreamObserver
	tracer            trace.Tracer
	log               *slog.Logger
	catalog           *catalogCache
}

type Option func(*Client)

// WithHTTPClient replaces the default client. The default has no timeout:
// requests end when the caller's context does.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithObserver(o UpstreamObserver) Option {
	return func(c *Client) { c.observer = o }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(cfg Config, sessions session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:           strings.TrimRight(cfg.BaseURL, "/"),
		http:              &http.Client{},
		sessions:          sessions,
		showBackendErrors: cfg.ShowBackendErrors,
		tracer:            otel.Tracer("github.com/fastservices/gateway/internal/apiclient"),
		log:               slog.Default(),
		catalog:           newCatalogCache(cfg.CatalogCacheTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnUnauthorized installs the hook fired when an authenticated call gets a 401.
func (c *Client) OnUnauthorized(h UnauthorizedHook) {
	c.onUnauthorized = h
}

type call struct {
	method string
	route  string // path template, used for metrics and spans
	path   string
	body   any
	out    any
	authed bool
}

func (c *Client) do(ctx context.Context, in call) (err error) {
	ctx, span := c.tracer.Start(ctx, "upstream "+in.method+" "+in.route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", in.method),
			attribute.String("http.route", in.route),
		),
	)
	start := time.Now()
	status := "error"
	defer func() {
		if c.observer != nil {
			c.observer.ObserveUpstream(in.method, in.route, status, time.Since(start))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, apperr.Code(err))
		}
		span.End()
	}()

	var body io.Reader
	if in.body != nil {
		raw, err := json.Marshal(in.body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, in.method, c.baseURL+in.path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	sid, hasSID := actorctx.SessionIDFrom(ctx)
	if in.authed && hasSID {
		sess, err := c.sessions.Load(ctx, sid)
		if err != nil {
			return fmt.Errorf("load session token: %w", err)
		}
		if sess != nil && sess.Token != "" {
			req.Header.Set("Authorization", "Bearer "+sess.Token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		status = "unreachable"
		c.log.WarnContext(ctx, "backend unreachable", "method", in.method, "route", in.route, "err", err)
		return apperr.NetworkUnreachable(err)
	}
	defer resp.Body.Close()

	status = strconv.Itoa(resp.StatusCode)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode == http.StatusUnauthorized && in.authed {
		c.expireSession(ctx, sid, hasSID)
		return apperr.Unauthorized()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFromResponse(resp)
	}

	if in.out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(in.out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.New(apperr.ErrServer, "Could not read the server response.")
	}
	return nil
}

// expireSession is the unconditional side effect of a 401 on an
// authenticated call.
func (c *Client) expireSession(ctx context.Context, sid string, hasSID bool) {
	if !hasSID {
		return
	}
	// the caller's context may be about to end; clearing must still happen
	clearCtx := context.WithoutCancel(ctx)
	if err := c.sessions.Clear(clearCtx, sid); err != nil {
		c.log.ErrorContext(ctx, "clear expired session failed", "err", err)
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized(clearCtx, sid)
	}
}

func (c *Client) errorFromResponse(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	text := strings.TrimSpace(string(raw))
	kind := apperr.KindFromStatus(resp.StatusCode)
	fallback := "Request failed: " + strconv.Itoa(resp.StatusCode)

	if c.showBackendErrors {
		msg := backendMessage(raw)
		if msg == "" {
			msg = text
		}
		if msg == "" {
			msg = fallback
		}
		return &apperr.Error{Kind: kind, Message: msg, Status: apperr.StatusOf(kind)}
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusConflict,
		resp.StatusCode >= 500:
		return apperr.New(kind, apperr.CannedMessage(kind))
	}

	if text == "" {
		text = fallback
	}
	return &apperr.Error{Kind: kind, Message: text, Status: apperr.StatusOf(kind)}
}

// backendMessage pulls "message" or "error" out of a JSON error body. The
// error field may itself be an object carrying a message.
func backendMessage(raw []byte) string {
	var body struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	if len(body.Error) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(body.Error, &s); err == nil {
		return s
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body.Error, &nested); err == nil {
		return nested.Message
	}
	return ""
}
