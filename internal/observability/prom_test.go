package observability

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{pgx.ErrNoRows, "no_rows"},
		{fmt.Errorf("list: %w", context.DeadlineExceeded), "timeout"},
		{&pgconn.PgError{Code: "23505"}, "unique_violation"},
		{&pgconn.PgError{Code: "22001"}, "pg_22001"},
		{errors.New("failed to connect: connection refused"), "connection"},
		{errors.New("boom"), "unknown"},
	}
	for _, tt := range tests {
		if got := classifyDBErr(tt.err); got != tt.want {
			t.Errorf("classifyDBErr(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestObservers(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	p.ObserveUpstream("GET", "/api/offerings", "200", 10*time.Millisecond)
	p.ObserveUpstream("GET", "/api/offerings", "unreachable", time.Millisecond)
	p.ObserveAuth("login", "success")
	p.ObserveGuard("redirect_home")
	_ = p.ObserveDB("mock_users.list", func() error { return pgx.ErrNoRows })

	if got := testutil.ToFloat64(p.UpstreamTotal.WithLabelValues("GET", "/api/offerings", "unreachable")); got != 1 {
		t.Fatalf("unreachable count: %v", got)
	}
	if got := testutil.ToFloat64(p.AuthOutcomes.WithLabelValues("login", "success")); got != 1 {
		t.Fatalf("auth count: %v", got)
	}
	if got := testutil.ToFloat64(p.GuardResults.WithLabelValues("redirect_home")); got != 1 {
		t.Fatalf("guard count: %v", got)
	}
	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("mock_users.list", "no_rows")); got != 1 {
		t.Fatalf("db error count: %v", got)
	}
}
