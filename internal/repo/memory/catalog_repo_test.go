package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fastservices/gateway/internal/apperr"
	"github.com/fastservices/gateway/internal/domain/appointment"
	"github.com/fastservices/gateway/internal/domain/offering"
	"github.com/fastservices/gateway/internal/domain/organization"
	"github.com/fastservices/gateway/internal/domain/queue"
)

func seededRepo(now time.Time) *CatalogRepo {
	r := NewCatalogRepo()
	r.now = func() time.Time { return now }
	r.Seed(
		[]organization.Organization{{ID: "1", Name: "City General Hospital", Code: "CGH"}},
		[]offering.Offering{{ID: "o1", Name: "General Consultation", OrganizationID: "1", EstimatedWaitTime: 45, Duration: 15}},
		[]queue.Queue{{ID: "q1", Name: "Outpatients", OrganizationID: "1"}},
	)
	return r
}

func TestCatalogRepo_CreateOfferingValidation(t *testing.T) {
	ctx := context.Background()
	r := seededRepo(time.Now())

	tests := []struct {
		name    string
		req     offering.Request
		wantErr error
	}{
		{"ok", offering.Request{Name: "Lab Test", OrganizationID: "1", Duration: 10}, nil},
		{"negative duration", offering.Request{Name: "Lab Test", OrganizationID: "1", Duration: -1}, apperr.ErrValidation},
		{"negative wait", offering.Request{Name: "Lab Test", OrganizationID: "1", EstimatedWaitTime: -5}, apperr.ErrValidation},
		{"unknown org", offering.Request{Name: "Lab Test", OrganizationID: "nope"}, apperr.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.CreateOffering(ctx, tt.req)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCatalogRepo_AppointmentLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	r := seededRepo(now)

	_, err := r.CreateAppointment(ctx, appointment.CreateRequest{UserID: "u1", OfferingID: "o1", AppointmentDate: now})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("booking at now must be rejected, got %v", err)
	}

	a, err := r.CreateAppointment(ctx, appointment.CreateRequest{
		UserID: "u1", OfferingID: "o1", QueueID: "q1", AppointmentDate: now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Status != appointment.StatusScheduled {
		t.Fatalf("new appointment status = %s", a.Status)
	}
	if a.Offering == nil || a.Offering.ID != "o1" || a.Queue == nil {
		t.Fatalf("expected offering and queue expanded, got %+v", a)
	}

	// any status can be set, even backwards
	for _, s := range []appointment.Status{appointment.StatusCompleted, appointment.StatusScheduled, appointment.StatusCancelled} {
		got, err := r.UpdateAppointment(ctx, a.ID, appointment.UpdateRequest{Status: s})
		if err != nil {
			t.Fatalf("update to %s: %v", s, err)
		}
		if got.Status != s {
			t.Fatalf("status = %s, want %s", got.Status, s)
		}
	}

	mine, _ := r.ListAppointmentsByCustomer(ctx, "u1")
	if len(mine) != 1 {
		t.Fatalf("expected 1 appointment for u1, got %d", len(mine))
	}
	byQueue, _ := r.ListAppointmentsByQueue(ctx, "q1")
	if len(byQueue) != 1 {
		t.Fatalf("expected 1 appointment in q1, got %d", len(byQueue))
	}

	if err := r.DeleteAppointment(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := r.GetAppointment(ctx, a.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
