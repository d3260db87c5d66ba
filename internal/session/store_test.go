package session_test

import (
	"context"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/fastservices/gateway/internal/domain/user"
	"github.com/fastservices/gateway/internal/session"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func sampleUser() user.User {
	return user.User{
		ID:        "mock-customer",
		FirstName: "Ngozi",
		LastName:  "Nwosu",
		Email:     "customer@fastservices.ng",
		Phone:     "+2348027654321",
		Roles:     []user.Role{user.RoleCustomer},
		CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

// exerciseStore runs the contract every Store implementation must satisfy.
func exerciseStore(t *testing.T, store session.Store) {
	t.Helper()
	ctx := context.Background()
	sid := uuid.NewString()
	scope := session.NewScope(store, sid)

	got, err := scope.Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil session before save, got %+v", got)
	}

	u := sampleUser()
	if err := scope.Save(ctx, "tok-1", u); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err = scope.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := &session.Session{Token: "tok-1", User: u}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}

	other, err := store.Load(ctx, uuid.NewString())
	if err != nil || other != nil {
		t.Fatalf("sessions must be isolated, got %+v err=%v", other, err)
	}

	if err := scope.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, err = scope.Load(ctx)
	if err != nil {
		t.Fatalf("load after clear: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil after clear, got %+v", got)
	}

	if err := store.Save(ctx, "", "tok", u); err == nil {
		t.Fatal("expected error for empty session id")
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, session.NewMemoryStore())
}

func TestMemoryStore_ClearRemovesBothKeys(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()

	if err := store.Save(ctx, "a", "tok", sampleUser()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Len())
	}
	if err := store.Clear(ctx, "a"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected 0 sessions, got %d", store.Len())
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	store := session.NewRedisStore(rdb, time.Minute)
	if err := store.Ping(context.Background()); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}

	exerciseStore(t, store)
}
