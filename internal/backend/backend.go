// Package backend defines the FastServices backend contract. The HTTP API
// client and the in-process mock both satisfy Backend.
package backend

import (
	"context"

	"github.com/fastservices/gateway/internal/domain/appointment"
	"github.com/fastservices/gateway/internal/domain/offering"
	"github.com/fastservices/gateway/internal/domain/organization"
	"github.com/fastservices/gateway/internal/domain/queue"
	"github.com/fastservices/gateway/internal/domain/user"
)

type RegisterKind string

const (
	// KindAuthenticated: the backend issued a token, the caller is logged in.
	KindAuthenticated RegisterKind = "authenticated"
	// KindCreated: the account exists but no token was issued.
	KindCreated RegisterKind = "created"
)

func (k RegisterKind) Valid() bool {
	return k == KindAuthenticated || k == KindCreated
}

type AuthResult struct {
	AccessToken string       `json:"accessToken"`
	User        user.Profile `json:"user"`
	Role        string       `json:"role"`
}

type RegisterResult struct {
	Kind        RegisterKind `json:"kind"`
	AccessToken string       `json:"accessToken,omitempty"`
	User        user.Profile `json:"user"`
	Role        string       `json:"role"`
}

type Auth interface {
	Login(ctx context.Context, email, password string) (AuthResult, error)
	Register(ctx context.Context, req user.RegisterRequest) (RegisterResult, error)
	RegisterOrganization(ctx context.Context, req organization.RegisterRequest) (RegisterResult, error)
}

type Users interface {
	ListUsers(ctx context.Context) ([]user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	UpdateUser(ctx context.Context, id string, req user.UpdateRequest) (user.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type Organizations interface {
	ListOrganizations(ctx context.Context) ([]organization.Organization, error)
	GetOrganization(ctx context.Context, id string) (organization.Organization, error)
	DeleteOrganization(ctx context.Context, id string) error
}

type Offerings interface {
	ListOfferings(ctx context.Context) ([]offering.Offering, error)
	GetOffering(ctx context.Context, id string) (offering.Offering, error)
	ListOfferingsByOrganization(ctx context.Context, organizationID string) ([]offering.Offering, error)
	CreateOffering(ctx context.Context, req offering.Request) (offering.Offering, error)
	UpdateOffering(ctx context.Context, id string, req offering.Request) (offering.Offering, error)
	DeleteOffering(ctx context.Context, id string) error
}

type Queues interface {
	ListQueues(ctx context.Context) ([]queue.Queue, error)
	GetQueue(ctx context.Context, id string) (queue.Queue, error)
	ListQueuesByOrganization(ctx context.Context, organizationID string) ([]queue.Queue, error)
	CreateQueue(ctx context.Context, req queue.Request) (queue.Queue, error)
	UpdateQueue(ctx context.Context, id string, req queue.Request) (queue.Queue, error)
	DeleteQueue(ctx context.Context, id string) error
}

type Appointments interface {
	ListAppointments(ctx context.Context) ([]appointment.Appointment, error)
	GetAppointment(ctx context.Context, id string) (appointment.Appointment, error)
	ListAppointmentsByCustomer(ctx context.Context, customerID string) ([]appointment.Appointment, error)
	ListAppointmentsByOffering(ctx context.Context, offeringID string) ([]appointment.Appointment, error)
	ListAppointmentsByQueue(ctx context.Context, queueID string) ([]appointment.Appointment, error)
	CreateAppointment(ctx context.Context, req appointment.CreateRequest) (appointment.Appointment, error)
	UpdateAppointment(ctx context.Context, id string, req appointment.UpdateRequest) (appointment.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
}

type Backend interface {
	Auth
	Users
	Organizations
	Offerings
	Queues
	Appointments
}
