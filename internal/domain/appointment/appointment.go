package appointment

import (
	"errors"
	"time"

	"github.com/fastservices/gateway/internal/domain/offering"
	"github.com/fastservices/gateway/internal/domain/queue"
	"github.com/fastservices/gateway/internal/domain/user"
)

type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

var AllStatuses = []Status{StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled}

var ErrPastDate = errors.New("appointment date must be in the future")

// Active reports whether the appointment still belongs in an upcoming list.
func (s Status) Active() bool {
	return s == StatusScheduled || s == StatusInProgress
}

type Appointment struct {
	ID              string             `json:"id"`
	UserID          string             `json:"userId"`
	OfferingID      string             `json:"offeringId"`
	QueueID         string             `json:"queueId"`
	AppointmentDate time.Time          `json:"appointmentDate"`
	Status          Status             `json:"status"`
	User            *user.User         `json:"user,omitempty"`
	Offering        *offering.Offering `json:"offering,omitempty"`
	Queue           *queue.Queue       `json:"queue,omitempty"`
}

type CreateRequest struct {
	UserID          string    `json:"userId"`
	OfferingID      string    `json:"offeringId" binding:"required"`
	QueueID         string    `json:"queueId"`
	AppointmentDate time.Time `json:"appointmentDate" binding:"required"`
}

// ValidateAt rejects bookings at or before now.
func (r CreateRequest) ValidateAt(now time.Time) error {
	if !r.AppointmentDate.After(now) {
		return ErrPastDate
	}
	return nil
}

// UpdateRequest allows any status to be set; there is no enforced state machine.
type UpdateRequest struct {
	QueueID         string     `json:"queueId,omitempty"`
	AppointmentDate *time.Time `json:"appointmentDate,omitempty"`
	Status          Status     `json:"status,omitempty" binding:"omitempty,oneof=SCHEDULED IN_PROGRESS COMPLETED CANCELLED"`
}

// Split separates appointments into active future ones and the rest.
func Split(items []Appointment, now time.Time) (upcoming, history []Appointment) {
	upcoming = make([]Appointment, 0, len(items))
	history = make([]Appointment, 0, len(items))
	for _, a := range items {
		if a.Status.Active() && !a.AppointmentDate.Before(now) {
			upcoming = append(upcoming, a)
			continue
		}
		history = append(history, a)
	}
	return upcoming, history
}
