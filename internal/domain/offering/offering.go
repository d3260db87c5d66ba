package offering

import (
	"errors"

	"github.com/fastservices/gateway/internal/domain/organization"
)

var ErrNegativeMinutes = errors.New("duration and estimated wait time must be non-negative")

type Offering struct {
	ID                string                     `json:"id"`
	Name              string                     `json:"name"`
	Description       string                     `json:"description"`
	EstimatedWaitTime int                        `json:"estimatedWaitTime"`
	Duration          int                        `json:"duration"`
	OrganizationID    string                     `json:"organizationId"`
	Organization      *organization.Organization `json:"organization,omitempty"`
}

// Request is used for both create and full update.
type Request struct {
	Name              string `json:"name" binding:"required,min=2,max=120"`
	Description       string `json:"description" binding:"omitempty,max=1000"`
	EstimatedWaitTime int    `json:"estimatedWaitTime" binding:"gte=0"`
	Duration          int    `json:"duration" binding:"gte=0"`
	OrganizationID    string `json:"organizationId" binding:"required"`
}

func (r Request) Validate() error {
	if r.EstimatedWaitTime < 0 || r.Duration < 0 {
		return ErrNegativeMinutes
	}
	return nil
}
