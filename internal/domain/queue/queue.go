package queue

import "github.com/fastservices/gateway/internal/domain/organization"

type Queue struct {
	ID             string                     `json:"id"`
	Name           string                     `json:"name"`
	Description    string                     `json:"description"`
	OrganizationID string                     `json:"organizationId"`
	Organization   *organization.Organization `json:"organization,omitempty"`
}

type Request struct {
	Name           string `json:"name" binding:"required,min=2,max=120"`
	Description    string `json:"description" binding:"omitempty,max=1000"`
	OrganizationID string `json:"organizationId" binding:"required"`
}
