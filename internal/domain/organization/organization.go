package organization

import "time"

type Organization struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	ContactEmail string    `json:"contactEmail"`
	ContactPhone string    `json:"contactPhone"`
	Code         string    `json:"code"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RegisterRequest is an organization self-registration; it also creates the
// organization's admin account keyed by ContactEmail.
type RegisterRequest struct {
	Name         string `json:"name" binding:"required,min=2,max=120"`
	Address      string `json:"address" binding:"required,max=240"`
	ContactEmail string `json:"contactEmail" binding:"required,email"`
	ContactPhone string `json:"contactPhone" binding:"required,max=32"`
	Password     string `json:"password" binding:"required,min=6"`
}
