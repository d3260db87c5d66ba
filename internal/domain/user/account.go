package user

import "time"

// Account is a directory record as the mock backend keeps it.
type Account struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string // always lowercased
	Phone        string
	PasswordHash string
	Role         string // backend role string
	CreatedAt    time.Time
}

func (a Account) Profile() Profile {
	return Profile{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Phone:     a.Phone,
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (a Account) User() User {
	return User{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Phone:     a.Phone,
		Roles:     []Role{RoleFromBackend(a.Role)},
		CreatedAt: a.CreatedAt.UTC(),
	}
}
