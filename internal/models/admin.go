package models

import (
	"time"

	"github.com/google/uuid"
)

// Role distinguishes the two caller kinds the API knows about.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleParticipant Role = "participant"
)

// Admin is an operator account that can create sessions and trigger spins.
type Admin struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminPublic is Admin without the password hash.
type AdminPublic struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

// ToPublic converts Admin to AdminPublic.
func (a *Admin) ToPublic() AdminPublic {
	return AdminPublic{ID: a.ID, Email: a.Email, Name: a.Name}
}
