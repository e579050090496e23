package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is one registration event with its own isolated participant pool.
// Sessions are soft-deleted: IsActive flips to false, rows are never removed.
type Session struct {
	ID        uuid.UUID `json:"id"`
	AdminID   uuid.UUID `json:"admin_id"`
	Token     string    `json:"token"`
	PublicURL string    `json:"public_url"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
