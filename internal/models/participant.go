package models

import (
	"time"

	"github.com/google/uuid"
)

// Participant is a person registered under exactly one session.
// MemberID is unique among active participants of the same session.
// Rows are never mutated after creation except the active flag.
type Participant struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Name      string    `json:"name"`
	MemberID  string    `json:"member_id"`
	Team      string    `json:"team,omitempty"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ParticipantPublic is the subset of Participant broadcast to other clients
// and embedded in winner announcements.
type ParticipantPublic struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	MemberID  string    `json:"member_id"`
	Team      string    `json:"team,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPublic strips contact fields for broadcast payloads.
func (p *Participant) ToPublic() ParticipantPublic {
	return ParticipantPublic{
		ID:        p.ID,
		Name:      p.Name,
		MemberID:  p.MemberID,
		Team:      p.Team,
		CreatedAt: p.CreatedAt,
	}
}
