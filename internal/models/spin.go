package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SpinResult is the snapshot captured at the moment of a draw and stored on
// the Spin row. PoolSize is the eligible-pool size the winner was drawn from.
type SpinResult struct {
	Winner    ParticipantPublic `json:"winner"`
	PoolSize  int               `json:"pool_size"`
	Timestamp time.Time         `json:"timestamp"`
}

// Spin is one execution of the random-selection operation. Immutable.
type Spin struct {
	ID        uuid.UUID       `json:"id"`
	SessionID uuid.UUID       `json:"session_id"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

// Selection records that a participant was the outcome of a spin. The
// (session, participant) pair is unique across all selections of a session;
// ordering by CreatedAt ascending is the canonical winner ranking.
type Selection struct {
	ID            uuid.UUID `json:"id"`
	SpinID        uuid.UUID `json:"spin_id"`
	SessionID     uuid.UUID `json:"session_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// SelectedParticipant is a ledger row joined with the winner's public fields,
// as returned by the selected-list endpoint.
type SelectedParticipant struct {
	ID            uuid.UUID `json:"id"`
	SpinID        uuid.UUID `json:"spin_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	Name          string    `json:"name"`
	MemberID      string    `json:"member_id"`
	Team          string    `json:"team,omitempty"`
	SelectedAt    time.Time `json:"selected_at"`
}
