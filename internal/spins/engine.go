package spins

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prizewheel/backend/internal/models"
)

// SessionStore resolves sessions for precondition checks.
type SessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
}

// Ledger is the durable selection history the engine draws against and
// writes to. Implemented by Repository.
type Ledger interface {
	EligiblePool(ctx context.Context, sessionID uuid.UUID) ([]models.ParticipantPublic, error)
	RecordSpin(ctx context.Context, sessionID uuid.UUID, winner models.ParticipantPublic, poolSize int) (*models.Spin, *models.Selection, error)
}

// Broadcaster publishes a session-scoped event to connected clients.
type Broadcaster interface {
	Publish(sessionID uuid.UUID, event string, payload interface{})
}

// Scheduler runs fn once after d. Implemented by realtime.Scheduler.
type Scheduler interface {
	Schedule(d time.Duration, fn func())
}

// Result is what the triggering admin gets back. The broadcast to viewers
// carries the same data but is delayed by the reveal window.
type Result struct {
	Winner    models.ParticipantPublic `json:"winner"`
	SpinID    uuid.UUID                `json:"spin_id"`
	Remaining int                      `json:"remaining"`
}

// WinnerAnnouncement is the spin_result event payload. Timestamp marshals
// as RFC 3339 and records when the selection was written, not when the
// event is delivered.
type WinnerAnnouncement struct {
	Winner    models.ParticipantPublic `json:"winner"`
	SpinID    uuid.UUID                `json:"spin_id"`
	Remaining int                      `json:"remaining"`
	Timestamp time.Time                `json:"timestamp"`
}

// Engine draws one not-yet-selected participant uniformly at random and
// records the pick exactly once. It is safe for concurrent use: the ledger's
// unique constraint serializes racing draws, and a lost race surfaces as
// ErrDuplicateSelection with no partial state.
type Engine struct {
	sessions    SessionStore
	ledger      Ledger
	broadcaster Broadcaster
	scheduler   Scheduler
	revealDelay time.Duration
	logger      *zap.Logger
}

// NewEngine creates a spin engine. revealDelay is how long after recording
// a selection the spin_result broadcast fires.
func NewEngine(sessions SessionStore, ledger Ledger, broadcaster Broadcaster, scheduler Scheduler, revealDelay time.Duration, logger *zap.Logger) *Engine {
	return &Engine{
		sessions:    sessions,
		ledger:      ledger,
		broadcaster: broadcaster,
		scheduler:   scheduler,
		revealDelay: revealDelay,
		logger:      logger,
	}
}

// Spin selects a winner for the admin's session. The eligible pool is
// recomputed from the durable store on every call, so the draw stays correct
// across restarts and multiple admin tabs.
func (e *Engine) Spin(ctx context.Context, sessionID, adminID uuid.UUID) (*Result, error) {
	session, err := e.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil || session.AdminID != adminID {
		return nil, ErrSessionNotFound
	}
	if !session.IsActive {
		return nil, ErrSessionInactive
	}

	pool, err := e.ledger.EligiblePool(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("eligible pool: %w", err)
	}
	if len(pool) == 0 {
		return nil, ErrNoEligibleParticipants
	}

	winner := pool[rand.Intn(len(pool))]

	spin, sel, err := e.ledger.RecordSpin(ctx, sessionID, winner, len(pool))
	if err != nil {
		// Includes ErrDuplicateSelection when a concurrent spin beat us to
		// this participant. The draw result is discarded either way.
		return nil, err
	}

	announcement := WinnerAnnouncement{
		Winner:    winner,
		SpinID:    spin.ID,
		Remaining: len(pool) - 1,
		Timestamp: sel.CreatedAt,
	}
	// Fire-and-forget: the admin's response is not held for the reveal
	// window, and delivery to an empty room is silently dropped.
	e.scheduler.Schedule(e.revealDelay, func() {
		e.broadcaster.Publish(sessionID, "spin_result", announcement)
	})

	e.logger.Info("spin recorded",
		zap.String("session_id", sessionID.String()),
		zap.String("spin_id", spin.ID.String()),
		zap.String("winner_id", winner.ID.String()),
		zap.Int("pool_size", len(pool)),
	)

	return &Result{Winner: winner, SpinID: spin.ID, Remaining: len(pool) - 1}, nil
}
