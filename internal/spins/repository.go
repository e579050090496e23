package spins

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prizewheel/backend/internal/models"
)

// Repository is the selection ledger: the durable, ordered, immutable
// history of who was picked per session. The unique constraint on
// (session_id, participant_id) in the selections table is what enforces the
// at-most-once rule under concurrent spins; everything here defers to it.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a spins repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EligiblePool returns the active participants of the session that do not
// yet appear in its selections. Always reads durable state; never cached.
func (r *Repository) EligiblePool(ctx context.Context, sessionID uuid.UUID) ([]models.ParticipantPublic, error) {
	const q = `SELECT p.id, p.name, p.member_id, COALESCE(p.team,''), p.created_at
		FROM participants p
		WHERE p.session_id = $1
		  AND p.is_active
		  AND NOT EXISTS (
			SELECT 1 FROM selections s
			WHERE s.session_id = $1 AND s.participant_id = p.id
		  )
		ORDER BY p.created_at DESC`
	rows, err := r.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var pool []models.ParticipantPublic
	for rows.Next() {
		var p models.ParticipantPublic
		if err := rows.Scan(&p.ID, &p.Name, &p.MemberID, &p.Team, &p.CreatedAt); err != nil {
			return nil, err
		}
		pool = append(pool, p)
	}
	return pool, rows.Err()
}

// RecordSpin writes the spin snapshot and its single selection in one
// transaction. If a concurrent spin already selected the participant, the
// unique constraint fires, the transaction rolls back whole (no orphan spin
// row survives) and ErrDuplicateSelection is returned.
func (r *Repository) RecordSpin(ctx context.Context, sessionID uuid.UUID, winner models.ParticipantPublic, poolSize int) (*models.Spin, *models.Selection, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	spin := &models.Spin{SessionID: sessionID}
	err = tx.QueryRow(ctx,
		`INSERT INTO spins (session_id, result) VALUES ($1, '{}'::jsonb) RETURNING id, created_at`,
		sessionID,
	).Scan(&spin.ID, &spin.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("insert spin: %w", err)
	}

	sel := &models.Selection{SpinID: spin.ID, SessionID: sessionID, ParticipantID: winner.ID}
	err = tx.QueryRow(ctx,
		`INSERT INTO selections (spin_id, session_id, participant_id)
		 VALUES ($1, $2, $3) RETURNING id, created_at`,
		spin.ID, sessionID, winner.ID,
	).Scan(&sel.ID, &sel.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, ErrDuplicateSelection
		}
		return nil, nil, fmt.Errorf("insert selection: %w", err)
	}

	// The snapshot timestamp is the selection's, so spin and selection agree.
	result, err := json.Marshal(models.SpinResult{
		Winner:    winner,
		PoolSize:  poolSize,
		Timestamp: sel.CreatedAt,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("marshal result: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE spins SET result = $1 WHERE id = $2`, result, spin.ID); err != nil {
		return nil, nil, fmt.Errorf("store result: %w", err)
	}
	spin.Result = result

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}
	return spin, sel, nil
}

// ListSelected returns the session's selections joined with winner fields,
// ordered by selection time ascending (winner #1 first).
func (r *Repository) ListSelected(ctx context.Context, sessionID uuid.UUID) ([]models.SelectedParticipant, error) {
	const q = `SELECT s.id, s.spin_id, s.participant_id, p.name, p.member_id, COALESCE(p.team,''), s.created_at
		FROM selections s
		JOIN participants p ON p.id = s.participant_id
		WHERE s.session_id = $1
		ORDER BY s.created_at ASC`
	rows, err := r.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.SelectedParticipant
	for rows.Next() {
		var sp models.SelectedParticipant
		if err := rows.Scan(&sp.ID, &sp.SpinID, &sp.ParticipantID, &sp.Name, &sp.MemberID, &sp.Team, &sp.SelectedAt); err != nil {
			return nil, err
		}
		list = append(list, sp)
	}
	return list, rows.Err()
}

// Counts returns the available/total/selected participant counts for a
// session, for the admin dashboard.
func (r *Repository) Counts(ctx context.Context, sessionID uuid.UUID) (available, total, selected int, err error) {
	const q = `SELECT
		COUNT(*) FILTER (WHERE NOT EXISTS (
			SELECT 1 FROM selections s WHERE s.session_id = $1 AND s.participant_id = p.id
		)),
		COUNT(*),
		(SELECT COUNT(*) FROM selections s WHERE s.session_id = $1)
		FROM participants p
		WHERE p.session_id = $1 AND p.is_active`
	err = r.pool.QueryRow(ctx, q, sessionID).Scan(&available, &total, &selected)
	return available, total, selected, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
