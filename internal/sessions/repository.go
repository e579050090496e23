package sessions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prizewheel/backend/internal/models"
)

// Repository handles registration-session persistence. Sessions are only
// ever soft-deleted.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a sessions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a session with its registration token and public URL.
func (r *Repository) Create(ctx context.Context, adminID uuid.UUID, token, publicURL string) (*models.Session, error) {
	const q = `INSERT INTO sessions (admin_id, token, public_url)
		VALUES ($1, $2, $3)
		RETURNING id, admin_id, token, public_url, is_active, created_at`
	var s models.Session
	err := r.pool.QueryRow(ctx, q, adminID, token, publicURL).
		Scan(&s.ID, &s.AdminID, &s.Token, &s.PublicURL, &s.IsActive, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID returns a session by ID, or nil if none exists.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	const q = `SELECT id, admin_id, token, public_url, is_active, created_at FROM sessions WHERE id = $1`
	var s models.Session
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&s.ID, &s.AdminID, &s.Token, &s.PublicURL, &s.IsActive, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetActiveByToken returns the active session carrying the registration
// token, or nil — used by the public registration flow.
func (r *Repository) GetActiveByToken(ctx context.Context, token string) (*models.Session, error) {
	const q = `SELECT id, admin_id, token, public_url, is_active, created_at
		FROM sessions WHERE token = $1 AND is_active`
	var s models.Session
	err := r.pool.QueryRow(ctx, q, token).
		Scan(&s.ID, &s.AdminID, &s.Token, &s.PublicURL, &s.IsActive, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListActiveByAdmin returns the admin's active sessions, newest first.
func (r *Repository) ListActiveByAdmin(ctx context.Context, adminID uuid.UUID) ([]models.Session, error) {
	const q = `SELECT id, admin_id, token, public_url, is_active, created_at
		FROM sessions WHERE admin_id = $1 AND is_active ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, adminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.AdminID, &s.Token, &s.PublicURL, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Deactivate soft-deletes a session owned by the admin. Returns false when
// no matching row exists.
func (r *Repository) Deactivate(ctx context.Context, id, adminID uuid.UUID) (bool, error) {
	const q = `UPDATE sessions SET is_active = FALSE WHERE id = $1 AND admin_id = $2`
	tag, err := r.pool.Exec(ctx, q, id, adminID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
