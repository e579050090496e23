package participants

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prizewheel/backend/internal/models"
)

// ErrDuplicateMember means the member id is already registered in the
// session (partial unique index on active rows).
var ErrDuplicateMember = errors.New("member id already registered for this session")

// Repository handles participant persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a participants repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a participant. The session/member and session/email unique
// indexes are the final arbiter; a violation surfaces as ErrDuplicateMember.
func (r *Repository) Create(ctx context.Context, p *models.Participant) error {
	const q = `INSERT INTO participants (session_id, name, member_id, team, email, phone)
		VALUES ($1, $2, $3, NULLIF($4,''), $5, NULLIF($6,''))
		RETURNING id, is_active, created_at`
	err := r.pool.QueryRow(ctx, q, p.SessionID, p.Name, p.MemberID, p.Team, p.Email, p.Phone).
		Scan(&p.ID, &p.IsActive, &p.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateMember
	}
	return err
}

// GetActiveByEmail returns the active participant with this email in the
// session, or nil.
func (r *Repository) GetActiveByEmail(ctx context.Context, sessionID uuid.UUID, email string) (*models.Participant, error) {
	const q = `SELECT id, session_id, name, member_id, COALESCE(team,''), email, COALESCE(phone,''), is_active, created_at
		FROM participants WHERE session_id = $1 AND email = $2 AND is_active`
	return r.getOne(ctx, q, sessionID, email)
}

// GetActiveByMemberID returns the active participant with this member id in
// the session, or nil.
func (r *Repository) GetActiveByMemberID(ctx context.Context, sessionID uuid.UUID, memberID string) (*models.Participant, error) {
	const q = `SELECT id, session_id, name, member_id, COALESCE(team,''), email, COALESCE(phone,''), is_active, created_at
		FROM participants WHERE session_id = $1 AND member_id = $2 AND is_active`
	return r.getOne(ctx, q, sessionID, memberID)
}

func (r *Repository) getOne(ctx context.Context, q string, args ...interface{}) (*models.Participant, error) {
	var p models.Participant
	err := r.pool.QueryRow(ctx, q, args...).
		Scan(&p.ID, &p.SessionID, &p.Name, &p.MemberID, &p.Team, &p.Email, &p.Phone, &p.IsActive, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListActiveBySession returns all active participants of a session, newest
// first (the registration feed order).
func (r *Repository) ListActiveBySession(ctx context.Context, sessionID uuid.UUID) ([]models.ParticipantPublic, error) {
	const q = `SELECT id, name, member_id, COALESCE(team,''), created_at
		FROM participants WHERE session_id = $1 AND is_active ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.ParticipantPublic
	for rows.Next() {
		var p models.ParticipantPublic
		if err := rows.Scan(&p.ID, &p.Name, &p.MemberID, &p.Team, &p.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Deactivate logically deletes a participant.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE participants SET is_active = FALSE WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
