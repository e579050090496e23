package participants

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prizewheel/backend/internal/auth"
	"github.com/prizewheel/backend/internal/models"
	"github.com/prizewheel/backend/pkg/response"
)

// Broadcaster publishes a session-scoped event to connected clients.
// Satisfied by the realtime hub.
type Broadcaster interface {
	Publish(sessionID uuid.UUID, event string, payload interface{})
}

// SessionStore resolves registration tokens. Implemented by
// sessions.Repository.
type SessionStore interface {
	GetActiveByToken(ctx context.Context, token string) (*models.Session, error)
}

// ParticipantStore is the persistence the registration flow needs.
// Implemented by Repository.
type ParticipantStore interface {
	Create(ctx context.Context, p *models.Participant) error
	GetActiveByEmail(ctx context.Context, sessionID uuid.UUID, email string) (*models.Participant, error)
}

// RegisterRequest is the body for POST /auth/register (public).
type RegisterRequest struct {
	SessionToken string `json:"session_token" binding:"required"`
	Name         string `json:"name" binding:"required,min=2,max=255"`
	MemberID     string `json:"member_id" binding:"required,min=3,max=100"`
	Email        string `json:"email" binding:"required,email"`
	Team         string `json:"team"`
	Phone        string `json:"phone"`
}

// RegisterResponse is the registration response with a participant JWT.
type RegisterResponse struct {
	Token       string             `json:"token"`
	Participant models.Participant `json:"participant"`
	Message     string             `json:"message,omitempty"`
}

// Handler handles participant HTTP endpoints.
type Handler struct {
	repo        ParticipantStore
	sessionRepo SessionStore
	jwt         *auth.JWTService
	broadcaster Broadcaster
	logger      *zap.Logger
}

// NewHandler creates a participants handler.
func NewHandler(repo ParticipantStore, sessionRepo SessionStore, jwt *auth.JWTService, broadcaster Broadcaster, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, sessionRepo: sessionRepo, jwt: jwt, broadcaster: broadcaster, logger: logger}
}

// Register handles POST /auth/register. Re-registering with an email already
// active in the session is treated as "welcome back": the existing row is
// returned with a fresh token and no event is broadcast. A duplicate member
// id is rejected.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	session, err := h.sessionRepo.GetActiveByToken(c.Request.Context(), req.SessionToken)
	if err != nil {
		h.logger.Error("session token lookup failed", zap.Error(err))
		response.Internal(c, "registration failed")
		return
	}
	if session == nil {
		response.BadRequest(c, "invalid or expired session")
		return
	}

	existing, err := h.repo.GetActiveByEmail(c.Request.Context(), session.ID, req.Email)
	if err != nil {
		h.logger.Error("participant lookup failed", zap.Error(err))
		response.Internal(c, "registration failed")
		return
	}
	if existing != nil {
		token, err := h.jwt.GenerateParticipant(existing.ID, existing.Email, session.ID)
		if err != nil {
			response.Internal(c, "failed to generate token")
			return
		}
		response.OK(c, RegisterResponse{
			Token:       token,
			Participant: *existing,
			Message:     "Welcome back! You were already registered for this session.",
		})
		return
	}

	p := &models.Participant{
		SessionID: session.ID,
		Name:      req.Name,
		MemberID:  req.MemberID,
		Team:      req.Team,
		Email:     req.Email,
		Phone:     req.Phone,
	}
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		if errors.Is(err, ErrDuplicateMember) {
			response.Conflict(c, "this member id is already registered for this session")
			return
		}
		h.logger.Error("create participant failed", zap.Error(err), zap.String("session_id", session.ID.String()))
		response.Internal(c, "registration failed")
		return
	}

	token, err := h.jwt.GenerateParticipant(p.ID, p.Email, session.ID)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	h.broadcaster.Publish(session.ID, "participant_joined", p.ToPublic())

	response.Created(c, RegisterResponse{Token: token, Participant: *p})
}
