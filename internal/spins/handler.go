package spins

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prizewheel/backend/internal/middleware"
	"github.com/prizewheel/backend/internal/participants"
	"github.com/prizewheel/backend/pkg/response"
)

// Handler handles spin and selection HTTP endpoints.
type Handler struct {
	engine          *Engine
	repo            *Repository
	participantRepo *participants.Repository
	logger          *zap.Logger
}

// NewHandler creates a spins handler.
func NewHandler(engine *Engine, repo *Repository, participantRepo *participants.Repository, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, repo: repo, participantRepo: participantRepo, logger: logger}
}

// Spin handles POST /sessions/:id/spin (admin only).
func (h *Handler) Spin(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	adminID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	result, err := h.engine.Spin(c.Request.Context(), sessionID, adminID)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoEligibleParticipants):
		response.BadRequest(c, "no participants available to spin: all participants have been selected")
		return
	case errors.Is(err, ErrDuplicateSelection):
		response.Conflict(c, "another spin just selected this participant, spin again")
		return
	case errors.Is(err, ErrSessionNotFound):
		response.NotFound(c, "session not found")
		return
	case errors.Is(err, ErrSessionInactive):
		response.BadRequest(c, "session is no longer active")
		return
	default:
		h.logger.Error("spin failed", zap.Error(err), zap.String("session_id", sessionID.String()))
		response.Internal(c, "spin failed")
		return
	}

	response.OK(c, result)
}

// Eligible handles GET /sessions/:id/participants. Returns active
// participants not yet selected (the remaining wheel).
func (h *Handler) Eligible(c *gin.Context) {
	sessionID, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	pool, err := h.repo.EligiblePool(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.Error("eligible pool failed", zap.Error(err))
		response.Internal(c, "failed to list participants")
		return
	}
	response.OK(c, pool)
}

// Selected handles GET /sessions/:id/selected. Returns the ordered winner
// history, oldest first.
func (h *Handler) Selected(c *gin.Context) {
	sessionID, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	list, err := h.repo.ListSelected(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.Error("list selected failed", zap.Error(err))
		response.Internal(c, "failed to list selected participants")
		return
	}
	response.OK(c, list)
}

// Counts handles GET /sessions/:id/counts.
func (h *Handler) Counts(c *gin.Context) {
	sessionID, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	available, total, selected, err := h.repo.Counts(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.Error("counts failed", zap.Error(err))
		response.Internal(c, "failed to count participants")
		return
	}
	response.OK(c, gin.H{"available": available, "total": total, "selected": selected})
}

// MySession handles GET /me/session (participant only). Returns the
// participant's session snapshot: everyone registered plus the winner
// history, for re-sync after a reconnect.
func (h *Handler) MySession(c *gin.Context) {
	sessionVal, ok := c.Get(middleware.ContextSessionID)
	if !ok {
		response.Forbidden(c, "participant token required")
		return
	}
	sessionID := sessionVal.(uuid.UUID)

	people, err := h.participantRepo.ListActiveBySession(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.Error("list participants failed", zap.Error(err))
		response.Internal(c, "failed to load session")
		return
	}
	selected, err := h.repo.ListSelected(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.Error("list selected failed", zap.Error(err))
		response.Internal(c, "failed to load session")
		return
	}
	response.OK(c, gin.H{
		"session_id":   sessionID,
		"participants": people,
		"selected":     selected,
	})
}

// sessionFromPath parses :id and checks the caller may view the session:
// any admin, or a participant whose token is scoped to it.
func (h *Handler) sessionFromPath(c *gin.Context) (uuid.UUID, bool) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return uuid.Nil, false
	}
	role, _ := c.MustGet(middleware.ContextUserRole).(string)
	if role == "admin" {
		return sessionID, true
	}
	scopeVal, ok := c.Get(middleware.ContextSessionID)
	if !ok || scopeVal.(uuid.UUID) != sessionID {
		response.Forbidden(c, "not a participant of this session")
		return uuid.Nil, false
	}
	return sessionID, true
}
