package sessions

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prizewheel/backend/internal/middleware"
	"github.com/prizewheel/backend/pkg/response"
)

// Handler handles session HTTP endpoints (admin only).
type Handler struct {
	repo        *Repository
	frontendURL string
	logger      *zap.Logger
}

// NewHandler creates a sessions handler. frontendURL is the base for
// public registration links.
func NewHandler(repo *Repository, frontendURL string, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, frontendURL: frontendURL, logger: logger}
}

// Create handles POST /sessions. Issues a fresh registration token and the
// public URL participants open to register (a QR code rendering of the URL
// is the client's job).
func (h *Handler) Create(c *gin.Context) {
	adminID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	token, err := generateSessionToken()
	if err != nil {
		response.Internal(c, "failed to generate session token")
		return
	}
	publicURL := h.frontendURL + "/register/" + token

	session, err := h.repo.Create(c.Request.Context(), adminID, token, publicURL)
	if err != nil {
		h.logger.Error("create session failed", zap.Error(err))
		response.Internal(c, "failed to create session")
		return
	}
	response.Created(c, session)
}

// List handles GET /sessions. Returns the caller's active sessions.
func (h *Handler) List(c *gin.Context) {
	adminID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	list, err := h.repo.ListActiveByAdmin(c.Request.Context(), adminID)
	if err != nil {
		h.logger.Error("list sessions failed", zap.Error(err))
		response.Internal(c, "failed to list sessions")
		return
	}
	response.OK(c, list)
}

// Delete handles DELETE /sessions/:id. Soft-deletes after an ownership check.
func (h *Handler) Delete(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	adminID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	ok, err := h.repo.Deactivate(c.Request.Context(), sessionID, adminID)
	if err != nil {
		h.logger.Error("deactivate session failed", zap.Error(err), zap.String("session_id", sessionID.String()))
		response.Internal(c, "failed to delete session")
		return
	}
	if !ok {
		response.NotFound(c, "session not found")
		return
	}
	response.OK(c, gin.H{"message": "session deleted"})
}

func generateSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
