package auth

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prizewheel/backend/internal/models"
	"github.com/prizewheel/backend/pkg/response"
	"github.com/prizewheel/backend/pkg/utils"
)

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string             `json:"token"`
	Admin models.AdminPublic `json:"admin"`
}

// Handler handles admin auth HTTP endpoints.
type Handler struct {
	repo   *Repository
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, jwt *JWTService, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, jwt: jwt, logger: logger}
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	admin, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.Error("admin lookup failed", zap.Error(err))
		response.Internal(c, "login failed")
		return
	}
	if admin == nil || !utils.CheckPassword(req.Password, admin.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.GenerateAdmin(admin.ID, admin.Email)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.OK(c, TokenResponse{Token: token, Admin: admin.ToPublic()})
}

// EnsureAdmin seeds the operator account from config on first boot.
// No-op when the email is unset or the account already exists.
func EnsureAdmin(ctx context.Context, repo *Repository, email, password, name string, logger *zap.Logger) error {
	if email == "" || password == "" {
		return nil
	}
	existing, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	admin, err := repo.Create(ctx, email, hash, name)
	if err != nil {
		return err
	}
	logger.Info("seeded admin account", zap.String("email", admin.Email))
	return nil
}
