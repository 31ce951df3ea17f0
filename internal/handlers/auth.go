package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"flower-casino-backend/internal/services"
)

// AuthHandler mints player tokens for the trusted frontend service. The
// endpoint sits behind the service-key guard; players never call it
// directly.
type AuthHandler struct {
	jwtService   *services.JWTService
	redisService *services.RedisService
	log          *zap.Logger
}

func NewAuthHandler(jwtService *services.JWTService, redisService *services.RedisService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		jwtService:   jwtService,
		redisService: redisService,
		log:          log,
	}
}

type tokenRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	// Ensure the wallet exists so the first authenticated call sees the
	// starting balance.
	wallet, err := h.redisService.GetWallet(req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to provision wallet"})
		return
	}

	sessionID := uuid.New().String()
	token, err := h.jwtService.GenerateToken(req.UserID, sessionID)
	if err != nil {
		h.log.Error("failed to sign token", zap.Int64("user", req.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"session_id": sessionID,
		"balance":    wallet.Balance,
	})
}
