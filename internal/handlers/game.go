package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"flower-casino-backend/internal/models"
	"flower-casino-backend/internal/services"
)

type GameHandler struct {
	gameEngine   *services.GameEngine
	redisService *services.RedisService
	seedManager  *services.SeedManager
}

func NewGameHandler(gameEngine *services.GameEngine, redisService *services.RedisService, seedManager *services.SeedManager) *GameHandler {
	return &GameHandler{
		gameEngine:   gameEngine,
		redisService: redisService,
		seedManager:  seedManager,
	}
}

// Play resolves a one-shot wager: 54x2, over/under, hot/cold, flower poker
// or dice duel.
func (h *GameHandler) Play(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.PlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	result, err := h.gameEngine.Play(userID, &req)
	if err != nil {
		status, message := wagerErrorStatus(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

type blackjackStartRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

type blackjackMoveRequest struct {
	GameID string `json:"game_id" binding:"required"`
}

func (h *GameHandler) StartBlackjack(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req blackjackStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	session, err := h.gameEngine.StartBlackjack(userID, req.Amount)
	if err != nil {
		status, message := wagerErrorStatus(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"game":    blackjackView(session),
	})
}

func (h *GameHandler) BlackjackHit(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req blackjackMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	session, result, err := h.gameEngine.Hit(userID, req.GameID)
	if err != nil {
		status, message := wagerErrorStatus(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	resp := gin.H{
		"success": true,
		"game":    blackjackView(session),
	}
	if result != nil {
		resp["result"] = result
	}
	c.JSON(http.StatusOK, resp)
}

func (h *GameHandler) BlackjackStand(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req blackjackMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	result, err := h.gameEngine.Stand(userID, req.GameID)
	if err != nil {
		status, message := wagerErrorStatus(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

func blackjackView(session *models.GameSession) gin.H {
	total := 0.0
	for _, r := range session.Rolls {
		total += r
	}
	return gin.H{
		"id":               session.ID,
		"game_type":        session.GameType,
		"bet_amount":       session.BetAmount,
		"rolls":            session.Rolls,
		"nonces":           session.Nonces,
		"total":            total,
		"status":           session.Status,
		"server_seed_hash": session.ServerSeedHash,
		"client_seed":      session.ClientSeed,
		"created_at":       session.CreatedAt,
	}
}

func (h *GameHandler) GetBalance(c *gin.Context) {
	userID := c.GetInt64("user_id")

	wallet, err := h.redisService.GetWallet(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get wallet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"balance":       wallet.Balance,
		"total_wagered": wallet.TotalWagered,
		"total_won":     wallet.TotalWon,
		"client_seed":   wallet.ClientSeed,
	})
}

type clientSeedRequest struct {
	ClientSeed string `json:"client_seed" binding:"required,min=1,max=64"`
}

// SetClientSeed lets the player contribute their half of the roll input.
// Takes effect from their next wager.
func (h *GameHandler) SetClientSeed(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req clientSeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	wallet, err := h.redisService.SetClientSeed(userID, req.ClientSeed)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set client seed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"client_seed": wallet.ClientSeed,
	})
}

func (h *GameHandler) GetGameHistory(c *gin.Context) {
	userID := c.GetInt64("user_id")
	limit := queryLimit(c, 20, 100)

	games, err := h.redisService.GetGameHistory(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get game history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"games": games,
		"count": len(games),
	})
}

func (h *GameHandler) GetTransactions(c *gin.Context) {
	userID := c.GetInt64("user_id")
	limit := queryLimit(c, 20, 100)

	transactions, err := h.redisService.GetUserTransactions(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// GetFairness returns the active commitment and the nonce the next roll
// will use. Public; carries no player state.
func (h *GameHandler) GetFairness(c *gin.Context) {
	commitment := h.seedManager.Commitment()

	c.JSON(http.StatusOK, gin.H{
		"epoch_id":         commitment.EpochID,
		"server_seed_hash": commitment.ServerSeedHash,
		"next_nonce":       h.seedManager.CurrentNonce(),
	})
}

// GetVerificationData returns everything a player needs before betting: the
// active commitment, the global next nonce and their own client seed.
func (h *GameHandler) GetVerificationData(c *gin.Context) {
	userID := c.GetInt64("user_id")

	wallet, err := h.redisService.GetWallet(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get wallet"})
		return
	}

	commitment := h.seedManager.Commitment()
	c.JSON(http.StatusOK, gin.H{
		"epoch_id":         commitment.EpochID,
		"server_seed_hash": commitment.ServerSeedHash,
		"next_nonce":       h.seedManager.CurrentNonce(),
		"client_seed":      wallet.ClientSeed,
	})
}

// GetEpochs lists revealed epochs, newest first. Their seeds are public; any
// roll made against them can be re-derived by anyone.
func (h *GameHandler) GetEpochs(c *gin.Context) {
	limit := queryLimit(c, 10, 50)

	epochs, err := h.redisService.ListRevealedEpochs(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list epochs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"epochs": epochs,
		"count":  len(epochs),
	})
}

// GetEpochRolls returns the recorded roll history of one epoch.
func (h *GameHandler) GetEpochRolls(c *gin.Context) {
	epochID := c.Param("id")
	limit := queryLimit(c, 50, 500)

	rolls, err := h.redisService.GetEpochRolls(epochID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get rolls"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"epoch_id": epochID,
		"rolls":    rolls,
		"count":    len(rolls),
	})
}

// Verify re-derives a roll from a revealed seed, client seed and nonce. Pure
// computation over the submitted inputs; no auth required.
func (h *GameHandler) Verify(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	resp := gin.H{
		"server_seed_hash": services.HashServerSeed(req.ServerSeed),
	}

	if req.ServerSeedHash != "" {
		resp["hash_matches"] = services.VerifyCommitment(req.ServerSeed, req.ServerSeedHash)
	}

	if req.ClientSeed != "" && req.Nonce != nil {
		roll := services.Roll(req.ServerSeed, req.ClientSeed, *req.Nonce)
		resp["roll"] = roll
		resp["die_face"] = services.DieFace(roll)
		resp["flower"] = services.ClassifyFlower(roll)
	}

	c.JSON(http.StatusOK, resp)
}

func wagerErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrInsufficientFunds):
		return http.StatusPaymentRequired, "Insufficient funds"
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrUnknownGame),
		errors.Is(err, models.ErrInvalidCall):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrGameNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, models.ErrNotYourGame):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, models.ErrGameFinished):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func queryLimit(c *gin.Context, def, max int64) int64 {
	raw := c.DefaultQuery("limit", strconv.FormatInt(def, 10))
	limit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || limit < 1 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
