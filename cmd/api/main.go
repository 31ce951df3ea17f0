package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"flower-casino-backend/internal/config"
	"flower-casino-backend/internal/handlers"
	"flower-casino-backend/internal/middleware"
	"flower-casino-backend/internal/monitoring"
	"flower-casino-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := buildLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	monitoring.Init()

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer redisService.Close()

	jwtService := services.NewJWTService(cfg)

	seedManager, err := services.NewSeedManager(redisService, logger, cfg.SeedRotationInterval)
	if err != nil {
		logger.Fatal("failed to initialize seed manager", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go seedManager.Run(ctx)

	ledger := services.NewLedger(redisService, logger)
	gameEngine := services.NewGameEngine(redisService, ledger, seedManager, logger, cfg.MaxBet, cfg.IdleActionTimeout)

	wsHandler := handlers.NewWebSocketHandler(redisService, logger)
	seedManager.SetBroadcaster(wsHandler)
	gameEngine.SetBroadcaster(wsHandler)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			gameEngine.CleanupStaleGames(10 * time.Minute)
		}
	}()

	authHandler := handlers.NewAuthHandler(jwtService, redisService, logger)
	userHandler := handlers.NewUserHandler(redisService)
	gameHandler := handlers.NewGameHandler(gameEngine, redisService, seedManager)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Service-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Verification is public: anyone can check a revealed seed without an
	// account.
	router.POST("/verify", gameHandler.Verify)
	router.GET("/fairness", gameHandler.GetFairness)
	router.GET("/fairness/epochs", gameHandler.GetEpochs)
	router.GET("/fairness/epochs/:id/rolls", gameHandler.GetEpochRolls)

	auth := router.Group("/auth")
	auth.Use(middleware.ServiceKeyGuard(cfg.ServiceKey))
	{
		auth.POST("/token", authHandler.IssueToken)
	}

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	protected.Use(middleware.RateLimitMiddleware(redisService))
	{
		protected.GET("/me", userHandler.GetCurrentUser)

		protected.GET("/ws", wsHandler.HandleWebSocket)

		games := protected.Group("/games")
		{
			games.POST("/play", gameHandler.Play)
			games.GET("/balance", gameHandler.GetBalance)
			games.POST("/seed", gameHandler.SetClientSeed)
			games.GET("/history", gameHandler.GetGameHistory)
			games.GET("/transactions", gameHandler.GetTransactions)
			games.GET("/verification", gameHandler.GetVerificationData)

			blackjack := games.Group("/blackjack")
			{
				blackjack.POST("/start", gameHandler.StartBlackjack)
				blackjack.POST("/hit", gameHandler.BlackjackHit)
				blackjack.POST("/stand", gameHandler.BlackjackStand)
			}
		}
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	logger.Info("server starting", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

func buildLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
