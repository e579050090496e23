// Package main runs the prize wheel HTTP server with WebSocket fan-out and
// graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/prizewheel/backend/config"
	"github.com/prizewheel/backend/internal/auth"
	"github.com/prizewheel/backend/internal/middleware"
	"github.com/prizewheel/backend/internal/participants"
	"github.com/prizewheel/backend/internal/realtime"
	"github.com/prizewheel/backend/internal/sessions"
	"github.com/prizewheel/backend/internal/spins"
	"github.com/prizewheel/backend/pkg/database"
	"github.com/prizewheel/backend/pkg/redis"
	"github.com/prizewheel/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	scheduler := realtime.NewScheduler(logger)
	defer scheduler.Shutdown()

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)
	if err := auth.EnsureAdmin(ctx, authRepo, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name, logger); err != nil {
		logger.Fatal("seed admin", zap.Error(err))
	}

	// Sessions
	sessionRepo := sessions.NewRepository(pool)
	sessionHandler := sessions.NewHandler(sessionRepo, cfg.App.FrontendURL, logger)

	// Participants
	participantRepo := participants.NewRepository(pool)
	participantHandler := participants.NewHandler(participantRepo, sessionRepo, jwtService, hub, logger)

	// Spins
	spinRepo := spins.NewRepository(pool)
	spinEngine := spins.NewEngine(
		sessionRepo,
		spinRepo,
		hub,
		scheduler,
		time.Duration(cfg.App.RevealDelaySec)*time.Second,
		logger,
	)
	spinHandler := spins.NewHandler(spinEngine, spinRepo, participantRepo, logger)

	wsValidate := func(token string) (uuid.UUID, string, uuid.UUID, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return uuid.Nil, "", uuid.Nil, err
		}
		return claims.UserID, claims.Role, claims.SessionID, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public
	router.POST("/auth/login", authHandler.Login)
	router.POST("/auth/register", participantHandler.Register)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Sessions (admin only)
		api.POST("/sessions", middleware.RequireRole("admin"), sessionHandler.Create)
		api.GET("/sessions", middleware.RequireRole("admin"), sessionHandler.List)
		api.DELETE("/sessions/:id", middleware.RequireRole("admin"), sessionHandler.Delete)

		// Spins and session views
		api.POST("/sessions/:id/spin", middleware.RequireRole("admin"), spinHandler.Spin)
		api.GET("/sessions/:id/participants", spinHandler.Eligible)
		api.GET("/sessions/:id/selected", spinHandler.Selected)
		api.GET("/sessions/:id/counts", spinHandler.Counts)

		// Participant self view
		api.GET("/me/session", middleware.RequireRole("participant"), spinHandler.MySession)
	}

	// WebSocket (token in query; no Authorization header on upgrade)
	router.GET("/ws", realtime.ServeWs(hub, logger, wsValidate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	scheduler.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
