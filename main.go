package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"

	config "github.com/Knocktern/The-Quiet-Game/internal/config"
	constants "github.com/Knocktern/The-Quiet-Game/internal/constants"
	game "github.com/Knocktern/The-Quiet-Game/internal/game"
	handlers "github.com/Knocktern/The-Quiet-Game/internal/handlers"
	hub "github.com/Knocktern/The-Quiet-Game/internal/hub"
	store "github.com/Knocktern/The-Quiet-Game/internal/store"
	util "github.com/Knocktern/The-Quiet-Game/internal/util"
	wordbank "github.com/Knocktern/The-Quiet-Game/internal/wordbank"
)

// App carries process-wide state shared by middleware and the cleanup
// routines.
type App struct {
	cfg          *config.Config
	registry     *game.Registry
	limiterMutex sync.RWMutex
	limiterMap   map[string]*rateLimiterWithTime
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	util.LogInfo("Starting The Quiet Game in %s mode", map[bool]string{true: "production", false: "development"}[cfg.IsProduction])

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	util.LogInfo("Word bank ready: %d easy, %d medium, %d hard words",
		wordbank.PoolSize(constants.DifficultyEasy),
		wordbank.PoolSize(constants.DifficultyMedium),
		wordbank.PoolSize(constants.DifficultyHard))

	recordStore, err := store.Open(cfg.DatabasePath)
	if err != nil {
		util.LogFatal("Failed to open record store: %v", err)
	}
	defer recordStore.Close()

	registry := game.NewRegistry(cfg.RoundTime)
	connHub := hub.NewHub()

	app := &App{
		cfg:        cfg,
		registry:   registry,
		limiterMap: make(map[string]*rateLimiterWithTime),
	}

	httpHandler := handlers.NewHTTPHandler(cfg, registry, recordStore)
	socketHandler := handlers.NewSocketHandler(cfg, registry, connHub)

	router := gin.Default()

	router.Use(requestIDMiddleware())
	router.Use(securityHeadersMiddleware())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedPaths([]string{"/ws"})))
	router.Use(cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	}))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		util.LogWarn("Failed to set trusted proxies: %v", err)
	}

	router.GET("/ws", socketHandler.ServeWS)

	router.POST("/game/create", app.rateLimitMiddleware(), httpHandler.CreateRoomHandler)
	router.GET("/game/validate/:code", httpHandler.ValidateRoomHandler)
	router.GET("/game/words", httpHandler.WordPoolHandler)

	router.POST("/api/call/create", app.rateLimitMiddleware(), httpHandler.CreateCallHandler)
	router.POST("/api/call/:code/end", httpHandler.EndCallHandler)

	router.POST("/api/session/create", app.rateLimitMiddleware(), httpHandler.CreateSessionHandler)
	router.GET("/api/session/:code", httpHandler.GetSessionHandler)
	router.POST("/api/session/:code/guess", app.rateLimitMiddleware(), httpHandler.GuessSessionHandler)

	router.GET("/healthz", httpHandler.HealthzHandler)

	app.startCleanupRoutines()

	startServer(cfg, router)
}

func (app *App) startCleanupRoutines() {
	go func() {
		ticker := time.NewTicker(app.cfg.CleanupInterval)
		defer ticker.Stop()

		for range ticker.C {
			app.registry.CleanupIdle(app.cfg.RoomTTL)
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			app.cleanupStaleRateLimiters()
		}
	}()

	util.LogInfo("Started cleanup routines for game sessions and rate limiters")
}

func startServer(cfg *config.Config, router *gin.Engine) {
	// No read/write deadlines on the server itself; websocket
	// connections are long-lived.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		util.LogInfo("Shutdown signal received, shutting down server gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			util.LogWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	util.LogInfo("Server starting on http://localhost:%s", cfg.Port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		util.LogFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	util.LogInfo("Server shutdown complete")
}
