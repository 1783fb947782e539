// Command meetingspace-api boots the HTTP/WebSocket server: RepoStore,
// SessionRegistry's Redis mirror, AuthBridge, SummaryOrchestrator,
// ExportRenderer/Reaper, and every route SPEC_FULL.md §6/§6.1 names.
//
// Grounded on the teacher's cmd/main.go bootstrap sequence (env-var config
// loading via getEnv/getEnvInt, DB/Redis init-then-defer-Close, CORS
// middleware, signal-based graceful shutdown), stripped of the Kubernetes
// client, plugin runtime, and event-bus wiring no component in this domain
// needs (see DESIGN.md).
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/meetingspace/api/internal/auth"
	"github.com/meetingspace/api/internal/broker"
	"github.com/meetingspace/api/internal/cache"
	"github.com/meetingspace/api/internal/clock"
	"github.com/meetingspace/api/internal/db"
	"github.com/meetingspace/api/internal/export"
	"github.com/meetingspace/api/internal/handlers"
	"github.com/meetingspace/api/internal/llm"
	"github.com/meetingspace/api/internal/logger"
	"github.com/meetingspace/api/internal/middleware"
	"github.com/meetingspace/api/internal/session"
	"github.com/meetingspace/api/internal/sessionstore"
)

func main() {
	logger.Initialize(getEnv("LOG_LEVEL", "info"), getEnv("GIN_MODE", "release") != "release")

	port := getEnv("API_PORT", "8000")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "meetingspace")
	dbPassword := getEnv("DB_PASSWORD", "meetingspace")
	dbName := getEnv("DB_NAME", "meetingspace")
	dbSSLMode := getEnv("DB_SSL_MODE", "disable")

	cacheEnabled := getEnv("CACHE_ENABLED", "true") == "true"
	redisHost := getEnv("REDIS_HOST", "localhost")
	redisPort := getEnv("REDIS_PORT", "6379")
	redisPassword := getEnv("REDIS_PASSWORD", "")

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}
	openAIKey := getEnv("OPENAI_SECRET_KEY", "")
	exportRoot := getEnv("EXPORT_ROOT", "./exports")
	postMeetingURLBase := getEnv("POST_MEETING_URL_BASE", "/meetings")
	exportRetentionHours := getEnvInt("EXPORT_RETENTION_HOURS", 24)

	logger.Log.Info().Msg("connecting to database")
	database, err := db.NewDatabase(db.Config{
		Host: dbHost, Port: dbPort, User: dbUser, Password: dbPassword, DBName: dbName, SSLMode: dbSSLMode,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close()

	logger.Log.Info().Msg("running database migrations")
	if err := database.Migrate(); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	logger.Log.Info().Msg("initializing redis cache")
	redisCache, err := cache.NewCache(cache.Config{
		Host: redisHost, Port: redisPort, Password: redisPassword, DB: 0, Enabled: cacheEnabled,
	})
	if err != nil {
		logger.Log.Warn().Err(err).Msg("redis cache unavailable, continuing without it")
		redisCache, _ = cache.NewCache(cache.Config{Enabled: false})
	}
	defer redisCache.Close()

	location, err := time.LoadLocation("America/Toronto")
	if err != nil {
		location = time.UTC
	}

	registry := sessionstore.New(redisCache)
	msgBroker := broker.New()
	authConfig := auth.Config{SecretKey: jwtSecret, TokenDuration: 24 * time.Hour}
	authBridge := auth.New(database, authConfig)
	orchestrator := llm.New(database, openAIKey, location)

	if err := os.MkdirAll(exportRoot, 0o755); err != nil {
		log.Fatalf("failed to create export root %s: %v", exportRoot, err)
	}
	renderer := export.New(exportRoot, "/download")
	reaper := export.NewReaper(exportRoot, time.Duration(exportRetentionHours)*time.Hour)
	if err := reaper.Start(); err != nil {
		log.Fatalf("failed to start export reaper: %v", err)
	}
	defer reaper.Stop()

	hostDeps := session.HostDeps{
		Repo: database, Auth: authBridge, Broker: msgBroker, Registry: registry,
		Clock: clock.Real, PostMeetingURLBase: postMeetingURLBase,
	}
	participantDeps := session.ParticipantDeps{Repo: database, Broker: msgBroker, Registry: registry}

	meetingHandler := &handlers.MeetingHandler{Repo: database}
	authHandler := &handlers.AuthHandler{Bridge: authBridge}
	summaryHandler := &handlers.SummaryHandler{Orchestrator: orchestrator}
	exportHandler := &handlers.ExportHandler{Repo: database, Renderer: renderer}
	wsHandler := &handlers.SessionWSHandler{HostDeps: hostDeps, ParticipantDeps: participantDeps}

	gin.SetMode(getEnv("GIN_MODE", gin.ReleaseMode))
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Gzip(middleware.DefaultCompression))
	router.Use(middleware.Timeout(middleware.DefaultTimeoutConfig()))
	router.Use(middleware.RequestSizeLimiter(middleware.MaxRequestBodySize))
	router.Use(corsMiddleware())

	ipLimiter := middleware.NewRateLimiter(getEnvFloat("RATE_LIMIT_RPS", 10), getEnvInt("RATE_LIMIT_BURST", 20))
	router.Use(ipLimiter.Middleware())

	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	handlers.RegisterRoutes(router, authBridge, meetingHandler, authHandler, summaryHandler, exportHandler, wsHandler)

	srv := &http.Server{Addr: ":" + port, Handler: router}

	go func() {
		logger.Log.Info().Str("port", port).Msg("meetingspace-api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info().Msg("shutting down")
	shutdownTimeout := 10 * time.Second
	if v := getEnv("SHUTDOWN_TIMEOUT", ""); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			shutdownTimeout = time.Duration(secs) * time.Second
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", getEnv("CORS_ALLOWED_ORIGIN", "*"))
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
