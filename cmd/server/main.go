package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/dataplane/internal/featureflags"
	"github.com/yourorg/dataplane/internal/handler"
	"github.com/yourorg/dataplane/internal/infrastructure/logger"
	"github.com/yourorg/dataplane/internal/infrastructure/redis"
	"github.com/yourorg/dataplane/internal/observability/metrics"
	"github.com/yourorg/dataplane/internal/observability/tracing"
	"github.com/yourorg/dataplane/internal/repository"
	"github.com/yourorg/dataplane/internal/security"
	"github.com/yourorg/dataplane/internal/security/audit"
	"github.com/yourorg/dataplane/internal/security/auth"
	"github.com/yourorg/dataplane/internal/security/middleware"
	"github.com/yourorg/dataplane/internal/service"
	"github.com/yourorg/dataplane/internal/worker"
	"github.com/yourorg/dataplane/pkg/config"
	"github.com/yourorg/dataplane/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting dataplane server", slog.String("environment", cfg.Environment))

	// 3. Initialize tracing (no-op unless an OTLP endpoint is configured)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, log, "dataplane", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Connect to Postgres, retrying until it is reachable
	pool, err := database.ConnectWithRetry(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 5. Initialize Redis (optional: stats caching degrades gracefully)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, stats cache disabled", slog.String("error", err.Error()))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// 6. Initialize repositories
	db := pool.GetDB()
	userRepo := repository.NewPostgresUserRepository(db, log)
	tenantRepo := repository.NewPostgresTenantRepository(db, log)
	schemaRepo := repository.NewPostgresSchemaRepository(db, log)

	// 7. Initialize security components
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "dataplane")
	policy := security.NewPolicy(log)
	auditLogger := audit.NewLogger(log)

	// 8. Initialize services
	authService := service.NewAuthService(userRepo, tokenManager, policy, auditLogger, log)
	ingestService := service.NewIngestService(schemaRepo, policy, auditLogger, log)
	statsService := service.NewStatsService(tenantRepo, userRepo, schemaRepo, policy, redisClient, log)
	trainingService := service.NewTrainingService(cfg.MLServiceURL, policy, log)

	// Seed the root account so a fresh deployment is immediately usable.
	if err := authService.EnsureRootUser(cfg.RootEmail, cfg.RootPassword); err != nil {
		log.Error("failed to seed root user", slog.String("error", err.Error()))
	}

	// 9. Initialize handlers
	loginHandler := handler.NewLoginHandler(authService, log)
	usersHandler := handler.NewUsersHandler(authService, log)
	clientsHandler := handler.NewClientsHandler(tenantRepo, policy, auditLogger, log)
	uploadHandler := handler.NewUploadHandler(ingestService, log)
	statsHandler := handler.NewStatsHandler(statsService, log)
	trainHandler := handler.NewTrainHandler(trainingService, log)

	// 10. Setup HTTP routes
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/greeting", handler.Greeting)
	mux.Handle("POST /api/auth/login", loginHandler)
	mux.HandleFunc("GET /api/public/clients/search", clientsHandler.PublicSearch)
	mux.HandleFunc("GET /api/clients/search", clientsHandler.Search)
	mux.HandleFunc("POST /api/users", usersHandler.Create)
	mux.HandleFunc("POST /api/clients", clientsHandler.Create)
	mux.HandleFunc("GET /api/company/users", usersHandler.CompanyUsers)
	mux.HandleFunc("GET /api/stats", statsHandler.Dashboard)
	mux.HandleFunc("GET /api/analytics", statsHandler.Analytics)
	mux.Handle("POST /api/ml/train", trainHandler)
	mux.HandleFunc("GET /api/users/me", usersHandler.Me)
	mux.Handle("POST /api/upload", uploadHandler)
	mux.Handle("/metrics", promhttp.Handler())

	// Health and readiness endpoints (no auth required)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Health(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("database not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	// CORS middleware honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain middleware: request ID -> tracing -> metrics -> content type -> auth -> CORS
	rootHandler := withRequestID(
		otelhttp.NewHandler(
			metrics.HTTPMetricsMiddleware(
				middleware.ValidateContentType(log)(
					middleware.PrincipalMiddleware(tokenManager, log)(handlerWithCORS),
				),
			),
			"dataplane",
		),
		log,
	)

	// 11. Start contract sweeper in background
	if featureflags.Enabled(featureflags.ContractSweeper) {
		sweeper := worker.NewContractSweeper(
			tenantRepo,
			log,
			time.Duration(cfg.SweeperIntervalMinutes)*time.Minute,
		)
		go sweeper.Start(ctx)
	}

	// 12. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.String("ml_service", cfg.MLServiceURL),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop sweeper
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
