package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/gembaops/fives-audit/internal/application"
	appevals "github.com/gembaops/fives-audit/internal/application/evaluations"
	"github.com/gembaops/fives-audit/internal/config"
	"github.com/gembaops/fives-audit/internal/domain/assessment"
	"github.com/gembaops/fives-audit/internal/domain/evalerrors"
	"github.com/gembaops/fives-audit/internal/domain/imaging"
	openaiClient "github.com/gembaops/fives-audit/internal/infra/ai/openai"
	mysqlp "github.com/gembaops/fives-audit/internal/infra/db/mysql"
	postgresp "github.com/gembaops/fives-audit/internal/infra/db/postgres"
	"github.com/gembaops/fives-audit/internal/infra/httpserver"
	minioStore "github.com/gembaops/fives-audit/internal/infra/storage"
	"github.com/gembaops/fives-audit/internal/middleware"
)

func main() {
	// optional .env for local development
	_ = godotenv.Load()

	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect database, mysql or postgres by config
	var (
		db       *sql.DB
		repo     assessment.Repository
		failures evalerrors.Repository
	)
	switch cfg.Database.Driver {
	case "", "mysql":
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		repo = mysqlp.NewAnalysisRepository(db)
		failures = mysqlp.NewEvalErrorRepository(db)
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		repo = postgresp.NewAnalysisRepository(db)
		failures = postgresp.NewEvalErrorRepository(db)
	default:
		log.Fatalf("unsupported database driver: %s", cfg.Database.Driver)
	}
	defer db.Close()

	// init minio
	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		log.Fatalf("minio init error: %v", err)
	}

	// init vision client
	assessor := openaiClient.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model)

	// init service
	svc := &appevals.Service{
		Normalizer: imaging.NewNormalizer(cfg.Evaluation.MaxImageEdge),
		Assessor:   assessor,
		Repo:       repo,
		Artifacts:  store,
		Failures:   failures,
		Clock:      application.SystemClock{},
	}

	// init router
	limiter := middleware.NewRateLimiter(30, 1)
	mux := chi.NewRouter()
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	mux.Use(limiter.RateLimitMiddleware)

	mux.Get("/health", middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
		"storage":  &middleware.PingHealthChecker{Target: store},
	}))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Mount("/", httpserver.NewRouter(svc))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
