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

	"github.com/talentlens/talentlens/internal/application"
	appanalysis "github.com/talentlens/talentlens/internal/application/analysis"
	appanalytics "github.com/talentlens/talentlens/internal/application/analytics"
	appsessions "github.com/talentlens/talentlens/internal/application/sessions"
	appuploads "github.com/talentlens/talentlens/internal/application/uploads"
	"github.com/talentlens/talentlens/internal/config"
	domanalysis "github.com/talentlens/talentlens/internal/domain/analysis"
	"github.com/talentlens/talentlens/internal/domain/erasure"
	openaiClient "github.com/talentlens/talentlens/internal/infra/ai/openai"
	mysqlp "github.com/talentlens/talentlens/internal/infra/db/mysql"
	postgresp "github.com/talentlens/talentlens/internal/infra/db/postgres"
	"github.com/talentlens/talentlens/internal/infra/extract"
	"github.com/talentlens/talentlens/internal/infra/httpserver"
	"github.com/talentlens/talentlens/internal/infra/sessionstore"
	minioStore "github.com/talentlens/talentlens/internal/infra/storage"
	"github.com/talentlens/talentlens/internal/middleware"
)

func main() {
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		db          *sql.DB
		records     domanalysis.RecordRepository
		erasureRepo erasure.Repository
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		records = postgresp.NewRecordRepository(db)
		erasureRepo = postgresp.NewErasureRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		records = mysqlp.NewRecordRepository(db)
		erasureRepo = mysqlp.NewErasureRepository(db)
	}
	defer db.Close()

	artifacts, err := minioStore.New(ctx,
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

	clock := application.SystemClock{}
	store := sessionstore.NewMemory()

	sessionsSvc := &appsessions.Service{
		Store:     store,
		Audits:    erasureRepo,
		UploadDir: cfg.Uploads.Dir,
		Clock:     clock,
	}
	uploadsSvc := &appuploads.Service{
		Sessions:     store,
		Dir:          cfg.Uploads.Dir,
		MaxPortfolio: cfg.Uploads.MaxPortfolioFiles,
		Clock:        clock,
	}
	analysisSvc := &appanalysis.Service{
		Sessions:     store,
		Records:      records,
		Client:       openaiClient.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.MaxTokens),
		Extractor:    extract.New(),
		Artifacts:    artifacts,
		Clock:        clock,
		Timeout:      cfg.AnalysisTimeout(),
		MaxAttempts:  cfg.Analysis.MaxAttempts,
		RetryBackoff: cfg.RetryBackoff(),
	}
	analyticsSvc := &appanalytics.Service{Records: records}

	sessionsSvc.StartSweeper(ctx, cfg.SweepInterval(), cfg.SessionTTL())

	checkers := map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	}
	handler := httpserver.NewRouter(sessionsSvc, uploadsSvc, analysisSvc, analyticsSvc, checkers)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")
	cancel()

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
