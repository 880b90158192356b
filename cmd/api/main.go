package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/clinical"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/config"
	v1 "github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/handler/v1"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/repository"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/service"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/spreadsheet"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/pkg/auth"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/pkg/database"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/pkg/logger"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/pkg/metrics"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/pkg/tracer"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer zlog.Sync() //nolint:errcheck

	zlog.Info("starting",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	if cfg.Tracing.Enabled {
		tp, err := tracer.Init(cfg.Tracing)
		if err != nil {
			zlog.Warn("tracing disabled: init failed", zap.Error(err))
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(ctx); err != nil {
					zlog.Warn("tracer shutdown", zap.Error(err))
				}
			}()
		}
	}

	m := metrics.NewCollector(cfg.App.Name)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	if err := database.Migrate(db, zlog); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for range ticker.C {
				m.DBConnections.Set(float64(sqlDB.Stats().OpenConnections))
			}
		}()
	}

	reportRepo := repository.NewReportRepository(db, m)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	jwtManager := auth.NewJWTManager(cfg.JWT)
	auditSvc := service.NewAuditService(auditRepo, m, zlog)
	authSvc := service.NewAuthService(userRepo, jwtManager, auditSvc, zlog)

	kb := clinical.NewKnowledgeBase()
	generator := clinical.NewGenerator(kb, zlog,
		clinical.WithMaxTextBytes(cfg.Upload.MaxTextBytes),
	)
	workbook := spreadsheet.NewWorkbook(cfg.Report.WorkbookPath, zlog)

	reportSvc := service.NewReportService(reportRepo, generator, workbook, auditSvc, m, zlog, cfg.Upload)

	router := v1.NewRouter(v1.RouterDeps{
		Config:        cfg,
		Log:           zlog,
		DB:            db,
		JWTManager:    jwtManager,
		Metrics:       m,
		AuthHandler:   v1.NewAuthHandler(authSvc),
		ReportHandler: v1.NewReportHandler(reportSvc),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		zlog.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("http shutdown", zap.Error(err))
	}

	// Drain buffered audit entries before the process exits.
	auditSvc.Shutdown()

	zlog.Info("stopped")
	return nil
}
