package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"landflow/audit"
	"landflow/auth"
	"landflow/config"
	"landflow/db"
	"landflow/dispute"
	"landflow/metrics"
	"landflow/notify"
	"landflow/property"
	"landflow/transfer"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.FromEnv()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("bootstrap database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	m := metrics.New()
	auditor := audit.NewRecorder()
	outbox := notify.NewOutbox()

	authSvc := auth.NewService(auth.NewRepository(pool), cfg.JWTSecret)
	propertySvc := property.NewService(pool, property.NewRepository(pool), auditor, outbox).WithMetrics(m)
	transferSvc := transfer.NewService(pool, transfer.NewRepository(pool), authSvc, auditor, outbox).WithMetrics(m)
	disputeSvc := dispute.NewService(pool, dispute.NewRepository(pool), auditor, outbox).WithMetrics(m)

	server := &Server{
		authService:     authSvc,
		propertyService: propertySvc,
		transferService: transferSvc,
		disputeService:  disputeSvc,
		auditTrail:      &auditReader{pool: pool, recorder: auditor},
		metrics:         m,
		logger:          logger,
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("api listening", "addr", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("serve", "error", err)
		os.Exit(1)
	}
}

// auditReader binds the audit recorder's read path to the process pool.
type auditReader struct {
	pool     audit.Querier
	recorder *audit.Recorder
}

func (a *auditReader) ListByProperty(ctx context.Context, propertyID string) ([]audit.Record, error) {
	return a.recorder.ListByProperty(ctx, a.pool, propertyID)
}
