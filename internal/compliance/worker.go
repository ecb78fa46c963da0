package compliance

import (
	"context"
	"log/slog"
	"time"
)

// ExpiryWorker periodically sweeps active exceptions past their expiry. It
// keeps background processing testable without wiring queue implementations.
type ExpiryWorker struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger
}

func NewExpiryWorker(service *Service, interval time.Duration, logger *slog.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ExpiryWorker{service: service, interval: interval, logger: logger}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.service.ExpireOverdue(ctx); err != nil && w.logger != nil {
				w.logger.ErrorContext(ctx, "exception expiry sweep failed", "error", err)
			}
		}
	}
}
