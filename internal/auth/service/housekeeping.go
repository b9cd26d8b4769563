package service

import (
	"context"
	"log/slog"
	"time"
)

// gateCodeRetention is how long consumed gate codes are kept before the purge
// removes them. Retention is bookkeeping, not correctness: consumed rows are
// already inert.
const gateCodeRetention = 24 * time.Hour

// HousekeepingService periodically deletes expired token records and old
// consumed gate codes so neither table grows without bound.
type HousekeepingService struct {
	Sessions *SessionService
	Gates    *GateService
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service with the given
// interval. A non-positive interval defaults to 1 hour.
func NewHousekeepingService(sessions *SessionService, gates *GateService, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Sessions: sessions,
		Gates:    gates,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop gracefully shuts down the worker, blocking until any in-progress
// cleanup finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup.
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup performs the deletions. Each is independent; a failure in one does
// not stop the others.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()
	s.Logger.Debug("starting housekeeping cleanup")

	if err := s.Sessions.Store.TokenRecords().DeleteExpiredTokenRecords(ctx); err != nil {
		s.Logger.Error("failed to delete expired token records", "error", err)
	}

	cutoff := time.Now().UTC().Add(-gateCodeRetention)
	if err := s.Gates.Store.GateCodes().PurgeConsumedGateCodesBefore(ctx, cutoff); err != nil {
		s.Logger.Error("failed to purge consumed gate codes", "error", err)
	}

	s.Logger.Debug("housekeeping cleanup completed")
}
