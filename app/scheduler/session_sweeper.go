// Package scheduler contains background workers that run alongside the HTTP server
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/vendaslab/salestrack/repository"
)

// SessionSweeper periodically marks expired sessions inactive so the
// sessions table does not accumulate stale rows
type SessionSweeper struct {
	sessionRepo repository.AccountSessionRepository
	logger      *log.Logger
	interval    time.Duration
}

func NewSessionSweeper(sessionRepo repository.AccountSessionRepository, logger *log.Logger, interval time.Duration) *SessionSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = log.Default()
	}

	return &SessionSweeper{
		sessionRepo: sessionRepo,
		logger:      logger,
		interval:    interval,
	}
}

// Start launches the sweep loop and returns a cancel function
func (s *SessionSweeper) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return cancel
}

func (s *SessionSweeper) runOnce(ctx context.Context) {
	swept, err := s.sessionRepo.CleanupExpiredSessions(ctx)
	if err != nil {
		s.logger.Printf("sweeper: cleanup of expired sessions failed: %v", err)
		return
	}
	if swept > 0 {
		s.logger.Printf("sweeper: marked %d expired sessions inactive", swept)
	}
}
