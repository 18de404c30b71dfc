package session

import (
	"context"
	"time"

	"dataviz/internal"
)

var logger = internal.DefaultLogger.Named("Session")

// StartSweeper expires idle sessions every interval until ctx is cancelled
func (s *Store) StartSweeper(ctx context.Context, ttl, interval time.Duration) {
	if ttl <= 0 || interval <= 0 {
		logger.Warn("sweeper disabled (ttl=%v, interval=%v)", ttl, interval)
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		lastCount := -1
		for {
			select {
			case <-ctx.Done():
				logger.Info("sweeper stopped")
				return
			case <-ticker.C:
				if removed := s.CleanupExpired(ttl); removed > 0 {
					logger.Info("🧹 expired %d idle sessions", removed)
				}
				// only log the live count when it changes
				if n := s.Len(); n != lastCount {
					logger.Debug("📊 %d active sessions", n)
					lastCount = n
				}
			}
		}
	}()
}
