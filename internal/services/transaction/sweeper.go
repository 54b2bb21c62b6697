package transaction

import (
	"context"
	"log"
	"time"
)

// Sweeper periodically fails pending transactions whose payment deadline
// has passed. Deadline enforcement is opt-in: the server only starts the
// sweeper when EXPIRE_OVERDUE_PAYMENTS is set.
type Sweeper struct {
	svc      Service
	interval time.Duration
}

// NewSweeper creates a sweeper running at the given interval.
func NewSweeper(svc Service, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{svc: svc, interval: interval}
}

// Run blocks, sweeping until ctx is cancelled. Call it in a goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := s.svc.ExpireOverdue(ctx)
			if err != nil {
				log.Printf("Deadline sweep failed: %v", err)
				continue
			}
			if expired > 0 {
				log.Printf("Deadline sweep expired %d overdue transactions", expired)
			}
		}
	}
}
