package service

import (
	"context"
	"time"

	"github.com/MarcMahler/gamehub-backend/internal/logger"
)

// abandoner is the single store capability the sweeper needs.
type abandoner interface {
	AbandonStale(ctx context.Context, waitingTTL, idleTTL time.Duration) (int64, error)
}

// Sweeper is the session-abandonment watchdog: waiting sessions nobody joined
// and active sessions with no recent move are flipped to abandoned in bulk.
// Abandonment never touches participant statistics.
type Sweeper struct {
	sessions   abandoner
	interval   time.Duration
	waitingTTL time.Duration
	idleTTL    time.Duration
}

func NewSweeper(sessions abandoner, interval, waitingTTL, idleTTL time.Duration) *Sweeper {
	return &Sweeper{
		sessions:   sessions,
		interval:   interval,
		waitingTTL: waitingTTL,
		idleTTL:    idleTTL,
	}
}

// Start runs the sweep loop until ctx is canceled.
func (w *Sweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.sweep(ctx)
			}
		}
	}()
}

func (w *Sweeper) sweep(ctx context.Context) {
	n, err := w.sessions.AbandonStale(ctx, w.waitingTTL, w.idleTTL)
	if err != nil {
		logger.Error("abandonment sweep failed", "error", err)
		return
	}
	if n > 0 {
		sessionsAbandoned.Add(float64(n))
		logger.Info("abandoned stale sessions", "count", n)
	}
}
