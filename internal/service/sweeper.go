package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically purges listings older than the configured TTL.
// A failed tick is logged and skipped; the next tick still fires.
type Sweeper struct {
	store    ListingStore
	interval time.Duration
	ttl      time.Duration
	log      *zap.Logger
}

func NewSweeper(store ListingStore, interval, ttl time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{store: store, interval: interval, ttl: ttl, log: log}
}

// Run loops until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	deleted, err := s.store.PurgeOlderThan(ctx, s.ttl)
	if err != nil {
		s.log.Error("purge failed", zap.Error(err))
		return
	}
	s.log.Info("purged expired listings", zap.Int64("deleted", deleted))
}
