package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Refresher periodically re-warms the alias filter so aliases created by
// other processes become resolvable without a restart.
type Refresher struct {
	logger   *zap.Logger
	cache    *LinkCache
	interval time.Duration
	stopChan chan struct{}
}

// NewRefresher creates a refresher for the given cache.
func NewRefresher(logger *zap.Logger, cache *LinkCache, interval time.Duration) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Refresher{
		logger:   logger,
		cache:    cache,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic re-warm in the background.
func (r *Refresher) Start() {
	go r.run()
}

// Stop halts the refresher.
func (r *Refresher) Stop() {
	close(r.stopChan)
}

func (r *Refresher) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.cache.Warm(context.Background()); err != nil {
				r.logger.Error("failed to re-warm alias filter", zap.Error(err))
			}
		case <-r.stopChan:
			r.logger.Info("alias filter refresher stopped")
			return
		}
	}
}
