package scheduler

import (
	"context"
	"strings"
	"time"

	"github.com/mohamedkhairy/stock-pulse/internal/config"
	"github.com/mohamedkhairy/stock-pulse/internal/models"
	"github.com/mohamedkhairy/stock-pulse/pkg/logger"
)

// Refresher keeps the hot set of symbols fresh. On start it prefetches every
// hot symbol once so the cache is warm before traffic arrives, then rebuilds
// the whole set every interval. Symbols refresh sequentially within a cycle;
// one symbol's failure is logged and never interrupts the rest.
type Refresher struct {
	fetcher  Fetcher
	symbols  []string
	interval time.Duration
	timeout  time.Duration

	onResult func(*models.Snapshot)

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRefresher creates a hot-set refresher
func NewRefresher(fetcher Fetcher, cfg config.RefreshConfig) *Refresher {
	symbols := make([]string, 0, len(cfg.HotSymbols))
	for _, s := range cfg.HotSymbols {
		symbols = append(symbols, strings.ToUpper(s))
	}
	return &Refresher{
		fetcher:  fetcher,
		symbols:  symbols,
		interval: cfg.Interval,
		timeout:  cfg.CycleTimeout,
		done:     make(chan struct{}),
	}
}

// OnResult registers a hook invoked after every successful refresh
func (r *Refresher) OnResult(fn func(*models.Snapshot)) {
	r.onResult = fn
}

// Start warms the cache with one synchronous pass over the hot set, then
// launches the periodic refresh loop
func (r *Refresher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	logger.Info("prefetching hot symbols",
		logger.Int("count", len(r.symbols)),
		logger.Duration("interval", r.interval),
	)
	r.refreshAll(ctx)

	go r.loop(ctx)
}

func (r *Refresher) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refreshAll(ctx)
		}
	}
}

// refreshAll rebuilds every hot symbol once, bounded by the cycle timeout
func (r *Refresher) refreshAll(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := time.Now()
	for _, symbol := range r.symbols {
		if cycleCtx.Err() != nil {
			logger.Warn("refresh cycle cut short",
				logger.String("symbol", symbol),
				logger.Duration("elapsed", time.Since(started)),
			)
			return
		}

		snap, err := r.fetcher.FetchAndCompute(cycleCtx, symbol)
		if err != nil {
			logger.Warn("hot symbol refresh failed",
				logger.String("symbol", symbol),
				logger.ErrorField(err),
			)
			continue
		}
		if r.onResult != nil {
			r.onResult(snap)
		}
	}

	logger.Debug("refresh cycle complete",
		logger.Int("symbols", len(r.symbols)),
		logger.Duration("elapsed", time.Since(started)),
	)
}

// Stop cancels the loop and waits for the current cycle to finish
func (r *Refresher) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}
