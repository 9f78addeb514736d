// Package scheduler runs the hot-set refresh loop and on-demand background
// fetches for cold symbols.
package scheduler

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mohamedkhairy/stock-pulse/internal/config"
	"github.com/mohamedkhairy/stock-pulse/internal/models"
	"github.com/mohamedkhairy/stock-pulse/pkg/logger"
)

// Fetcher builds and publishes a snapshot for one symbol
type Fetcher interface {
	FetchAndCompute(ctx context.Context, symbol string) (*models.Snapshot, error)
}

// Supervisor launches bounded background fetches for cold symbols. A cold
// symbol is one a client asked for that is not in the cache yet; the caller
// answers with a placeholder immediately and the supervisor fills the cache
// behind it. At most MaxColdWorkers fetches run concurrently and duplicate
// requests for an in-flight symbol are dropped.
type Supervisor struct {
	fetcher Fetcher
	timeout time.Duration
	slots   chan struct{}

	mu       sync.Mutex
	inflight map[string]bool

	onResult func(*models.Snapshot)

	wg   sync.WaitGroup
	done chan struct{}
}

// NewSupervisor creates a cold-fetch supervisor
func NewSupervisor(fetcher Fetcher, cfg config.RefreshConfig) *Supervisor {
	workers := cfg.MaxColdWorkers
	if workers < 1 {
		workers = 1
	}
	return &Supervisor{
		fetcher:  fetcher,
		timeout:  cfg.CycleTimeout,
		slots:    make(chan struct{}, workers),
		inflight: make(map[string]bool),
		done:     make(chan struct{}),
	}
}

// OnResult registers a hook invoked after every successful fetch, used to
// broadcast fresh snapshots to stream subscribers
func (s *Supervisor) OnResult(fn func(*models.Snapshot)) {
	s.onResult = fn
}

// FetchAsync schedules a background fetch for symbol. It never blocks: when
// the symbol is already in flight, or all worker slots are busy, the request
// is dropped and a later request will retry.
func (s *Supervisor) FetchAsync(symbol string) {
	symbol = strings.ToUpper(symbol)

	select {
	case <-s.done:
		return
	default:
	}

	s.mu.Lock()
	if s.inflight[symbol] {
		s.mu.Unlock()
		return
	}
	s.inflight[symbol] = true
	s.mu.Unlock()

	select {
	case s.slots <- struct{}{}:
	default:
		s.clearInflight(symbol)
		logger.Debug("cold fetch dropped, all workers busy", logger.String("symbol", symbol))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { <-s.slots }()
		defer s.clearInflight(symbol)
		s.fetch(symbol)
	}()
}

func (s *Supervisor) clearInflight(symbol string) {
	s.mu.Lock()
	delete(s.inflight, symbol)
	s.mu.Unlock()
}

func (s *Supervisor) fetch(symbol string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	snap, err := s.fetcher.FetchAndCompute(ctx, symbol)
	if err != nil {
		logger.Warn("cold fetch failed",
			logger.String("symbol", symbol),
			logger.ErrorField(err),
		)
		return
	}
	if s.onResult != nil {
		s.onResult(snap)
	}
}

// Stop rejects new fetches and waits for in-flight ones to finish
func (s *Supervisor) Stop() {
	close(s.done)
	s.wg.Wait()
}
