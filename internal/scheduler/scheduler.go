// Package scheduler drives the market simulation: on a fixed interval it
// ticks every instrument price, then revalues every account's portfolio.
package scheduler

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"papertrade/internal/pricing"
	"papertrade/internal/store"
	"papertrade/internal/valuation"
)

type Config struct {
	// Interval between cycles. The combined price+valuation run defaults to
	// one minute; a price-only deployment typically uses one hour.
	Interval time.Duration
	// Valuation controls whether each cycle also snapshots every account's
	// portfolio value after pricing.
	Valuation bool
}

func DefaultConfig() Config {
	return Config{Interval: time.Minute, Valuation: true}
}

type Scheduler struct {
	cfg       Config
	pricing   *pricing.Engine
	valuation *valuation.Engine
	store     store.Store

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool
}

func New(cfg Config, pricingEngine *pricing.Engine, valuationEngine *valuation.Engine, st store.Store) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Scheduler{cfg: cfg, pricing: pricingEngine, valuation: valuationEngine, store: st}
}

// Start begins the periodic cycle. The first cycle runs immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run()
	log.Printf("[scheduler] started, interval=%s valuation=%t", s.cfg.Interval, s.cfg.Valuation)
}

// Stop cancels the loop and waits for an in-flight cycle to finish, or for
// ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Printf("[scheduler] stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.runCycle()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runCycle()
		}
	}
}

// runCycle executes one price+valuation pass. A firing that overlaps a
// still-running cycle is skipped, never run concurrently.
func (s *Scheduler) runCycle() {
	if !s.running.CompareAndSwap(false, true) {
		log.Printf("[scheduler] previous cycle still running, skipping")
		return
	}
	defer s.running.Store(false)

	if _, err := s.pricing.Tick(s.ctx); err != nil {
		log.Printf("[scheduler] price generation: %v", err)
	}
	if !s.cfg.Valuation {
		return
	}
	var accountIDs []string
	err := s.store.View(s.ctx, func(tx store.Tx) error {
		var err error
		accountIDs, err = tx.ListAccountIDs(s.ctx)
		return err
	})
	if err != nil {
		log.Printf("[scheduler] list accounts: %v", err)
		return
	}
	for _, accountID := range accountIDs {
		if _, err := s.valuation.ValueAccount(s.ctx, accountID); err != nil {
			log.Printf("[scheduler] valuation %s: %v", accountID, err)
		}
	}
}
