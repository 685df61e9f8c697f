package task

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultSweepInterval is used when no interval is configured.
const DefaultSweepInterval = 5 * time.Minute

// OverdueSweeper is the slice of the review service the sweeper drives.
type OverdueSweeper interface {
	// SweepOverdue resurfaces overdue reviewing topics and returns how many
	// were moved.
	SweepOverdue(ctx context.Context, now time.Time) (int, error)
}

// Sweeper periodically resurfaces overdue topics. Each run delegates to the
// review service, which moves topics one short transaction at a time, so a
// slow run never holds long-lived locks and shutdown can interrupt between
// topics.
type Sweeper struct {
	service  OverdueSweeper
	interval time.Duration
	logger   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweeper creates a sweeper. A zero or negative interval selects
// DefaultSweepInterval.
func NewSweeper(service OverdueSweeper, interval time.Duration, logger *slog.Logger) *Sweeper {
	if service == nil {
		panic("service cannot be nil")
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Sweeper{
		service:  service,
		interval: interval,
		logger:   logger.With(slog.String("component", "overdue_sweeper")),
	}
}

// Start launches the sweep loop. The first sweep runs immediately so a
// restart does not wait a full interval to catch up.
func (s *Sweeper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop halts the loop and waits for an in-flight sweep to yield.
func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	s.logger.Info("overdue sweeper started", slog.Duration("interval", s.interval))

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("overdue sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	moved, err := s.service.SweepOverdue(ctx, time.Now().UTC())
	if err != nil && ctx.Err() == nil {
		s.logger.Error("sweep run failed", slog.String("error", err.Error()))
		return
	}
	if moved > 0 {
		s.logger.Info("sweep run moved topics", slog.Int("moved", moved))
	}
}
