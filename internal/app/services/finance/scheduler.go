package finance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/system"
	"github.com/learngermanghana/sedifexbiz-sub004/pkg/logger"
)

var _ system.Service = (*Scheduler)(nil)

// Scheduler snapshots every store's previous trading day on a cron
// schedule, and once at startup to catch days missed while down.
type Scheduler struct {
	finance *Service
	sched   cron.Schedule
	log     *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewScheduler creates a lifecycle-managed daily summary runner. The
// spec uses standard cron syntax; empty means "@daily".
func NewScheduler(finance *Service, spec string, log *logger.Logger) (*Scheduler, error) {
	if log == nil {
		log = logger.NewDefault("finance-runner")
	}
	if spec == "" {
		spec = "@daily"
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse summary schedule %q: %w", spec, err)
	}
	return &Scheduler{finance: finance, sched: sched, log: log}, nil
}

func (s *Scheduler) Name() string { return "summary-scheduler" }

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// Catch up on yesterday in case the process was down at the
		// scheduled time.
		s.run(runCtx)

		for {
			next := s.sched.Next(time.Now())
			timer := time.NewTimer(time.Until(next))
			select {
			case <-runCtx.Done():
				timer.Stop()
				return
			case <-timer.C:
				s.run(runCtx)
			}
		}
	}()

	s.log.Info("summary scheduler started")
	return nil
}

func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.log.Info("summary scheduler stopped")
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	if s.finance == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	if err := s.finance.RunDailySummaries(ctx, yesterday); err != nil {
		s.log.WithError(err).Warn("daily summary run failed")
		return
	}
	s.log.WithField("day", yesterday.Format("2006-01-02")).Info("daily summaries written")
}
