package sync

import (
	"context"
	"sync"
	"time"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/system"
	"github.com/learngermanghana/sedifexbiz-sub004/pkg/logger"
)

var _ system.Service = (*Janitor)(nil)

const janitorInterval = time.Hour

// Janitor sweeps rows the system no longer needs: op log entries past
// the retention window and sessions past their expiry.
type Janitor struct {
	ops       storage.OpLogStore
	users     storage.UserStore
	retention time.Duration
	log       *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewJanitor creates a lifecycle-managed sweeper. Retention bounds how
// long replayed op IDs stay deduplicable; clients must resend sooner.
func NewJanitor(ops storage.OpLogStore, users storage.UserStore, retention time.Duration, log *logger.Logger) *Janitor {
	if log == nil {
		log = logger.NewDefault("sync-janitor")
	}
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &Janitor{ops: ops, users: users, retention: retention, log: log}
}

func (j *Janitor) Name() string { return "sync-janitor" }

func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.running = true
	j.mu.Unlock()

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ticker := time.NewTicker(janitorInterval)
		defer ticker.Stop()

		j.sweep(runCtx)
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				j.sweep(runCtx)
			}
		}
	}()

	j.log.Info("sync janitor started")
	return nil
}

func (j *Janitor) Stop(ctx context.Context) error {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return nil
	}
	cancel := j.cancel
	j.running = false
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		j.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	j.log.Info("sync janitor stopped")
	return nil
}

func (j *Janitor) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	now := time.Now().UTC()
	ops, err := j.ops.DeleteOpRecordsBefore(ctx, now.Add(-j.retention))
	if err != nil {
		j.log.WithError(err).Warn("op log sweep failed")
	} else if ops > 0 {
		j.log.WithField("deleted", ops).Info("op log entries swept")
	}

	sessions, err := j.users.DeleteExpiredSessions(ctx, now)
	if err != nil {
		j.log.WithError(err).Warn("session sweep failed")
	} else if sessions > 0 {
		j.log.WithField("deleted", sessions).Info("expired sessions swept")
	}
}
