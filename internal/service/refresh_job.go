package service

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-study-sync/internal/logger"
	"github.com/jonboulle/clockwork"
)

type refreshJob struct {
	refreshers []Refresher
	clock      clockwork.Clock
	logger     *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRefreshJob creates a job that calls Refresh on every refresher on a
// ticker. The job is idle until Start is called.
func NewRefreshJob(clock clockwork.Clock, logger *logger.Logger, refreshers ...Refresher) ClientRefreshJob {
	return &refreshJob{
		refreshers: refreshers,
		clock:      clock,
		logger:     logger.WithComponent("refresh_job"),
	}
}

// Start implements ClientRefreshJob. It stops any previously running job,
// then launches a background goroutine that refreshes every interval. If
// interval is zero or negative it defaults to 5 minutes. The goroutine exits
// when ctx is cancelled or Stop is called.
func (j *refreshJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := j.clock.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.Chan():
				j.refreshAll(jobCtx)
			}
		}
	}()
}

// Stop implements ClientRefreshJob. It cancels the background goroutine's
// context and blocks until the goroutine has fully exited. Safe to call when
// the job is not running.
func (j *refreshJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

func (j *refreshJob) refreshAll(ctx context.Context) {
	for _, r := range j.refreshers {
		if err := r.Refresh(ctx); err != nil {
			j.logger.Err(err).Str("func", "refreshJob.refreshAll").Msg("refresh failed")
		}
	}
}
