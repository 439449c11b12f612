package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/go-study-sync/internal/service"
)

// RefreshWorker drives a [service.ClientRefreshJob] from the worker list.
type RefreshWorker struct {
	ctx      context.Context
	job      service.ClientRefreshJob
	interval time.Duration
}

func NewRefreshWorker(ctx context.Context, job service.ClientRefreshJob, interval time.Duration) *RefreshWorker {
	return &RefreshWorker{ctx: ctx, job: job, interval: interval}
}

// Run starts the refresh loop.
func (r *RefreshWorker) Run() {
	r.job.Start(r.ctx, r.interval)
}

// Stop implements [Stopper].
func (r *RefreshWorker) Stop() {
	r.job.Stop()
}
