package workers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// spyJob records Start and Stop calls.
type spyJob struct {
	started  int
	stopped  int
	ctx      context.Context
	interval time.Duration
}

func (s *spyJob) Start(ctx context.Context, interval time.Duration) {
	s.started++
	s.ctx = ctx
	s.interval = interval
}

func (s *spyJob) Stop() {
	s.stopped++
}

func TestRefreshWorker(t *testing.T) {
	job := &spyJob{}
	ctx := context.WithValue(context.Background(), struct{}{}, "marker")

	ws := NewWorkers(NewRefreshWorker(ctx, job, 3*time.Minute))
	ws.Run()

	assert.Equal(t, 1, job.started)
	assert.Equal(t, 3*time.Minute, job.interval)
	assert.Equal(t, "marker", job.ctx.Value(struct{}{}))

	ws.Stop()
	assert.Equal(t, 1, job.stopped)
}
