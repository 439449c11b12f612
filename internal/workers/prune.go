// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-study-sync/internal/logger"
	"github.com/MKhiriev/go-study-sync/internal/store"
	"github.com/jonboulle/clockwork"
)

// PruneWorker removes stale cache entries once, shortly after start, so the
// prune does not compete with the first reads.
type PruneWorker struct {
	ctx           context.Context
	cache         store.LocalCache
	retentionDays int
	delay         time.Duration
	clock         clockwork.Clock
	logger        *logger.Logger

	once sync.Once
	done chan struct{}
}

func NewPruneWorker(ctx context.Context, cache store.LocalCache, retentionDays int, delay time.Duration, clock clockwork.Clock, log *logger.Logger) *PruneWorker {
	return &PruneWorker{
		ctx:           ctx,
		cache:         cache,
		retentionDays: retentionDays,
		delay:         delay,
		clock:         clock,
		logger:        log.WithComponent("prune_worker"),
		done:          make(chan struct{}),
	}
}

// Run starts the delayed prune in the background. Calls after the first are
// no-ops. Cancelling the worker's context before the delay elapses skips the
// prune.
func (p *PruneWorker) Run() {
	p.once.Do(func() {
		go p.prune()
	})
}

// Done is closed once the prune has run or been skipped.
func (p *PruneWorker) Done() <-chan struct{} {
	return p.done
}

func (p *PruneWorker) prune() {
	defer close(p.done)

	select {
	case <-p.ctx.Done():
		p.logger.Debug().Str("func", "PruneWorker.prune").Msg("prune skipped, shutting down")
		return
	case <-p.clock.After(p.delay):
	}

	removed := p.cache.Prune(p.ctx, p.retentionDays)
	p.logger.Info().
		Str("func", "PruneWorker.prune").
		Int("retention_days", p.retentionDays).
		Int("removed", removed).
		Msg("cache pruned")
}
