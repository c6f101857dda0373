// Package refresh drives the stale-while-revalidate refresh cycle over the
// project cache.
package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	gerrors "glsel/internal/errors"
	"glsel/internal/fetch"
	"glsel/internal/gitlab"
	"glsel/internal/logging"
	"glsel/internal/store"
)

// State is the orchestrator's decision for one invocation
type State string

const (
	// Cold means the cache is empty; a synchronous full refresh must succeed
	// before anything can be served.
	Cold State = "cold"
	// WarmThrottled means the cache is fresh enough; no network calls happen.
	WarmThrottled State = "warm-throttled"
	// WarmRefreshing means cached data is served while a full refresh runs in
	// the background.
	WarmRefreshing State = "warm-refreshing"
)

// Config tunes the orchestrator
type Config struct {
	MinRefresh time.Duration
	StaleDays  int
}

// Orchestrator decides between cold, throttled and background refresh and
// runs full refresh cycles over the configured scopes
type Orchestrator struct {
	projects *store.ProjectRepository
	meta     *store.MetaRepository
	fetcher  *fetch.Fetcher
	sources  []gitlab.Source
	logger   *logging.Logger
	config   Config

	now func() time.Time
}

// NewOrchestrator creates a refresh orchestrator. Sources are processed
// sequentially in the given order; pages within one scope are concurrent.
func NewOrchestrator(projects *store.ProjectRepository, meta *store.MetaRepository,
	fetcher *fetch.Fetcher, sources []gitlab.Source, logger *logging.Logger, config Config) *Orchestrator {
	return &Orchestrator{
		projects: projects,
		meta:     meta,
		fetcher:  fetcher,
		sources:  sources,
		logger:   logger,
		config:   config,
		now:      time.Now,
	}
}

// SetNow overrides the time source. For tests.
func (o *Orchestrator) SetNow(now func() time.Time) {
	o.now = now
}

// Handle tracks a background refresh cycle and exposes its outcome
type Handle struct {
	done chan struct{}
	err  error
}

// Done is closed when the background cycle has finished
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the cycle finishes and returns its error
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Decide inspects the cache and picks the refresh state for this invocation
func (o *Orchestrator) Decide() (State, error) {
	count, err := o.projects.Count()
	if err != nil {
		return "", gerrors.New(gerrors.StorageFailed, "failed to inspect cache", err)
	}
	if count == 0 {
		return Cold, nil
	}

	last, found, err := o.meta.GetTime(store.MetaLastFullRefreshAt)
	if err != nil {
		return "", gerrors.New(gerrors.StorageFailed, "failed to read refresh metadata", err)
	}
	// Missing metadata means never refreshed: not throttled.
	if found && o.now().Sub(last) < o.config.MinRefresh {
		return WarmThrottled, nil
	}
	return WarmRefreshing, nil
}

// Run makes the refresh decision and acts on it. In the Cold state the cycle
// runs synchronously and its error is returned (fatal to the caller: no
// usable cache exists yet). In the WarmRefreshing state the cycle runs in
// the background; its failure is logged and reported only through the
// returned Handle, leaving the cached data untouched and usable.
func (o *Orchestrator) Run(ctx context.Context) (State, *Handle, error) {
	state, err := o.Decide()
	if err != nil {
		return "", nil, err
	}

	switch state {
	case Cold:
		if err := o.RunCycle(ctx); err != nil {
			return Cold, nil, err
		}
		return Cold, nil, nil

	case WarmThrottled:
		o.logger.Debug("Cache is fresh, skipping refresh", nil)
		return WarmThrottled, nil, nil

	default:
		handle := &Handle{done: make(chan struct{})}
		go func() {
			defer close(handle.done)
			if err := o.RunCycle(ctx); err != nil {
				handle.err = err
				o.logger.Warn("Background refresh failed, serving cached data", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}()
		return WarmRefreshing, handle, nil
	}
}

// RunCycle performs one full refresh over every configured scope. The
// freshness metadata update and the prune step are strictly gated on every
// scope completing without error: a half-finished cycle must never shrink
// the visible cache.
func (o *Orchestrator) RunCycle(ctx context.Context) error {
	cycleID := uuid.NewString()[:8]
	started := o.now()

	o.logger.Info("Starting refresh cycle", map[string]interface{}{
		"cycle":  cycleID,
		"scopes": len(o.sources),
	})

	if err := o.meta.SetTime(store.MetaLastRefreshStartedAt, started); err != nil {
		return gerrors.New(gerrors.StorageFailed, "failed to record refresh start", err)
	}

	for _, src := range o.sources {
		total, err := src.Count(ctx)
		if err != nil {
			return gerrors.New(gerrors.RemoteCountFailed,
				fmt.Sprintf("scope %s", src.Name()), err)
		}

		if err := o.fetcher.FetchScope(ctx, src, total); err != nil {
			return gerrors.New(gerrors.RemoteFetchFailed,
				fmt.Sprintf("scope %s", src.Name()), err)
		}

		o.logger.Debug("Scope refreshed", map[string]interface{}{
			"cycle": cycleID,
			"scope": src.Name(),
			"total": total,
		})
	}

	if err := o.meta.SetTime(store.MetaLastFullRefreshAt, o.now()); err != nil {
		return gerrors.New(gerrors.StorageFailed, "failed to record refresh completion", err)
	}

	pruned, err := o.projects.Prune(o.config.StaleDays)
	if err != nil {
		return gerrors.New(gerrors.StorageFailed, "failed to prune stale projects", err)
	}

	o.logger.Info("Refresh cycle complete", map[string]interface{}{
		"cycle":    cycleID,
		"pruned":   pruned,
		"duration": o.now().Sub(started).String(),
	})
	return nil
}
