package fetch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"glsel/internal/gitlab"
	"glsel/internal/logging"
	"glsel/internal/store"
)

// PageSink receives the rows of one fetched page. The whole page must be
// committed atomically before StorePage returns.
type PageSink interface {
	UpsertPage(projects []store.Project) error
}

// ProgressFunc is called after each completed page operation with the number
// of pages done so far (completion order, not page order) and the total.
type ProgressFunc func(done, total int)

// Config tunes the fetch engine
type Config struct {
	PerPage       int
	MaxConcurrent int
	RetryAttempts int
	RetryDelay    time.Duration
}

// Fetcher schedules per-page fetch-and-store operations under a concurrency
// cap, each wrapped in a fixed-attempt retry
type Fetcher struct {
	sink     PageSink
	logger   *logging.Logger
	config   Config
	progress ProgressFunc
}

// NewFetcher creates a fetch engine writing through sink
func NewFetcher(sink PageSink, logger *logging.Logger, config Config) *Fetcher {
	if config.PerPage < 1 {
		config.PerPage = 100
	}
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = 1
	}
	if config.RetryAttempts < 1 {
		config.RetryAttempts = 1
	}
	return &Fetcher{sink: sink, logger: logger, config: config}
}

// OnProgress registers a progress observer
func (f *Fetcher) OnProgress(fn ProgressFunc) {
	f.progress = fn
}

// FetchScope fetches every page of one scope and writes each page through
// the sink. If any page operation exhausts its retries the error propagates
// and the remaining operations are cancelled: the prune step downstream
// assumes full visibility of a scope, so there is no partial-success
// continuation.
func (f *Fetcher) FetchScope(ctx context.Context, src gitlab.Source, total int) error {
	if total <= 0 {
		return nil
	}
	pageCount := (total + f.config.PerPage - 1) / f.config.PerPage

	f.logger.Debug("Fetching scope", map[string]interface{}{
		"scope": src.Name(),
		"total": total,
		"pages": pageCount,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := NewLimiter(f.config.MaxConcurrent)

	var (
		wg       sync.WaitGroup
		done     int32
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for page := 1; page <= pageCount; page++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()

			if err := limiter.Acquire(ctx); err != nil {
				// Cancellation of the caller's context means pages never ran;
				// the scope must not look complete.
				fail(fmt.Errorf("scope %s page %d: %w", src.Name(), page, err))
				return
			}
			defer limiter.Release()

			err := Retry(ctx, f.config.RetryAttempts, f.config.RetryDelay, func() error {
				return f.fetchPage(ctx, src, page)
			})
			if err != nil {
				fail(fmt.Errorf("scope %s page %d: %w", src.Name(), page, err))
				return
			}

			if f.progress != nil {
				f.progress(int(atomic.AddInt32(&done, 1)), pageCount)
			}
		}(page)
	}

	wg.Wait()
	return firstErr
}

// fetchPage performs one fetch-and-store operation
func (f *Fetcher) fetchPage(ctx context.Context, src gitlab.Source, page int) error {
	records, err := src.FetchPage(ctx, page, f.config.PerPage)
	if err != nil {
		return err
	}
	return f.sink.UpsertPage(toRows(records, src.Name()))
}

func toRows(records []gitlab.ProjectRecord, namespace string) []store.Project {
	rows := make([]store.Project, 0, len(records))
	for _, rec := range records {
		rows = append(rows, store.Project{
			ID:             rec.ID,
			Name:           rec.Name,
			Path:           rec.Path,
			FullPath:       rec.FullPath,
			WebURL:         rec.WebURL,
			Description:    rec.Description,
			LastActivityAt: rec.LastActivityAt,
			Namespace:      namespace,
		})
	}
	return rows
}
