package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"glsel/internal/gitlab"
	"glsel/internal/logging"
	"glsel/internal/store"
)

// fakeSource serves deterministic pages and can be told to fail
type fakeSource struct {
	name     string
	total    int
	perPage  int
	failPage int   // page that always fails, 0 for none
	failLeft int32 // remaining failures for failPage, negative = forever

	// blockFirst holds the first fetched page until blockRelease is closed,
	// signalling blockStarted on entry
	blockFirst   int32
	blockStarted chan struct{}
	blockRelease chan struct{}

	mu      sync.Mutex
	fetched []int
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Count(ctx context.Context) (int, error) {
	return s.total, nil
}

func (s *fakeSource) FetchPage(ctx context.Context, page, perPage int) ([]gitlab.ProjectRecord, error) {
	s.mu.Lock()
	s.fetched = append(s.fetched, page)
	s.mu.Unlock()

	if page == s.failPage {
		if left := atomic.LoadInt32(&s.failLeft); left != 0 {
			if left > 0 {
				atomic.AddInt32(&s.failLeft, -1)
			}
			return nil, errors.New("boom")
		}
	}

	if atomic.CompareAndSwapInt32(&s.blockFirst, 1, 0) {
		close(s.blockStarted)
		<-s.blockRelease
	}

	start := (page - 1) * perPage
	if start >= s.total {
		return nil, nil
	}
	end := start + perPage
	if end > s.total {
		end = s.total
	}

	records := make([]gitlab.ProjectRecord, 0, end-start)
	for i := start; i < end; i++ {
		records = append(records, gitlab.ProjectRecord{
			ID:       int64(i + 1),
			Name:     fmt.Sprintf("proj-%d", i+1),
			Path:     fmt.Sprintf("proj-%d", i+1),
			FullPath: fmt.Sprintf("%s/proj-%d", s.name, i+1),
			WebURL:   fmt.Sprintf("https://gitlab.example.com/%s/proj-%d", s.name, i+1),
		})
	}
	return records, nil
}

// memorySink collects upserted pages
type memorySink struct {
	mu    sync.Mutex
	rows  []store.Project
	pages int
	fail  bool
}

func (s *memorySink) UpsertPage(projects []store.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("storage down")
	}
	s.rows = append(s.rows, projects...)
	s.pages++
	return nil
}

func TestLimiterCapsConcurrency(t *testing.T) {
	limiter := NewLimiter(3)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		current int32
		peak    int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Acquire(ctx); err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			defer limiter.Release()

			n := atomic.AddInt32(&current, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&current, -1)
		}()
	}
	wg.Wait()

	if peak > 3 {
		t.Errorf("Expected at most 3 in flight, saw %d", peak)
	}
}

func TestLimiterAcquireHonorsContext(t *testing.T) {
	limiter := NewLimiter(1)
	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("First acquire failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := limiter.Acquire(ctx); err == nil {
		t.Error("Expected acquire to fail with exhausted slots and done context")
	}
}

func TestRetryFirstSuccessWins(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, 0, func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 attempts, got %d", calls)
	}
}

func TestRetryReturnsLastFailure(t *testing.T) {
	calls := 0
	wantErr := errors.New("persistent")
	err := Retry(context.Background(), 3, 0, func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Expected last failure, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", calls)
	}
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Retry(ctx, 3, 0, func() error {
		calls++
		return errors.New("nope")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context error, got %v", err)
	}
	if calls != 0 {
		t.Errorf("Expected no attempts on cancelled context, got %d", calls)
	}
}

func TestFetchScopeFetchesAllPages(t *testing.T) {
	src := &fakeSource{name: "acme", total: 250}
	sink := &memorySink{}

	fetcher := NewFetcher(sink, logging.Discard(), Config{
		PerPage:       100,
		MaxConcurrent: 4,
		RetryAttempts: 3,
	})

	var progressCalls int32
	var lastTotal int32
	fetcher.OnProgress(func(done, total int) {
		atomic.AddInt32(&progressCalls, 1)
		atomic.StoreInt32(&lastTotal, int32(total))
	})

	if err := fetcher.FetchScope(context.Background(), src, 250); err != nil {
		t.Fatalf("FetchScope failed: %v", err)
	}

	if sink.pages != 3 {
		t.Errorf("Expected 3 page operations, got %d", sink.pages)
	}
	if len(sink.rows) != 250 {
		t.Errorf("Expected 250 rows stored, got %d", len(sink.rows))
	}
	if progressCalls != 3 {
		t.Errorf("Expected 3 progress reports, got %d", progressCalls)
	}
	if lastTotal != 3 {
		t.Errorf("Expected progress total 3, got %d", lastTotal)
	}
}

func TestFetchScopeRetriesTransientFailures(t *testing.T) {
	// Page 2 fails twice, then succeeds; 3 attempts absorb it
	src := &fakeSource{name: "acme", total: 250, failPage: 2, failLeft: 2}
	sink := &memorySink{}

	fetcher := NewFetcher(sink, logging.Discard(), Config{
		PerPage:       100,
		MaxConcurrent: 2,
		RetryAttempts: 3,
	})

	if err := fetcher.FetchScope(context.Background(), src, 250); err != nil {
		t.Fatalf("Expected transient failure to be absorbed, got %v", err)
	}
	if len(sink.rows) != 250 {
		t.Errorf("Expected 250 rows stored, got %d", len(sink.rows))
	}
}

func TestFetchScopeAbortsWhenRetriesExhausted(t *testing.T) {
	src := &fakeSource{name: "acme", total: 250, failPage: 2, failLeft: -1}
	sink := &memorySink{}

	fetcher := NewFetcher(sink, logging.Discard(), Config{
		PerPage:       100,
		MaxConcurrent: 2,
		RetryAttempts: 3,
	})

	err := fetcher.FetchScope(context.Background(), src, 250)
	if err == nil {
		t.Fatal("Expected error when a page exhausts its retries")
	}

	// The failing page was attempted exactly RetryAttempts times
	src.mu.Lock()
	attempts := 0
	for _, page := range src.fetched {
		if page == 2 {
			attempts++
		}
	}
	src.mu.Unlock()
	if attempts != 3 {
		t.Errorf("Expected 3 attempts on the failing page, got %d", attempts)
	}
}

func TestFetchScopeCancelledContextIsAnError(t *testing.T) {
	// The first page blocks while the other two queue behind the single
	// slot; cancelling then means those pages never ran, which must surface
	// as an error so no downstream step treats the scope as complete.
	src := &fakeSource{
		name:         "acme",
		total:        250,
		blockFirst:   1,
		blockStarted: make(chan struct{}),
		blockRelease: make(chan struct{}),
	}
	sink := &memorySink{}

	fetcher := NewFetcher(sink, logging.Discard(), Config{
		PerPage:       100,
		MaxConcurrent: 1,
		RetryAttempts: 1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-src.blockStarted
		cancel()
		close(src.blockRelease)
	}()

	err := fetcher.FetchScope(ctx, src, 250)
	if err == nil {
		t.Fatal("Expected error when cancellation skips queued pages")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled in the chain, got %v", err)
	}
	if sink.pages >= 3 {
		t.Errorf("Expected fewer than 3 pages stored, got %d", sink.pages)
	}
}

func TestFetchScopeStorageFailureAborts(t *testing.T) {
	src := &fakeSource{name: "acme", total: 150}
	sink := &memorySink{fail: true}

	fetcher := NewFetcher(sink, logging.Discard(), Config{
		PerPage:       100,
		MaxConcurrent: 2,
		RetryAttempts: 2,
	})

	if err := fetcher.FetchScope(context.Background(), src, 150); err == nil {
		t.Fatal("Expected error when the sink rejects pages")
	}
}

func TestFetchScopeZeroTotalIsNoop(t *testing.T) {
	src := &fakeSource{name: "acme", total: 0}
	sink := &memorySink{}

	fetcher := NewFetcher(sink, logging.Discard(), Config{PerPage: 100, MaxConcurrent: 2, RetryAttempts: 1})
	if err := fetcher.FetchScope(context.Background(), src, 0); err != nil {
		t.Fatalf("Expected no-op for empty scope, got %v", err)
	}
	if len(src.fetched) != 0 {
		t.Errorf("Expected no fetches for empty scope, got %v", src.fetched)
	}
}
