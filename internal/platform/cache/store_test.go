package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestStore_GetOrLoad_CollapsesConcurrentLoads(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Minute, nil)
	var calls atomic.Int32
	release := make(chan struct{})

	loader := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "table", nil
	}

	const workers = 32
	var wg sync.WaitGroup
	wg.Add(workers)
	results := make(chan string, workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			v, err := store.GetOrLoad(context.Background(), "standings", loader)
			if err != nil {
				results <- "error: " + err.Error()
				return
			}
			results <- v
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	for got := range results {
		if got != "table" {
			t.Fatalf("unexpected result %q", got)
		}
	}
	if got := calls.Load(); got < 1 || got > workers {
		t.Fatalf("loader called %d times", got)
	}
	before := calls.Load()
	if _, err := store.GetOrLoad(context.Background(), "standings", loader); err != nil {
		t.Fatalf("GetOrLoad after load: %v", err)
	}
	if calls.Load() != before {
		t.Fatalf("expected cached value to skip loader")
	}
}

func TestStore_TTLFollowsClock(t *testing.T) {
	t.Parallel()

	clk := clock.NewMock()
	store := NewStore[int](time.Minute, clk)
	ctx := context.Background()

	store.Set(ctx, "standings", 7)
	clk.Add(59 * time.Second)
	if v, ok := store.Get(ctx, "standings"); !ok || v != 7 {
		t.Fatalf("expected live entry, got %d ok=%t", v, ok)
	}

	clk.Add(time.Second)
	if _, ok := store.Get(ctx, "standings"); ok {
		t.Fatalf("expected entry to expire at ttl")
	}
}

func TestStore_LoaderErrorIsNotCached(t *testing.T) {
	t.Parallel()

	store := NewStore[int](0, nil)
	boom := errors.New("store unavailable")

	if _, err := store.GetOrLoad(context.Background(), "standings", func(context.Context) (int, error) {
		return 0, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	v, err := store.GetOrLoad(context.Background(), "standings", func(context.Context) (int, error) {
		return 3, nil
	})
	if err != nil || v != 3 {
		t.Fatalf("expected retry to load, got %d err=%v", v, err)
	}
}

func TestStore_DeleteDuringLoadDoesNotCacheStaleValue(t *testing.T) {
	t.Parallel()

	store := NewStore[string](0, nil)
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		_, _ = store.GetOrLoad(context.Background(), "standings", func(context.Context) (string, error) {
			close(started)
			<-release
			return "stale", nil
		})
	}()

	<-started
	store.Delete(context.Background(), "standings")
	close(release)
	<-done

	if _, ok := store.Get(context.Background(), "standings"); ok {
		t.Fatalf("expected stale load not to be cached after delete")
	}

	v, err := store.GetOrLoad(context.Background(), "standings", func(context.Context) (string, error) {
		return "fresh", nil
	})
	if err != nil {
		t.Fatalf("GetOrLoad error: %v", err)
	}
	if v != "fresh" {
		t.Fatalf("expected fresh value, got %v", v)
	}
}
