package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/indexwatch/relevance-router/pkg/observability/logging"
	"github.com/indexwatch/relevance-router/pkg/observability/metrics"
)

// DefaultDedupWindowSecs bounds the text deduplication lookback.
const DefaultDedupWindowSecs = 600

// RunOnce fetches from every provider concurrently, then normalizes,
// filters, and deduplicates the combined batch. Provider failures are
// logged and counted; the rest of the batch proceeds.
func RunOnce(ctx context.Context, pool *ants.Pool, providers []Provider, whitelist []string, dedupWindowSecs int64) (kept []Event, filtered, deduped int) {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		raw []Event
	)

	for _, p := range providers {
		p := p
		wg.Add(1)
		task := func() {
			defer wg.Done()
			events, err := p.FetchLatest(ctx)
			if err != nil {
				metrics.IngestProviderErrors.Inc()
				logging.Warnf("ingest provider %s: %v", p.Name(), err)
				return
			}
			mu.Lock()
			raw = append(raw, events...)
			mu.Unlock()
		}
		if pool != nil {
			if err := pool.Submit(task); err != nil {
				// Pool saturated or closed; run inline rather than drop the feed.
				task()
			}
		} else {
			task()
		}
	}
	wg.Wait()

	now := time.Now().Unix()
	kept, filtered, deduped = NormalizeFilterDedup(now, raw, whitelist, dedupWindowSecs)

	metrics.IngestKept.Add(float64(len(kept)))
	metrics.IngestFiltered.Add(float64(filtered))
	metrics.IngestDeduped.Add(float64(deduped))
	metrics.IngestLastRun.Set(float64(now))

	return kept, filtered, deduped
}

// Sink consumes the kept events of one ingest run.
type Sink func(ctx context.Context, events []Event)

// Scheduler runs the ingest pipeline on a fixed interval.
type Scheduler struct {
	Interval        time.Duration
	DedupWindowSecs int64
	Providers       []Provider
	Whitelist       []string
	Pool            *ants.Pool
	Sink            Sink
}

// Run ticks until ctx is done. The first run happens after one interval.
func (s *Scheduler) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	window := s.DedupWindowSecs
	if window <= 0 {
		window = DefaultDedupWindowSecs
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			kept, filtered, deduped := RunOnce(ctx, s.Pool, s.Providers, s.Whitelist, window)
			logging.Infof("ingest tick: kept=%d filtered=%d dedup=%d", len(kept), filtered, deduped)
			if s.Sink != nil && len(kept) > 0 {
				s.Sink(ctx, kept)
			}
		}
	}
}
