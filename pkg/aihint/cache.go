package aihint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/indexwatch/relevance-router/pkg/observability/logging"
	"github.com/indexwatch/relevance-router/pkg/observability/metrics"
)

// CachingClient wraps a Provider with a file cache and a persisted daily
// call budget. Cache hits are free; only real provider calls count against
// the budget. Concurrent requests for the same input are collapsed.
type CachingClient struct {
	inner Provider
	dir   string
	limit int

	mu      sync.Mutex
	counter dailyCounter
	group   singleflight.Group
}

// NewCaching builds the wrapper. The cache directory is created best-effort;
// a directory that cannot be written just makes every request a real call.
func NewCaching(inner Provider, dir string, limit int) *CachingClient {
	if limit <= 0 {
		limit = defaultDailyLimit
	}
	_ = os.MkdirAll(dir, 0o755)
	c := &CachingClient{inner: inner, dir: dir, limit: limit}
	c.counter = loadDailyCounter(dir)
	return c
}

func (c *CachingClient) ProviderName() string { return c.inner.Name() }

// Analyze returns a cached or fresh hint, or nil when the daily budget is
// exhausted or the provider produced nothing usable.
func (c *CachingClient) Analyze(ctx context.Context, input string) (*Result, error) {
	v, err, _ := c.group.Do(cacheKey(input), func() (any, error) {
		return c.analyze(ctx, input)
	})
	if err != nil {
		return nil, err
	}
	res, _ := v.(*Result)
	return res, nil
}

func (c *CachingClient) analyze(ctx context.Context, input string) (*Result, error) {
	key := cacheKey(input)

	if hit := c.readCache(key); hit != nil {
		metrics.AIHintRequests.WithLabelValues("hit").Inc()
		return hit, nil
	}

	c.mu.Lock()
	if c.counter.expired() {
		c.counter = dailyCounter{Date: today()}
		c.saveCounterLocked()
	}
	if c.counter.Count >= c.limit {
		c.mu.Unlock()
		metrics.AIHintRequests.WithLabelValues("limited").Inc()
		return nil, nil
	}
	c.mu.Unlock()

	fresh, err := c.inner.Fetch(ctx, input)
	if err != nil {
		metrics.AIHintRequests.WithLabelValues("error").Inc()
		logging.Warnf("ai provider %s: %v", c.inner.Name(), err)
		return nil, err
	}
	if fresh == nil {
		metrics.AIHintRequests.WithLabelValues("miss").Inc()
		return nil, nil
	}

	fresh.ShortReason = SanitizeReason(fresh.ShortReason)
	if fresh.ShortReason == "" {
		metrics.AIHintRequests.WithLabelValues("miss").Inc()
		return nil, nil
	}

	c.writeCache(key, fresh)
	c.mu.Lock()
	c.counter.Count++
	c.saveCounterLocked()
	c.mu.Unlock()

	metrics.AIHintRequests.WithLabelValues("miss").Inc()
	return fresh, nil
}

func cacheKey(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:8])
}

func (c *CachingClient) cachePath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func (c *CachingClient) readCache(key string) *Result {
	data, err := os.ReadFile(c.cachePath(key))
	if err != nil {
		return nil
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil || res.ShortReason == "" {
		return nil
	}
	return &res
}

func (c *CachingClient) writeCache(key string, res *Result) {
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	path := c.cachePath(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return
	}
	_ = os.Rename(tmp, path)
}

// dailyCounter persists the call budget across restarts. Date is the day
// number since the Unix epoch, which is enough for rollover detection.
type dailyCounter struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

func (d dailyCounter) expired() bool { return d.Date != today() }

func today() string {
	return strconv.FormatInt(time.Now().Unix()/86_400, 10)
}

func counterPath(dir string) string {
	return filepath.Join(dir, "daily_count.json")
}

func loadDailyCounter(dir string) dailyCounter {
	data, err := os.ReadFile(counterPath(dir))
	if err != nil {
		return dailyCounter{Date: today()}
	}
	var dc dailyCounter
	if err := json.Unmarshal(data, &dc); err != nil {
		return dailyCounter{Date: today()}
	}
	return dc
}

func (c *CachingClient) saveCounterLocked() {
	data, err := json.Marshal(c.counter)
	if err != nil {
		return
	}
	path := counterPath(c.dir)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return
	}
	_ = os.Rename(tmp, path)
}
