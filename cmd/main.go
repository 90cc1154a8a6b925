package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/indexwatch/relevance-router/pkg/aihint"
	"github.com/indexwatch/relevance-router/pkg/apiserver"
	"github.com/indexwatch/relevance-router/pkg/history"
	"github.com/indexwatch/relevance-router/pkg/ingest"
	"github.com/indexwatch/relevance-router/pkg/notify"
	"github.com/indexwatch/relevance-router/pkg/observability/logging"
	"github.com/indexwatch/relevance-router/pkg/relevance"
)

func main() {
	var (
		relevancePath  = flag.String("relevance-config", "config/relevance.yaml", "Path to the relevance gate configuration")
		weightsPath    = flag.String("source-weights", apiserver.DefaultSourceWeightsPath, "Path to the source weights table")
		feedsPath      = flag.String("feeds", "config/feeds.yaml", "Path to the RSS feeds configuration")
		historyDir     = flag.String("history-dir", "", "Badger directory for the decision log (empty keeps history in memory)")
		port           = flag.Int("port", 8080, "Port for the HTTP API")
		metricsPort    = flag.Int("metrics-port", 9190, "Port for Prometheus metrics")
		ingestInterval = flag.Duration("ingest-interval", time.Minute, "How often to poll the feeds (0 disables ingest)")
		alertCooldown  = flag.Duration("alert-cooldown", 5*time.Minute, "Minimum gap between same-direction alerts")
	)
	flag.Parse()

	if _, err := logging.InitFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", *metricsPort)
		logging.Infof("metrics server listening on %s", addr)
		if err := http.ListenAndServe(addr, nil); err != nil {
			logging.Errorf("metrics server: %v", err)
		}
	}()

	handle, err := relevance.LoadHandle(*relevancePath)
	if err != nil {
		logging.Fatalf("loading relevance config %s: %v", *relevancePath, err)
	}
	if relevance.HotReloadEnabled() {
		handle.StartHotReload(ctx, &relevance.PollReloader{Path: *relevancePath})
		logging.Infof("relevance hot reload enabled for %s", *relevancePath)
	}

	var hist history.Store
	if *historyDir != "" {
		hist, err = history.NewBadger(*historyDir, 2000)
		if err != nil {
			logging.Fatalf("opening history at %s: %v", *historyDir, err)
		}
	} else {
		hist = history.NewMemory(2000)
	}
	defer hist.Close()

	server := apiserver.New(apiserver.Options{
		History:     hist,
		Relevance:   handle,
		Hints:       aihint.NewFromConfig(aihint.LoadConfig()),
		Notifier:    notify.MuxFromEnv(),
		Flutter:     notify.NewAntiFlutter(*alertCooldown),
		WeightsPath: *weightsPath,
	})

	if *ingestInterval > 0 {
		startIngest(ctx, server, *feedsPath, *ingestInterval)
	}

	go func() {
		if err := server.ListenAndServe(*port); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("api server: %v", err)
		}
	}()

	<-ctx.Done()
	logging.Infof("shutting down")
}

// startIngest wires the feed poller to the decision pipeline. A missing feeds
// config just disables ingest; the API stays fully usable.
func startIngest(ctx context.Context, server *apiserver.Server, feedsPath string, interval time.Duration) {
	feeds, err := ingest.LoadFeeds(feedsPath)
	if err != nil {
		logging.Warnf("ingest disabled: %v", err)
		return
	}
	whitelist, err := ingest.LoadWhitelistDefault()
	if err != nil {
		logging.Warnf("ingest whitelist: %v", err)
	}

	pool, err := ants.NewPool(8)
	if err != nil {
		logging.Warnf("ingest pool: %v, fetching inline", err)
	}

	scheduler := &ingest.Scheduler{
		Interval:  interval,
		Providers: ingest.ProvidersFromFeeds(feeds),
		Whitelist: whitelist,
		Pool:      pool,
		Sink: func(ctx context.Context, events []ingest.Event) {
			items := make([]apiserver.DecideItem, 0, len(events))
			for _, ev := range events {
				items = append(items, apiserver.DecideItem{
					Source: ev.Source,
					Text:   ev.Text,
					TSUnix: ev.PublishedAt,
				})
			}
			d := server.Decide(ctx, items)
			logging.Infof("ingest decision: %s (%.2f) from %d events", d.Decision, d.Confidence, len(events))
		},
	}
	go scheduler.Run(ctx)
	logging.Infof("ingest scheduler polling %d feeds every %s", len(feeds), interval)
}
