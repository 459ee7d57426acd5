// GLM TOE Tile Service
//
// Ingests GOES-R GLM Level-2 LCFA lightning granules and serves a sliding
// time-window heatmap of Total Optical Energy as Web Mercator PNG tiles.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jcom-dev/zmanim/internal/config"
	"github.com/jcom-dev/zmanim/internal/eventstore"
	"github.com/jcom-dev/zmanim/internal/httpapi"
	"github.com/jcom-dev/zmanim/internal/objectstore"
	"github.com/jcom-dev/zmanim/internal/poller"
	"github.com/jcom-dev/zmanim/internal/tilecache"
)

func setupLogging(environment string) {
	var handler slog.Handler
	if environment == "development" {
		handler = slog.NewTextHandler(os.Stdout, nil)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	setupLogging(cfg.Server.Environment)

	store := eventstore.New(cfg.RetentionDuration())

	cache, err := tilecache.New(cfg.TileCache.Size)
	if err != nil {
		log.Fatalf("failed to build tile cache: %v", err)
	}

	var p *poller.Poller
	if cfg.Poll.Enabled {
		ctx := context.Background()
		bucketStore, err := objectstore.New(ctx, cfg.Poll.Bucket, cfg.FetchTimeout(), slog.Default())
		if err != nil {
			log.Fatalf("failed to initialize object store for bucket %s: %v", cfg.Poll.Bucket, err)
		}

		p = poller.New(bucketStore, bucketStore, store, poller.Config{
			Interval:    cfg.PollInterval(),
			MaxGranules: cfg.Poll.GranulesMax,
			OnIngested: func(key string, accepted int) {
				if accepted > 0 {
					cache.Purge()
				}
			},
		})
		p.Start(ctx)
		defer p.Stop()

		slog.Info("glm bucket poller enabled", "bucket", cfg.Poll.Bucket, "interval_seconds", cfg.Poll.IntervalSec)
	} else {
		slog.Info("glm bucket poller disabled (GLM_POLL_ENABLED=false)")
	}

	svc := httpapi.New(store, cache, httpapi.GridConfig{
		UseABI:  cfg.Grid.UseABI,
		ABILon0: cfg.Grid.ABILon0,
	}, cfg.RetentionDuration(), cfg.FetchTimeout(), p)

	router := httpapi.NewRouter(svc)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("starting glm toe tile service", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	slog.Info("server exited")
}
