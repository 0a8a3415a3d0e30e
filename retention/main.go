package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wintersoldje/econ-shorts/backend/internal/artifacts"
	"github.com/wintersoldje/econ-shorts/backend/internal/config"
	"github.com/wintersoldje/econ-shorts/backend/internal/elasticsearch"
	"github.com/wintersoldje/econ-shorts/backend/internal/logger"
)

type archivePruner interface {
	DeleteOlderThan(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error)
}

func main() {
	config.LoadDotEnv()
	log := logger.New("retention")
	cfg, err := config.LoadRetention()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	files, err := artifacts.New(cfg.ScratchDir)
	if err != nil {
		log.Error("open scratch dir", slog.Any("err", err))
		os.Exit(1)
	}

	var archive archivePruner
	if cfg.ElasticsearchAddr != "" {
		es, ok := connectArchive(ctx, log, cfg)
		if !ok {
			os.Exit(1)
		}
		archive = es
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	log.Info("retention job running",
		slog.Duration("interval", cfg.Interval),
		slog.Duration("max_age", cfg.MaxAge),
		slog.Bool("archive", archive != nil),
	)

	runOnce(ctx, log, files, archive, cfg, time.Now())
	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return
		case now := <-ticker.C:
			runOnce(ctx, log, files, archive, cfg, now)
		}
	}
}

// connectArchive retries the Elasticsearch connection with backoff.
func connectArchive(ctx context.Context, log *slog.Logger, cfg *config.Retention) (*elasticsearch.Client, bool) {
	const maxRetries = 10
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		es, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = es.Ping(pingCtx)
			cancel()
			if err == nil {
				log.Info("connected to elasticsearch")
				return es, true
			}
		}
		log.Warn("elasticsearch not ready, retrying",
			slog.Any("err", err),
			slog.Int("attempt", i+1),
			slog.Int("max_retries", maxRetries),
			slog.Duration("retry_in", retryDelay),
		)

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			log.Info("shutdown signal received during startup")
			return nil, false
		}
		retryDelay = min(retryDelay*2, 30*time.Second)
	}
	log.Error("failed to connect to elasticsearch after retries")
	return nil, false
}

// runOnce prunes scratch artifacts and archived records. Failures are logged
// and retried on the next tick.
func runOnce(ctx context.Context, log *slog.Logger, files *artifacts.Store, archive archivePruner, cfg *config.Retention, now time.Time) {
	removed, err := files.Prune(cfg.MaxAge, now)
	if err != nil {
		log.Warn("artifact prune incomplete", slog.Any("err", err), slog.Int("removed", removed))
	} else if removed > 0 {
		log.Info("pruned artifacts", slog.Int("removed", removed))
	}

	if archive == nil {
		return
	}
	subCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	deleted, err := archive.DeleteOlderThan(subCtx, cfg.MaxAge, cfg.BatchSize)
	if err != nil {
		log.Warn("archive retention failed (will retry on next interval)", slog.Any("err", err))
		return
	}
	if deleted > 0 {
		log.Info("archive retention completed", slog.Int64("deleted", deleted))
	} else {
		log.Debug("archive retention completed, no old records found")
	}
}
