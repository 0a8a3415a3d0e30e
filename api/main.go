package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wintersoldje/econ-shorts/backend/internal/config"
	"github.com/wintersoldje/econ-shorts/backend/internal/logger"
	"github.com/wintersoldje/econ-shorts/backend/internal/pipeline"
	"github.com/wintersoldje/econ-shorts/backend/internal/render"
)

func main() {
	config.LoadDotEnv()
	log := logger.New("api")
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	p, err := pipeline.Build(ctx, cfg.Common, cfg.Pipeline, log)
	if err != nil {
		log.Error("build pipeline", slog.Any("err", err))
		os.Exit(1)
	}
	defer p.Close()

	var (
		dispatcher render.Dispatcher
		pool       *render.Pool
		kafkaOut   *render.KafkaDispatcher
	)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaOut = render.NewKafkaDispatcher(cfg.KafkaBrokers, cfg.KafkaRenderTopic)
		dispatcher = kafkaOut
		log.Info("renders queued to kafka", slog.String("topic", cfg.KafkaRenderTopic))
	} else {
		pool = render.NewPool(p.Orchestrator, cfg.RenderWorkers, cfg.RenderQueue, log)
		dispatcher = pool
		log.Info("renders run in process",
			slog.Int("workers", cfg.RenderWorkers),
			slog.Int("queue", cfg.RenderQueue),
		)
	}

	srv := &server{
		log:        log,
		composer:   p.Composer,
		renderer:   p.Orchestrator,
		jobs:       p.Jobs,
		dispatcher: dispatcher,
		files:      p.Files,
	}
	if p.Archive != nil {
		srv.archive = p.Archive
	}

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.routes(cfg.CORSOrigins),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// synchronous renders hold the connection for the whole pipeline
		WriteTimeout: 15 * time.Minute,
	}

	go func() {
		log.Info("api server starting", slog.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
	if pool != nil {
		if err := pool.Close(shutdownCtx); err != nil {
			log.Warn("render pool did not drain", slog.Any("err", err))
		}
	}
	if kafkaOut != nil {
		if err := kafkaOut.Close(); err != nil {
			log.Warn("close kafka writer", slog.Any("err", err))
		}
	}
}
