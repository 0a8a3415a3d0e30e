package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/wintersoldje/econ-shorts/backend/internal/config"
	"github.com/wintersoldje/econ-shorts/backend/internal/dedupe"
	"github.com/wintersoldje/econ-shorts/backend/internal/logger"
	"github.com/wintersoldje/econ-shorts/backend/internal/models"
	"github.com/wintersoldje/econ-shorts/backend/internal/pipeline"
	"github.com/wintersoldje/econ-shorts/backend/internal/render"
)

type jobReader interface {
	Get(ctx context.Context, id string) (models.Job, error)
}

func main() {
	config.LoadDotEnv()
	log := logger.New("worker")
	cfg, err := config.LoadWorker()
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

	cache := dedupe.NewCache(cfg.DedupeCapacity, cfg.DedupeTTL)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaRenderTopic,
		GroupID:        cfg.KafkaConsumer,
		MinBytes:       1,
		MaxBytes:       1e6,
		MaxWait:        time.Second,
		CommitInterval: 0, // manual commit only
	})
	defer reader.Close()

	dlqTopic := cfg.KafkaRenderTopic + "_dlq"
	dlqWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       dlqTopic,
		MaxAttempts: 3,
	})
	defer dlqWriter.Close()

	log.Info("worker started",
		slog.String("topic", cfg.KafkaRenderTopic),
		slog.String("group", cfg.KafkaConsumer),
		slog.String("dlq_topic", dlqTopic),
	)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("context canceled, stopping")
				return
			}
			log.Error("fetch message", slog.Any("err", err))
			continue
		}

		if err := processMessage(ctx, log, p.Orchestrator, p.Jobs, cache, msg); err != nil {
			if ctx.Err() != nil {
				log.Info("stopping before commit", slog.Int64("offset", msg.Offset))
				return
			}
			log.Warn("process message failed, sending to DLQ",
				slog.Any("err", err),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)
			if !sendToDLQ(ctx, log, dlqWriter, msg, err) {
				// not committed, though a later commit on the partition moves past it
				continue
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message", slog.Any("err", err))
		}
	}
}

// processMessage runs one render request. Render failures are recorded on the
// job and are not errors here; only undeliverable requests are.
func processMessage(ctx context.Context, log *slog.Logger, runner render.JobRunner, store jobReader, cache *dedupe.Cache, msg kafka.Message) error {
	req, err := render.DecodeRequest(msg.Value)
	if err != nil {
		return err
	}
	log = log.With(slog.String("job_id", req.JobID), slog.String("kind", string(req.Kind)))

	if !cache.Claim(req.JobID) {
		log.Debug("duplicate render request")
		return nil
	}

	job, err := store.Get(ctx, req.JobID)
	if err != nil {
		cache.Release(req.JobID)
		return fmt.Errorf("load job: %w", err)
	}
	if job.Status != models.StatusQueued {
		log.Info("job no longer queued, skipping", slog.String("status", string(job.Status)))
		return nil
	}

	if err := runner.Run(ctx, req.JobID, req.Kind); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("render failed", slog.Any("err", err))
	}
	return nil
}

// sendToDLQ writes msg with error context, retrying with exponential backoff.
// It reports whether the write succeeded.
func sendToDLQ(ctx context.Context, log *slog.Logger, w interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}, msg kafka.Message, cause error) bool {
	dlqMsg := kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(msg.Headers,
			kafka.Header{Key: "original_partition", Value: []byte(fmt.Sprintf("%d", msg.Partition))},
			kafka.Header{Key: "original_offset", Value: []byte(fmt.Sprintf("%d", msg.Offset))},
			kafka.Header{Key: "error", Value: []byte(cause.Error())},
			kafka.Header{Key: "timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		),
	}

	for attempt := range 5 {
		dlqErr := w.WriteMessages(ctx, dlqMsg)
		if dlqErr == nil {
			log.Info("message sent to DLQ",
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
				slog.Int("attempt", attempt+1),
			)
			return true
		}
		backoff := time.Duration(1<<uint(attempt)) * dlqBackoffUnit
		log.Warn("DLQ write failed, retrying",
			slog.Any("err", dlqErr),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", backoff),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return false
		}
	}
	log.Error("DLQ write exhausted retries",
		slog.Int("partition", msg.Partition),
		slog.Int64("offset", msg.Offset),
	)
	return false
}

var dlqBackoffUnit = time.Second
