package render

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/wintersoldje/econ-shorts/backend/internal/models"
)

// Request is the message published for the worker binary.
type Request struct {
	JobID       string            `json:"job_id"`
	Kind        models.ScriptKind `json:"kind"`
	RequestedAt time.Time         `json:"requested_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaDispatcher publishes render requests to a topic consumed by workers.
type KafkaDispatcher struct {
	writer messageWriter
	topic  string
}

func NewKafkaDispatcher(brokers []string, topic string) *KafkaDispatcher {
	return &KafkaDispatcher{
		writer: kafka.NewWriter(kafka.WriterConfig{
			Brokers:     brokers,
			Topic:       topic,
			Balancer:    &kafka.Hash{},
			MaxAttempts: 3,
		}),
		topic: topic,
	}
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, jobID string, kind models.ScriptKind) error {
	payload, err := json.Marshal(Request{JobID: jobID, Kind: kind, RequestedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := d.writer.WriteMessages(ctx, kafka.Message{Key: []byte(jobID), Value: payload}); err != nil {
		return fmt.Errorf("publish to %s: %w", d.topic, err)
	}
	return nil
}

func (d *KafkaDispatcher) Close() error {
	return d.writer.Close()
}

// DecodeRequest validates a consumed render request.
func DecodeRequest(raw []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, fmt.Errorf("decode render request: %w", err)
	}
	if req.JobID == "" {
		return Request{}, fmt.Errorf("render request without job_id")
	}
	kind, err := models.ParseKind(string(req.Kind))
	if err != nil {
		return Request{}, err
	}
	req.Kind = kind
	return req, nil
}
