package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink produces events as JSON records keyed by case id, so every
// event of one case lands on one partition in order.
type KafkaSink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func NewKafkaSink(client *kgo.Client, topic string, logger *slog.Logger) *KafkaSink {
	return &KafkaSink{client: client, topic: topic, logger: logger}
}

// Publish enqueues the record and returns immediately. Delivery failures
// are logged from the produce callback.
func (s *KafkaSink) Publish(ctx context.Context, e Event) {
	value, err := json.Marshal(e)
	if err != nil {
		s.logger.ErrorContext(ctx, "encode notification", "error", err, "event_id", e.ID)
		return
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(e.CaseID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}
	// The produce must outlive the request that raised it.
	s.client.Produce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if err != nil {
			s.logger.Error("notification delivery failed",
				"error", err,
				"event_id", e.ID,
				"event_type", string(e.Type),
				"case_id", string(e.CaseID),
			)
		}
	})
}

// Flush waits for buffered records, for use during shutdown.
func (s *KafkaSink) Flush(ctx context.Context) error {
	return s.client.Flush(ctx)
}
