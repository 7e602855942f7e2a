package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/config"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/observability"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/report"
)

// publishBatch bounds the messages handed to one WriteMessages call.
const publishBatch = 500

// Writer publishes master records to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer  *kafkago.Writer
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, metrics: metrics, logger: logger}
}

// Load serializes every master record, suspect ones included, and publishes
// them in batches keyed by record ID.
func (w *Writer) Load(ctx context.Context, out report.Output) error {
	for start := 0; start < len(out.Records); start += publishBatch {
		end := min(start+publishBatch, len(out.Records))
		msgs := make([]kafkago.Message, 0, end-start)
		for i := start; i < end; i++ {
			msg, err := serializeToMessage(out.Records[i])
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("publish records: %w", err)
		}
		if w.metrics != nil {
			w.metrics.RecordsPublished.Add(float64(len(msgs)))
		}
	}
	w.logger.Info("records published", "topic", w.writer.Topic, "count", len(out.Records))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Record into a Kafka message.
func serializeToMessage(rec domain.Record) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "country", Value: []byte(rec.Country)},
			{Key: "data_source", Value: []byte(rec.DataSource)},
			{Key: "validation", Value: []byte(rec.CommentText())},
		},
	}, nil
}
