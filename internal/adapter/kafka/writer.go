package kafka

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/Nguyen-Quoc-Vu/covid-19-vietnam/internal/config"
	"github.com/Nguyen-Quoc-Vu/covid-19-vietnam/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes dashboard views to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic. Views are
// keyed by ID, so the hash balancer keeps every revision of a view on one
// partition and compaction retains the latest.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes every view of every snapshot and publishes them in a
// single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, snapshots []domain.Snapshot) error {
	msgs := w.buildMessages(snapshots)
	if len(msgs) == 0 {
		return nil
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	w.logger.Debug("views published", "count", len(msgs))
	return nil
}

// buildMessages converts views to messages. A view that cannot be serialized
// is logged and skipped; the rest of the batch is still published.
func (w *Writer) buildMessages(snapshots []domain.Snapshot) []kafkago.Message {
	var msgs []kafkago.Message
	for _, snap := range snapshots {
		for i := range snap.Views {
			msg, err := serializeToMessage(snap.Views[i])
			if err != nil {
				w.logger.Error("skipping unserializable view", "view", snap.Views[i].ID, "error", err)
				continue
			}
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a view into a Kafka message. Headers are sorted
// by key so the wire form is deterministic.
func serializeToMessage(v domain.View) (kafkago.Message, error) {
	out, err := domain.SerializeView(v)
	if err != nil {
		return kafkago.Message{}, err
	}

	headers := make([]kafkago.Header, 0, len(out.Headers))
	for _, k := range slices.Sorted(maps.Keys(out.Headers)) {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(out.Headers[k])})
	}
	return kafkago.Message{
		Key:     out.Key,
		Value:   out.Value,
		Headers: headers,
	}, nil
}
