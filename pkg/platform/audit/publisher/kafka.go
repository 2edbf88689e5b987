// Package publisher ships audit events to Kafka.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"toolgate/pkg/platform/audit"
)

// Kafka publishes audit events to a Kafka topic using an async produce.
// Delivery failures are logged, never surfaced to the caller: the audit trail
// is best-effort by contract and must not affect primary operations.
type Kafka struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// kafkaPayload is the JSON structure written to the topic. Field names match
// audit.Event so downstream consumers can deserialize directly.
type kafkaPayload struct {
	Category  string `json:"Category"`
	Timestamp string `json:"Timestamp"`
	UserID    string `json:"UserID,omitempty"`
	Subject   string `json:"Subject"`
	Action    string `json:"Action"`
	Decision  string `json:"Decision,omitempty"`
	Reason    string `json:"Reason,omitempty"`
	RequestID string `json:"RequestID,omitempty"`
	ActorID   string `json:"ActorID,omitempty"`
}

// NewKafka constructs a Kafka audit publisher. The client is owned by the
// caller; Close only flushes.
func NewKafka(brokers []string, topic string, logger *slog.Logger) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerLinger(5*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Kafka{client: client, topic: topic, logger: logger}, nil
}

// Emit produces the event asynchronously. The returned error covers only
// marshalling; broker failures are reported via the produce callback and
// logged.
func (k *Kafka) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	payload := kafkaPayload{
		Category:  string(event.Category),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		Subject:   event.Subject,
		Action:    event.Action,
		Decision:  event.Decision,
		Reason:    event.Reason,
		RequestID: event.RequestID,
		ActorID:   event.ActorID,
	}
	if !event.UserID.IsNil() {
		payload.UserID = event.UserID.String()
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(event.Action),
		Value: value,
	}
	k.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil && k.logger != nil {
			k.logger.Warn("audit event delivery failed",
				"action", event.Action,
				"error", err,
			)
		}
	})
	return nil
}

// Close flushes pending records and releases the client.
func (k *Kafka) Close(ctx context.Context) error {
	if err := k.client.Flush(ctx); err != nil {
		return fmt.Errorf("flush audit publisher: %w", err)
	}
	k.client.Close()
	return nil
}
