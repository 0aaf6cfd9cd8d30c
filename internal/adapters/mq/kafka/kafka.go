// Package kafka publishes observations to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"github.com/okian/scorestream/internal/domain/model"
)

// EnvelopeType tags observation messages.
const EnvelopeType = "player_score.observed"

// Sentinel kinds for kafka errors.
var (
	ErrNoBrokers = errors.New("no kafka brokers")
	ErrNoTopic   = errors.New("kafka topic empty")
)

// Envelope wraps every message value.
type Envelope struct {
	Type string          `json:"type"`
	TS   int64           `json:"ts"`
	Data json.RawMessage `json:"data"`
}

// Sink sends observations synchronously, keyed by player.
type Sink struct {
	topic string
	p     sarama.SyncProducer
}

// NewSink dials brokers (comma-separated) with acks from all replicas.
func NewSink(brokersCSV, topic string) (*Sink, error) {
	brokers := SplitBrokers(brokersCSV)
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}

	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Retry.Backoff = 200 * time.Millisecond
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true

	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	s, err := NewSinkWithProducer(p, topic)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return s, nil
}

// NewSinkWithProducer uses an existing producer.
func NewSinkWithProducer(p sarama.SyncProducer, topic string) (*Sink, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, ErrNoTopic
	}
	return &Sink{topic: topic, p: p}, nil
}

// Name identifies the sink in metrics and logs.
func (s *Sink) Name() string { return "kafka" }

// Emit sends o and waits for the broker ack. The producer does not take a
// context, so ctx is only checked before sending.
func (s *Sink) Emit(ctx context.Context, o model.Observation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(o)
	if err != nil {
		return err
	}
	b, err := json.Marshal(Envelope{Type: EnvelopeType, TS: o.SeenAt.UnixMilli(), Data: data})
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(o.Record.Player),
		Value: sarama.ByteEncoder(b),
	}
	if _, _, err := s.p.SendMessage(msg); err != nil {
		return fmt.Errorf("kafka emit failed: %w", err)
	}
	return nil
}

// Close closes the producer.
func (s *Sink) Close() error {
	if s.p != nil {
		return s.p.Close()
	}
	return nil
}

// SplitBrokers splits a comma-separated broker list, dropping blanks.
func SplitBrokers(csv string) []string {
	var out []string
	for _, b := range strings.Split(csv, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
