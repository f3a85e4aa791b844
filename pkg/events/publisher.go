// Package events publishes match outcomes to Kafka for downstream consumers
// (settlement monitors, the web UI backend).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/thp-tushar/carbonmatch/pkg/trade"
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer MessageWriter
	logger *zap.SugaredLogger
}

// NewPublisher writes to topic on brokers, waiting for all in-sync replicas.
func NewPublisher(brokers []string, topic string, logger *zap.SugaredLogger) *Publisher {
	return NewPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}, logger)
}

func NewPublisherWithWriter(w MessageWriter, logger *zap.SugaredLogger) *Publisher {
	return &Publisher{writer: w, logger: logger}
}

func (p *Publisher) Name() string { return "kafka" }

// Report implements trade.Reporter. Messages are keyed by buy order id so
// all outcomes of one order land on the same partition.
func (p *Publisher) Report(ctx context.Context, o trade.Outcome) error {
	value, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(o.BuyOrderID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "status", Value: []byte(o.Status)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish outcome for buy order %d: %w", o.BuyOrderID, err)
	}
	p.logger.Debugw("outcome_published", "buy_order_id", o.BuyOrderID, "status", o.Status)
	return nil
}

func (p *Publisher) Close() error { return p.writer.Close() }

var _ trade.Reporter = (*Publisher)(nil)
