package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/thp-tushar/carbonmatch/pkg/trade"
)

type memWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublisher_Report(t *testing.T) {
	w := &memWriter{}
	p := NewPublisherWithWriter(w, zap.NewNop().Sugar())

	out := trade.Outcome{BuyOrderID: 42, SellOrderIDs: []uint64{43}, Status: trade.StatusConfirmed, TxHash: "0x01"}
	if err := p.Report(context.Background(), out); err != nil {
		t.Fatalf("Report: %v", err)
	}

	if len(w.msgs) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "42" {
		t.Errorf("key = %q, want 42", msg.Key)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != "confirmed" {
		t.Errorf("headers = %+v", msg.Headers)
	}
	var decoded trade.Outcome
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("value is not JSON: %v", err)
	}
	if decoded.TxHash != "0x01" || decoded.BuyOrderID != 42 {
		t.Errorf("decoded = %+v", decoded)
	}

	p.Close()
	if !w.closed {
		t.Error("writer not closed")
	}
}

func TestPublisher_WriteError(t *testing.T) {
	p := NewPublisherWithWriter(&memWriter{err: errors.New("broker unreachable")}, zap.NewNop().Sugar())
	if err := p.Report(context.Background(), trade.Outcome{BuyOrderID: 1}); err == nil {
		t.Error("expected error from failing writer")
	}
}
