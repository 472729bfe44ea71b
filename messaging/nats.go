package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// NATSBroker publishes events on "<prefix>.<type>" and subscribes to "<prefix>.*".
type NATSBroker struct {
	conn   *nats.Conn
	prefix string
}

func NewNATSBroker(url, prefix string) (*NATSBroker, error) {
	conn, err := nats.Connect(url, nats.Name("ai-podcast-backend"))
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	slog.Info("NATS connected", "url", url, "prefix", prefix)
	return &NATSBroker{conn: conn, prefix: prefix}, nil
}

func (b *NATSBroker) subject(t EventType) string {
	return b.prefix + "." + string(t)
}

func (b *NATSBroker) Publish(_ context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.conn.Publish(b.subject(evt.Type), data); err != nil {
		return fmt.Errorf("publish %s: %w", evt.Type, err)
	}
	return nil
}

func (b *NATSBroker) Subscribe(h Handler) (func(), error) {
	sub, err := b.conn.Subscribe(b.prefix+".*", func(msg *nats.Msg) {
		var evt Event
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			slog.Warn("dropping malformed podcast event", "subject", msg.Subject, "error", err)
			return
		}
		h(evt)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s.*: %w", b.prefix, err)
	}
	return func() {
		if err := sub.Unsubscribe(); err != nil {
			slog.Warn("nats unsubscribe failed", "error", err)
		}
	}, nil
}

func (b *NATSBroker) Close() error {
	return b.conn.Drain()
}
