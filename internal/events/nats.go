package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/divawifi/wifi/internal/metrics"
)

// NATSBus fans events out through a NATS server so several panel instances
// share one event stream.
type NATSBus struct {
	conn   *nats.Conn
	closed atomic.Bool
	logger *slog.Logger
}

// NewNATSBus connects to url.
func NewNATSBus(url, name string, logger *slog.Logger) (*NATSBus, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSBus{conn: conn, logger: logger}, nil
}

// NewNATSBusFromConn wraps an existing connection.
func NewNATSBusFromConn(conn *nats.Conn, logger *slog.Logger) *NATSBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSBus{conn: conn, logger: logger}
}

func (b *NATSBus) Publish(_ context.Context, ev *Event) error {
	if b.closed.Load() {
		return ErrClosed
	}
	if !ValidChannel(ev.Channel) {
		return fmt.Errorf("%w: %q", ErrBadChannel, ev.Channel)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.conn.Publish(Subject(ev.Channel), data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	metrics.Get().Events.WithLabelValues(ev.Channel).Inc()
	return nil
}

func (b *NATSBus) Subscribe(_ context.Context, channel string, fn Handler) (Subscription, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}
	if channel != AllChannels && !ValidChannel(channel) {
		return nil, fmt.Errorf("%w: %q", ErrBadChannel, channel)
	}
	sub, err := b.conn.Subscribe(Subject(channel), func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			b.logger.Warn("undecodable event", "subject", msg.Subject, "error", err)
			return
		}
		if ev.Channel == "" {
			ev.Channel = channelOf(msg.Subject)
		}
		fn(&ev)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}
	return sub, nil
}

// Close drains the connection.
func (b *NATSBus) Close() error {
	if b.closed.Swap(true) {
		return ErrClosed
	}
	return b.conn.Drain()
}
