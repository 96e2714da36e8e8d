package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/divawifi/wifi/internal/metrics"
)

// MemoryBus is an in-process Bus for single-node deployments and tests.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[uint64]*memorySubscription
	nextID atomic.Uint64
	closed atomic.Bool
	logger *slog.Logger
}

// NewMemoryBus creates an empty bus.
func NewMemoryBus(logger *slog.Logger) *MemoryBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryBus{subs: make(map[uint64]*memorySubscription), logger: logger}
}

func (b *MemoryBus) Publish(_ context.Context, ev *Event) error {
	if b.closed.Load() {
		return ErrClosed
	}
	if !ValidChannel(ev.Channel) {
		return fmt.Errorf("%w: %q", ErrBadChannel, ev.Channel)
	}
	metrics.Get().Events.WithLabelValues(ev.Channel).Inc()

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if sub.channel != AllChannels && sub.channel != ev.Channel {
			continue
		}
		select {
		case sub.events <- ev:
		default:
			b.logger.Warn("event dropped, subscriber too slow", "channel", ev.Channel, "id", ev.ID)
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, channel string, fn Handler) (Subscription, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}
	if channel != AllChannels && !ValidChannel(channel) {
		return nil, fmt.Errorf("%w: %q", ErrBadChannel, channel)
	}
	sub := &memorySubscription{
		id:      b.nextID.Add(1),
		channel: channel,
		events:  make(chan *Event, 256),
		done:    make(chan struct{}),
		handler: fn,
		bus:     b,
	}
	b.mu.Lock()
	b.subs[sub.id] = sub
	b.mu.Unlock()

	go sub.run(ctx)
	return sub, nil
}

// Close stops every subscription.
func (b *MemoryBus) Close() error {
	if b.closed.Swap(true) {
		return ErrClosed
	}
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[uint64]*memorySubscription)
	b.mu.Unlock()
	for _, sub := range subs {
		sub.stop()
	}
	return nil
}

type memorySubscription struct {
	id      uint64
	channel string
	events  chan *Event
	done    chan struct{}
	once    sync.Once
	handler Handler
	bus     *MemoryBus
}

func (s *memorySubscription) Unsubscribe() error {
	s.bus.mu.Lock()
	delete(s.bus.subs, s.id)
	s.bus.mu.Unlock()
	s.stop()
	return nil
}

func (s *memorySubscription) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *memorySubscription) run(ctx context.Context) {
	for {
		select {
		case ev := <-s.events:
			s.handler(ev)
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}
