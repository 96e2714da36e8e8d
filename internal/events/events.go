// Package events carries script events between in-world objects and web
// clients. Objects publish over HTTP; browsers subscribe over a websocket.
package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// SubjectPrefix namespaces script-event subjects on the bus.
const SubjectPrefix = "wifi.scriptevent."

// AllChannels subscribes to every channel.
const AllChannels = "*"

var (
	// ErrClosed is returned when operating on a closed bus.
	ErrClosed = errors.New("event bus closed")
	// ErrBadChannel is returned for channel names that cannot be a subject
	// token.
	ErrBadChannel = errors.New("invalid channel name")
)

// Event is one script event.
type Event struct {
	ID       string    `json:"id"`
	Channel  string    `json:"channel"`
	ObjectID string    `json:"object_id,omitempty"`
	Body     string    `json:"body"`
	Time     time.Time `json:"time"`
}

// NewEvent stamps a new event with a ULID and the current time.
func NewEvent(channel, objectID, body string) *Event {
	return &Event{
		ID:       ulid.Make().String(),
		Channel:  channel,
		ObjectID: objectID,
		Body:     body,
		Time:     time.Now().UTC(),
	}
}

// Handler receives events. It runs on a bus goroutine and must not block
// for long.
type Handler func(ev *Event)

// Subscription is an active subscription.
type Subscription interface {
	Unsubscribe() error
}

// Bus publishes and fans out events. Implementations are safe for concurrent
// use.
type Bus interface {
	Publish(ctx context.Context, ev *Event) error
	// Subscribe delivers events on channel, or on every channel for
	// AllChannels.
	Subscribe(ctx context.Context, channel string, fn Handler) (Subscription, error)
	Close() error
}

// ValidChannel reports whether name is usable as a channel: letters,
// digits, '-' and '_' only.
func ValidChannel(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// Subject maps a channel to its bus subject.
func Subject(channel string) string {
	return SubjectPrefix + channel
}

func channelOf(subject string) string {
	return strings.TrimPrefix(subject, SubjectPrefix)
}
