package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	EventInsert        = "INSERT"
	EventBookingCreate = "booking_created"
	EventBookingStatus = "booking_status"
	EventChatMessage   = "chat_message"
)

var ErrSubscriptionClosed = errors.New("realtime: subscription closed")

// Event is a row-level change notification.
type Event struct {
	Type   string          `json:"type"`
	Table  string          `json:"table,omitempty"`
	Record json.RawMessage `json:"record,omitempty"`
	At     time.Time       `json:"at"`
}

func NewEvent(typ, table string, record any) (Event, error) {
	b, err := json.Marshal(record)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: typ, Table: table, Record: b, At: time.Now().UTC()}, nil
}

// Decode unmarshals the record into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Record, v)
}

func ChatTopic(chatID uuid.UUID) string {
	return "chat:" + chatID.String()
}

func UserTopic(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// Broker fans events out to every live subscription on a topic.
// Delivery is at most once per subscription, in publish order per publisher.
type Broker interface {
	Publish(ctx context.Context, topic string, ev Event) error
	Subscribe(ctx context.Context, topic string) (*Subscription, error)
}

// Subscription is a cancellable event stream. Events and Err are never closed;
// select on Done to learn that the subscription ended.
type Subscription struct {
	topic  string
	events chan Event
	errs   chan error
	done   chan struct{}

	once sync.Once
	stop func()
}

// NewSubscription is for Broker implementations. stop runs once, on Close.
func NewSubscription(topic string, buffer int, stop func()) *Subscription {
	if buffer <= 0 {
		buffer = 64
	}
	return &Subscription{
		topic:  topic,
		events: make(chan Event, buffer),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
		stop:   stop,
	}
}

func (s *Subscription) Topic() string {
	return s.topic
}

func (s *Subscription) Events() <-chan Event {
	return s.events
}

func (s *Subscription) Err() <-chan error {
	return s.errs
}

func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close is idempotent.
func (s *Subscription) Close() {
	s.once.Do(func() {
		close(s.done)
		if s.stop != nil {
			s.stop()
		}
	})
}

// Deliver never blocks; a full buffer drops the event.
func (s *Subscription) Deliver(ev Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	default:
		return false
	}
}

// Fail reports a transport error to the consumer. The subscription stays
// open; the consumer decides whether to Close.
func (s *Subscription) Fail(err error) {
	select {
	case <-s.done:
	case s.errs <- err:
	default:
	}
}

// closeOnCancel ties the subscription lifetime to ctx.
func (s *Subscription) closeOnCancel(ctx context.Context) {
	if ctx.Done() == nil {
		return
	}
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()
}
