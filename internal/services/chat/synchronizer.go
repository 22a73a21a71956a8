package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
	"github.com/Windi-Fikriyansyah/skilllink/internal/realtime"
)

var ErrAlreadyStarted = errors.New("synchronizer already started")

type HistoryLoader interface {
	History(ctx context.Context, chatID uuid.UUID) ([]models.Message, error)
}

// Synchronizer keeps a Timeline for one chat in step with the broker. It holds
// exactly one subscription between Start and Close.
type Synchronizer struct {
	chatID uuid.UUID
	loader HistoryLoader
	broker realtime.Broker
	logger *zerolog.Logger

	onAppend func(models.Message)

	mu       sync.Mutex
	timeline *Timeline
	sub      *realtime.Subscription
	done     chan struct{}
}

func NewSynchronizer(chatID uuid.UUID, loader HistoryLoader, broker realtime.Broker, logger *zerolog.Logger) *Synchronizer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("chat_id", chatID.String()).Logger()
	return &Synchronizer{chatID: chatID, loader: loader, broker: broker, logger: &l}
}

// OnAppend registers fn for every live message that lands on the timeline.
// Set it before Start; fn runs on the synchronizer goroutine.
func (s *Synchronizer) OnAppend(fn func(models.Message)) {
	s.onAppend = fn
}

// Start subscribes, then loads history. Anything published between the two
// arrives on the subscription and is dropped by id if the fetch already had it.
func (s *Synchronizer) Start(ctx context.Context) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		return nil, ErrAlreadyStarted
	}

	sub, err := s.broker.Subscribe(ctx, realtime.ChatTopic(s.chatID))
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	initial, err := s.loader.History(ctx, s.chatID)
	if err != nil {
		sub.Close()
		return nil, fmt.Errorf("load history: %w", err)
	}

	s.timeline = NewTimeline(initial)
	s.sub = sub
	s.done = make(chan struct{})
	go s.run(sub, s.timeline, s.done)

	return s.timeline.Messages(), nil
}

func (s *Synchronizer) run(sub *realtime.Subscription, tl *Timeline, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-sub.Done():
			return
		case err := <-sub.Err():
			s.logger.Error().Err(err).Msg("chat subscription failed")
			sub.Close()
			return
		case ev := <-sub.Events():
			if ev.Type != realtime.EventInsert {
				continue
			}
			var m models.Message
			if err := ev.Decode(&m); err != nil {
				s.logger.Warn().Err(err).Msg("skip undecodable message event")
				continue
			}
			if m.ChatID != s.chatID {
				continue
			}
			if tl.Append(m) && s.onAppend != nil {
				s.onAppend(m)
			}
		}
	}
}

// Snapshot returns the timeline in delivery order, nil before Start.
func (s *Synchronizer) Snapshot() []models.Message {
	s.mu.Lock()
	tl := s.timeline
	s.mu.Unlock()
	if tl == nil {
		return nil
	}
	return tl.Messages()
}

// Done is closed once the receive loop has exited.
func (s *Synchronizer) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Close drops the subscription and waits for the loop to exit.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	sub, done := s.sub, s.done
	s.mu.Unlock()
	if sub == nil {
		return
	}
	sub.Close()
	<-done
}
