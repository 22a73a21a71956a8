package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Windi-Fikriyansyah/skilllink/internal/metrics"
	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
	"github.com/Windi-Fikriyansyah/skilllink/internal/realtime"
	"github.com/Windi-Fikriyansyah/skilllink/internal/repository"
)

var (
	ErrUnauthenticated   = errors.New("sign in to book")
	ErrInvalidStatus     = errors.New("invalid booking status")
	ErrNotFound          = errors.New("booking not found")
	ErrNotParticipant    = errors.New("not a participant of this booking")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrNotAllowed        = errors.New("only the provider can make this change")
	ErrConcurrentUpdate  = errors.New("booking changed, reload and retry")
)

type Store interface {
	Create(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus) error
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to models.BookingStatus) error
	ListForParticipant(ctx context.Context, profileID uuid.UUID) ([]models.Booking, error)
}

type Service struct {
	store  Store
	broker realtime.Broker
	logger *zerolog.Logger
}

func NewService(store Store, broker realtime.Broker, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{store: store, broker: broker, logger: logger}
}

// CreateBooking records a pending request from requester to provider for skill
// at date. The ids are stored as given; only a signed-in requester is required.
func (s *Service) CreateBooking(ctx context.Context, requester *models.Profile, providerID, skillID uuid.UUID, date time.Time) (*models.Booking, error) {
	if requester == nil {
		return nil, ErrUnauthenticated
	}

	b := &models.Booking{
		UserID:     requester.ID,
		ProviderID: providerID,
		SkillID:    skillID,
		Date:       date.UTC(),
		Status:     models.BookingPending,
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.publish(ctx, realtime.EventBookingCreate, b)
	return b, nil
}

// UpdateBookingStatus overwrites the status. It checks neither who is calling
// nor whether the move is legal; the stored value is whatever was written last.
func (s *Service) UpdateBookingStatus(ctx context.Context, bookingID uuid.UUID, status string) error {
	next, err := models.ParseBookingStatus(status)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	if err := s.store.UpdateStatus(ctx, bookingID, next); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update booking status: %w", err)
	}
	metrics.BookingStatusChanged(string(next))

	if b, err := s.store.GetByID(ctx, bookingID); err == nil {
		s.publish(ctx, realtime.EventBookingStatus, b)
	}
	return nil
}

// Transition is the guarded status change: the actor must be a participant,
// the move must be in the transition table and approve/complete are provider-only.
func (s *Service) Transition(ctx context.Context, actorID, bookingID uuid.UUID, status string) (*models.Booking, error) {
	next, err := models.ParseBookingStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	b, err := s.store.GetByID(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}

	if !b.HasParticipant(actorID) {
		return nil, ErrNotParticipant
	}
	if !b.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, b.Status, next)
	}
	// customers may only withdraw (reject) their own pending request
	if actorID != b.ProviderID && next != models.BookingRejected {
		return nil, ErrNotAllowed
	}

	if err := s.store.CompareAndSetStatus(ctx, bookingID, b.Status, next); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrConcurrentUpdate
		}
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	metrics.BookingStatusChanged(string(next))

	b.Status = next
	s.publish(ctx, realtime.EventBookingStatus, b)
	return b, nil
}

func (s *Service) Get(ctx context.Context, viewerID, bookingID uuid.UUID) (*View, error) {
	b, err := s.store.GetByID(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if !b.HasParticipant(viewerID) {
		return nil, ErrNotParticipant
	}
	v := newView(*b, viewerID)
	return &v, nil
}

// ListForProfile splits the profile's bookings into incoming requests
// (they are the provider) and their own bookings. Both soonest first.
func (s *Service) ListForProfile(ctx context.Context, profileID uuid.UUID) (*Lists, error) {
	all, err := s.store.ListForParticipant(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	out := &Lists{Incoming: []View{}, Yours: []View{}}
	for _, b := range all {
		v := newView(b, profileID)
		if v.Incoming {
			out.Incoming = append(out.Incoming, v)
		} else {
			out.Yours = append(out.Yours, v)
		}
	}
	return out, nil
}

// Earnings sums the skill price over every booking the provider received.
func (s *Service) Earnings(ctx context.Context, providerID uuid.UUID) (*Earnings, error) {
	all, err := s.store.ListForParticipant(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	e := &Earnings{}
	for _, b := range all {
		if b.ProviderID != providerID {
			continue
		}
		e.Bookings++
		if b.Skill != nil {
			e.Total += b.Skill.Price
		}
		switch b.Status {
		case models.BookingCompleted:
			e.Completed++
		case models.BookingApproved:
			e.Upcoming++
		}
	}
	return e, nil
}

// PaymentHistory lists approved and completed bookings, newest first.
func (s *Service) PaymentHistory(ctx context.Context, profileID uuid.UUID) ([]Payment, error) {
	all, err := s.store.ListForParticipant(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	out := []Payment{}
	for _, b := range all {
		if b.Status != models.BookingApproved && b.Status != models.BookingCompleted {
			continue
		}
		p := Payment{BookingID: b.ID, Status: b.Status, Date: b.Date, Direction: "outgoing"}
		if b.ProviderID == profileID {
			p.Direction = "incoming"
		}
		if b.Skill != nil {
			p.SkillTitle = b.Skill.Title
			p.Amount = b.Skill.Price
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// Calendar groups the profile's bookings in month by day.
func (s *Service) Calendar(ctx context.Context, profileID uuid.UUID, month time.Time) ([]CalendarDay, error) {
	all, err := s.store.ListForParticipant(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	days := []CalendarDay{}
	index := map[string]int{}
	for _, b := range all {
		d := b.Date.UTC()
		if d.Before(start) || !d.Before(end) {
			continue
		}
		key := d.Format("2006-01-02")
		i, ok := index[key]
		if !ok {
			i = len(days)
			index[key] = i
			days = append(days, CalendarDay{Date: key})
		}
		days[i].Bookings = append(days[i].Bookings, newView(b, profileID))
	}
	return days, nil
}

// publish is best effort; a failed notification never fails the write.
func (s *Service) publish(ctx context.Context, typ string, b *models.Booking) {
	if s.broker == nil {
		return
	}
	ev, err := realtime.NewEvent(typ, "bookings", bookingEvent{ID: b.ID, UserID: b.UserID, ProviderID: b.ProviderID, SkillID: b.SkillID, Status: b.Status, Date: b.Date})
	if err != nil {
		s.logger.Error().Err(err).Msg("encode booking event")
		return
	}
	for _, id := range []uuid.UUID{b.UserID, b.ProviderID} {
		if err := s.broker.Publish(ctx, realtime.UserTopic(id), ev); err != nil {
			s.logger.Error().
				Err(err).
				Str("booking_id", b.ID.String()).
				Str("event", typ).
				Msg("failed to publish booking event")
		}
	}
}

type bookingEvent struct {
	ID         uuid.UUID            `json:"id"`
	UserID     uuid.UUID            `json:"user_id"`
	ProviderID uuid.UUID            `json:"provider_id"`
	SkillID    uuid.UUID            `json:"skill_id"`
	Status     models.BookingStatus `json:"status"`
	Date       time.Time            `json:"date"`
}
