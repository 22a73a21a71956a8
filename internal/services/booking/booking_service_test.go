package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Windi-Fikriyansyah/skilllink/internal/db/dbtest"
	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
	"github.com/Windi-Fikriyansyah/skilllink/internal/realtime"
	"github.com/Windi-Fikriyansyah/skilllink/internal/repository"
)

type fixture struct {
	svc      *Service
	hub      *realtime.Hub
	customer *models.Profile
	provider *models.Profile
	skill    *models.Skill
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	gdb := dbtest.Open(t)
	ctx := context.Background()
	profiles := repository.NewProfileRepository(gdb)
	skills := repository.NewSkillRepository(gdb)

	customer := &models.Profile{Name: "Dewi", Email: "dewi@example.com", Phone: "0811", Role: models.RoleUser}
	provider := &models.Profile{Name: "Budi", Email: "budi@example.com", Phone: "0822", Role: models.RoleProvider}
	require.NoError(t, profiles.Create(ctx, customer))
	require.NoError(t, profiles.Create(ctx, provider))

	skill := &models.Skill{ProviderID: provider.ID, Title: "Guitar lessons", Category: "Music", Price: 150000, Address: "Bandung"}
	require.NoError(t, skills.Create(ctx, skill))

	hub := realtime.NewHub(nil)
	svc := NewService(repository.NewBookingRepository(gdb), hub, nil)
	return fixture{svc: svc, hub: hub, customer: customer, provider: provider, skill: skill}
}

func (f fixture) book(t *testing.T, date time.Time) *models.Booking {
	t.Helper()
	b, err := f.svc.CreateBooking(context.Background(), f.customer, f.provider.ID, f.skill.ID, date)
	require.NoError(t, err)
	return b
}

func TestCreateBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.hub.Subscribe(ctx, realtime.UserTopic(f.provider.ID))
	require.NoError(t, err)
	defer sub.Close()

	b := f.book(t, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, models.BookingPending, b.Status)
	assert.Equal(t, f.customer.ID, b.UserID)

	select {
	case ev := <-sub.Events():
		assert.Equal(t, realtime.EventBookingCreate, ev.Type)
		var got bookingEvent
		require.NoError(t, ev.Decode(&got))
		assert.Equal(t, b.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("provider was not notified")
	}
}

func TestCreateBookingRequiresRequester(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateBooking(context.Background(), nil, f.provider.ID, f.skill.ID, time.Now())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCreateBookingStoresReferencesAsGiven(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// the skill belongs to f.provider, the booking names the customer as provider
	b, err := f.svc.CreateBooking(ctx, f.customer, f.customer.ID, f.skill.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, b.Status)
	assert.Equal(t, f.customer.ID, b.ProviderID)
	assert.Equal(t, f.skill.ID, b.SkillID)
}

func TestUpdateBookingStatusIsUnconditional(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, time.Now())

	assert.ErrorIs(t, f.svc.UpdateBookingStatus(ctx, b.ID, "cancelled"), ErrInvalidStatus)
	assert.ErrorIs(t, f.svc.UpdateBookingStatus(ctx, uuid.New(), "approved"), ErrNotFound)

	// terminal states can be overwritten; last write wins
	for _, s := range []string{"completed", "pending", "rejected", "approved"} {
		require.NoError(t, f.svc.UpdateBookingStatus(ctx, b.ID, s))
	}

	v, err := f.svc.Get(ctx, f.customer.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingApproved, v.Status)
}

func TestTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("ProviderApprovesThenCompletes", func(t *testing.T) {
		b := f.book(t, time.Now())
		got, err := f.svc.Transition(ctx, f.provider.ID, b.ID, "approved")
		require.NoError(t, err)
		assert.Equal(t, models.BookingApproved, got.Status)

		got, err = f.svc.Transition(ctx, f.provider.ID, b.ID, "completed")
		require.NoError(t, err)
		assert.Equal(t, models.BookingCompleted, got.Status)

		_, err = f.svc.Transition(ctx, f.provider.ID, b.ID, "pending")
		assert.ErrorIs(t, err, ErrIllegalTransition)
	})

	t.Run("CustomerMayOnlyReject", func(t *testing.T) {
		b := f.book(t, time.Now())
		_, err := f.svc.Transition(ctx, f.customer.ID, b.ID, "approved")
		assert.ErrorIs(t, err, ErrNotAllowed)

		got, err := f.svc.Transition(ctx, f.customer.ID, b.ID, "rejected")
		require.NoError(t, err)
		assert.Equal(t, models.BookingRejected, got.Status)
	})

	t.Run("Outsider", func(t *testing.T) {
		b := f.book(t, time.Now())
		_, err := f.svc.Transition(ctx, uuid.New(), b.ID, "rejected")
		assert.ErrorIs(t, err, ErrNotParticipant)
	})

	t.Run("SkipApproval", func(t *testing.T) {
		b := f.book(t, time.Now())
		_, err := f.svc.Transition(ctx, f.provider.ID, b.ID, "completed")
		assert.ErrorIs(t, err, ErrIllegalTransition)
	})
}

type storeMock struct {
	mock.Mock
}

func (m *storeMock) Create(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *storeMock) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*models.Booking)
	return b, args.Error(1)
}

func (m *storeMock) UpdateStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *storeMock) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to models.BookingStatus) error {
	return m.Called(ctx, id, from, to).Error(0)
}

func (m *storeMock) ListForParticipant(ctx context.Context, profileID uuid.UUID) ([]models.Booking, error) {
	args := m.Called(ctx, profileID)
	list, _ := args.Get(0).([]models.Booking)
	return list, args.Error(1)
}

func TestTransitionConcurrentChange(t *testing.T) {
	store := new(storeMock)
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	b := &models.Booking{ID: uuid.New(), UserID: uuid.New(), ProviderID: uuid.New(), Status: models.BookingPending}
	store.On("GetByID", ctx, b.ID).Return(b, nil)
	store.On("CompareAndSetStatus", ctx, b.ID, models.BookingPending, models.BookingApproved).Return(repository.ErrConflict)

	_, err := svc.Transition(ctx, b.ProviderID, b.ID, "approved")
	assert.ErrorIs(t, err, ErrConcurrentUpdate)
	store.AssertExpectations(t)
}

func TestListForProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	later := f.book(t, time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC))
	sooner := f.book(t, time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, f.svc.UpdateBookingStatus(ctx, later.ID, "approved"))

	mine, err := f.svc.ListForProfile(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Empty(t, mine.Incoming)
	require.Len(t, mine.Yours, 2)
	assert.Equal(t, sooner.ID, mine.Yours[0].ID)
	assert.Equal(t, "Budi", mine.Yours[0].Counterpart.Name)
	assert.Empty(t, mine.Yours[0].Counterpart.Phone, "phone hidden while pending")
	assert.Equal(t, "0822", mine.Yours[1].Counterpart.Phone)

	theirs, err := f.svc.ListForProfile(ctx, f.provider.ID)
	require.NoError(t, err)
	assert.Empty(t, theirs.Yours)
	require.Len(t, theirs.Incoming, 2)
	assert.True(t, theirs.Incoming[0].Incoming)
	assert.Equal(t, "Dewi", theirs.Incoming[0].Counterpart.Name)
	assert.Equal(t, "Guitar lessons", theirs.Incoming[0].Skill.Title)
	assert.False(t, theirs.Incoming[0].Closed)

	require.NoError(t, f.svc.UpdateBookingStatus(ctx, sooner.ID, "rejected"))
	v, err := f.svc.Get(ctx, f.provider.ID, sooner.ID)
	require.NoError(t, err)
	assert.True(t, v.Closed, "rejected bookings offer no further actions")
}

func TestEarningsAndPayments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))
	b := f.book(t, time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC))
	f.book(t, time.Date(2025, 6, 5, 8, 0, 0, 0, time.UTC))
	require.NoError(t, f.svc.UpdateBookingStatus(ctx, a.ID, "completed"))
	require.NoError(t, f.svc.UpdateBookingStatus(ctx, b.ID, "approved"))

	e, err := f.svc.Earnings(ctx, f.provider.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, e.Bookings)
	assert.Equal(t, 1, e.Completed)
	assert.Equal(t, 1, e.Upcoming)
	assert.InDelta(t, 450000, e.Total, 0.001)

	none, err := f.svc.Earnings(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Zero(t, none.Bookings)

	pays, err := f.svc.PaymentHistory(ctx, f.customer.ID)
	require.NoError(t, err)
	require.Len(t, pays, 2)
	assert.Equal(t, b.ID, pays[0].BookingID, "newest first")
	assert.Equal(t, "outgoing", pays[0].Direction)
	assert.InDelta(t, 150000, pays[1].Amount, 0.001)
}

func TestCalendar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.book(t, time.Date(2025, 7, 4, 9, 0, 0, 0, time.UTC))
	f.book(t, time.Date(2025, 7, 4, 15, 0, 0, 0, time.UTC))
	f.book(t, time.Date(2025, 7, 20, 9, 0, 0, 0, time.UTC))
	f.book(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))

	days, err := f.svc.Calendar(ctx, f.provider.ID, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2025-07-04", days[0].Date)
	assert.Len(t, days[0].Bookings, 2)
	assert.Equal(t, "2025-07-20", days[1].Date)
}
