package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
)

type SkillSummary struct {
	ID      uuid.UUID `json:"id"`
	Title   string    `json:"title"`
	Price   float64   `json:"price"`
	Address string    `json:"address"`
}

type Party struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Phone     string    `json:"phone,omitempty"`
}

// View is a booking as seen by one participant.
type View struct {
	ID          uuid.UUID            `json:"id"`
	Date        time.Time            `json:"date"`
	Status      models.BookingStatus `json:"status"`
	Incoming    bool                 `json:"incoming"`
	Closed      bool                 `json:"closed"` // no further transitions
	Skill       *SkillSummary        `json:"skill,omitempty"`
	Counterpart *Party               `json:"counterpart,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

type Lists struct {
	Incoming []View `json:"incoming"`
	Yours    []View `json:"yours"`
}

type Earnings struct {
	Total     float64 `json:"total"`
	Bookings  int     `json:"bookings"`
	Completed int     `json:"completed"`
	Upcoming  int     `json:"upcoming"`
}

type Payment struct {
	BookingID  uuid.UUID            `json:"booking_id"`
	SkillTitle string               `json:"skill_title"`
	Amount     float64              `json:"amount"`
	Status     models.BookingStatus `json:"status"`
	Date       time.Time            `json:"date"`
	Direction  string               `json:"direction"` // incoming | outgoing
}

type CalendarDay struct {
	Date     string `json:"date"`
	Bookings []View `json:"bookings"`
}

func newView(b models.Booking, viewerID uuid.UUID) View {
	v := View{
		ID:        b.ID,
		Date:      b.Date,
		Status:    b.Status,
		Incoming:  b.ProviderID == viewerID,
		Closed:    b.Status.Terminal(),
		CreatedAt: b.CreatedAt,
	}
	if b.Skill != nil {
		v.Skill = &SkillSummary{ID: b.Skill.ID, Title: b.Skill.Title, Price: b.Skill.Price, Address: b.Skill.Address}
	}

	other := b.Provider
	if v.Incoming {
		other = b.Customer
	}
	if other != nil {
		v.Counterpart = &Party{ID: other.ID, Name: other.Name, AvatarURL: other.AvatarURL}
		// contact details only once the provider has accepted
		if b.Status == models.BookingApproved {
			v.Counterpart.Phone = other.Phone
		}
	}
	return v
}
