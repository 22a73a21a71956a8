package chat

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
)

// Timeline is the client-side view of one chat. Duplicates are detected by
// message id only; two distinct rows with identical content both appear.
type Timeline struct {
	mu   sync.RWMutex
	msgs []models.Message
	seen map[uuid.UUID]struct{}
}

func NewTimeline(initial []models.Message) *Timeline {
	t := &Timeline{seen: make(map[uuid.UUID]struct{}, len(initial))}
	for _, m := range initial {
		t.append(m)
	}
	return t
}

// Append adds m at the end unless its id is already present.
func (t *Timeline) Append(m models.Message) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.append(m)
}

func (t *Timeline) append(m models.Message) bool {
	if _, ok := t.seen[m.ID]; ok {
		return false
	}
	t.seen[m.ID] = struct{}{}
	t.msgs = append(t.msgs, m)
	return true
}

// Messages returns a copy in delivery order.
func (t *Timeline) Messages() []models.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.Message, len(t.msgs))
	copy(out, t.msgs)
	return out
}

// Reconciled returns a copy ordered by creation time, ties broken by id.
func (t *Timeline) Reconciled() []models.Message {
	out := t.Messages()
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.msgs)
}
