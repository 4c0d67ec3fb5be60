package scheduling

import (
	"sort"

	"clinicflow/pkg/model"
)

// Less orders appointments by resolution priority: the first keeps its slot.
type Less func(a, b *model.Appointment) bool

// CreationOrder ranks the first-booked appointment first, falling back to
// the id so the order is total.
func CreationOrder(a, b *model.Appointment) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

var statusRank = map[model.Status]int{
	model.StatusConfirmed: 0,
	model.StatusPending:   1,
}

// ConfirmedFirst ranks confirmed appointments ahead of pending ones and
// falls back to creation order.
func ConfirmedFirst(a, b *model.Appointment) bool {
	ra, okA := statusRank[a.Status]
	rb, okB := statusRank[b.Status]
	if !okA {
		ra = len(statusRank)
	}
	if !okB {
		rb = len(statusRank)
	}
	if ra != rb {
		return ra < rb
	}
	return CreationOrder(a, b)
}

func sortByCreation(appointments []*model.Appointment) {
	sort.SliceStable(appointments, func(i, j int) bool {
		return CreationOrder(appointments[i], appointments[j])
	})
}
