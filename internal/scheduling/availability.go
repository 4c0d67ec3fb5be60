package scheduling

import (
	"clinicflow/pkg/model"
)

// AvailabilityIndex maps slot labels to the appointments starting there for
// one (date, provider). It is a point-in-time snapshot: build a new one
// whenever the appointment set changes.
type AvailabilityIndex struct {
	date       string
	providerID string
	byLabel    map[string][]*model.Appointment
	spans      []span
}

type span struct {
	id    string
	start int
	end   int
}

// BuildIndex groups the occupying appointments of date by start label. An
// empty providerID indexes every provider's appointments together.
// Cancelled appointments do not occupy a slot.
func BuildIndex(appointments []*model.Appointment, date, providerID string) *AvailabilityIndex {
	idx := &AvailabilityIndex{
		date:       date,
		providerID: providerID,
		byLabel:    make(map[string][]*model.Appointment),
	}

	for _, a := range appointments {
		if a == nil || a.Date != date || !a.Status.Occupies() {
			continue
		}
		if providerID != "" && a.ProviderID != providerID {
			continue
		}
		idx.byLabel[a.Time] = append(idx.byLabel[a.Time], a)

		start, err := ParseClock(a.Time)
		if err != nil {
			continue
		}
		idx.spans = append(idx.spans, span{id: a.ID, start: start, end: start + durationOf(a)})
	}

	for _, occupants := range idx.byLabel {
		sortByCreation(occupants)
	}
	return idx
}

func (idx *AvailabilityIndex) Date() string {
	return idx.date
}

func (idx *AvailabilityIndex) ProviderID() string {
	return idx.providerID
}

// IsAvailable reports whether no appointment starts at label.
func (idx *AvailabilityIndex) IsAvailable(label string) bool {
	return len(idx.byLabel[label]) == 0
}

// Occupants lists the appointments starting at label, earliest booked first.
// The result is never nil.
func (idx *AvailabilityIndex) Occupants(label string) []*model.Appointment {
	if occupants := idx.byLabel[label]; occupants != nil {
		return occupants
	}
	return []*model.Appointment{}
}

// IsAvailableExcept is IsAvailable ignoring the appointment with id.
func (idx *AvailabilityIndex) IsAvailableExcept(label, id string) bool {
	for _, a := range idx.byLabel[label] {
		if a.ID != id {
			return false
		}
	}
	return true
}

// Fits reports whether [start, start+durationMin) overlaps no indexed
// appointment other than excludeID.
func (idx *AvailabilityIndex) Fits(start, durationMin int, excludeID string) bool {
	end := start + durationMin
	for _, s := range idx.spans {
		if s.id == excludeID && excludeID != "" {
			continue
		}
		if start < s.end && s.start < end {
			return false
		}
	}
	return true
}

// Slots annotates every label of the window with its occupants.
func (idx *AvailabilityIndex) Slots(w Window, intervalMin int) []model.TimeSlot {
	labels := w.Slots(intervalMin)
	slots := make([]model.TimeSlot, 0, len(labels))
	for _, label := range labels {
		occupants := idx.Occupants(label)
		slots = append(slots, model.TimeSlot{
			Time:         label,
			Available:    len(occupants) == 0,
			Appointments: occupants,
		})
	}
	return slots
}

// Hold places a copy of a at start, replacing wherever the index held it
// before. Later lookups see the tentative placement; a is left untouched.
func (idx *AvailabilityIndex) Hold(a *model.Appointment, start int) {
	idx.release(a.ID)

	moved := *a
	moved.Time = FormatClock(start)
	idx.byLabel[moved.Time] = append(idx.byLabel[moved.Time], &moved)
	sortByCreation(idx.byLabel[moved.Time])
	idx.spans = append(idx.spans, span{id: a.ID, start: start, end: start + durationOf(a)})
}

func (idx *AvailabilityIndex) release(id string) {
	for label, occupants := range idx.byLabel {
		kept := occupants[:0:0]
		for _, o := range occupants {
			if o.ID != id {
				kept = append(kept, o)
			}
		}
		if len(kept) == 0 {
			delete(idx.byLabel, label)
			continue
		}
		idx.byLabel[label] = kept
	}

	spans := idx.spans[:0:0]
	for _, s := range idx.spans {
		if s.id != id {
			spans = append(spans, s)
		}
	}
	idx.spans = spans
}

func durationOf(a *model.Appointment) int {
	if a.DurationMin <= 0 {
		return DefaultIntervalMin
	}
	return a.DurationMin
}
