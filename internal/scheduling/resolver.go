package scheduling

import (
	"fmt"
	"sort"

	"clinicflow/pkg/model"
)

const ReasonNoFreeSlot = "no free slot before end of working day"

// Resolver proposes new start times for conflicting appointments. Within
// each conflict record the first appointment by Less keeps its slot; every
// other member is shifted by whole intervals to the first start where its
// full duration fits inside the working window without overlapping anything
// already placed.
type Resolver struct {
	// Window returns the working hours of a provider; nil means DefaultWindow.
	Window func(providerID string) Window
	// Less picks who keeps the slot; nil means CreationOrder.
	Less Less
}

// Resolve never mutates day. Moves are listed in the order they must be
// applied; appointments for which no slot remains are reported as
// unresolved and keep their current time.
func (r Resolver) Resolve(day []*model.Appointment, records []model.ConflictRecord, intervalMin int) model.Resolution {
	res := model.Resolution{
		Moves:      []model.MoveInstruction{},
		Unresolved: []model.UnresolvedAppointment{},
	}
	if len(records) == 0 {
		return res
	}

	less := r.Less
	if less == nil {
		less = CreationOrder
	}

	indexes := dayIndexes(day)
	byID := make(map[string]*model.Appointment, len(day))
	for _, a := range day {
		if a != nil {
			byID[a.ID] = a
		}
	}

	moverSet := make(map[string]*model.Appointment)
	for _, rec := range records {
		members := make([]*model.Appointment, 0, len(rec.AppointmentIDs))
		for _, id := range rec.AppointmentIDs {
			if a, ok := byID[id]; ok && a.Status.Occupies() {
				members = append(members, a)
			}
		}
		if len(members) < 2 {
			continue
		}
		sort.SliceStable(members, func(i, j int) bool { return less(members[i], members[j]) })
		for _, m := range members[1:] {
			moverSet[m.ID] = m
		}
	}

	movers := make([]*model.Appointment, 0, len(moverSet))
	for _, m := range moverSet {
		movers = append(movers, m)
	}
	sort.SliceStable(movers, func(i, j int) bool {
		a, b := movers[i], movers[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.ProviderID != b.ProviderID {
			return a.ProviderID < b.ProviderID
		}
		return less(a, b)
	})

	for _, m := range movers {
		k := dayKey{date: m.Date, providerID: m.ProviderID}
		window := r.windowFor(m.ProviderID)

		if intervalMin <= 0 {
			res.Unresolved = append(res.Unresolved, unresolved(m, fmt.Sprintf("interval must be positive, got %d", intervalMin)))
			continue
		}

		start, err := ParseClock(m.Time)
		if err != nil {
			res.Unresolved = append(res.Unresolved, unresolved(m, fmt.Sprintf("start time %q is not a valid clock label", m.Time)))
			continue
		}

		idx := indexes[k]
		target, ok := firstFit(idx, m, start, window, intervalMin)
		if !ok {
			res.Unresolved = append(res.Unresolved, unresolved(m, ReasonNoFreeSlot))
			continue
		}

		idx.Hold(m, target)
		res.Moves = append(res.Moves, model.MoveInstruction{
			AppointmentID: m.ID,
			Date:          m.Date,
			ProviderID:    m.ProviderID,
			FromTime:      m.Time,
			ToTime:        FormatClock(target),
		})
	}

	return res
}

func (r Resolver) windowFor(providerID string) Window {
	if r.Window == nil {
		return DefaultWindow
	}
	return r.Window(providerID)
}

// dayIndexes builds one AvailabilityIndex per (date, provider) present in
// day.
func dayIndexes(day []*model.Appointment) map[dayKey]*AvailabilityIndex {
	groups := partition(day)
	out := make(map[dayKey]*AvailabilityIndex, len(groups))
	for k, group := range groups {
		appointments := make([]*model.Appointment, 0, len(group))
		for _, p := range group {
			appointments = append(appointments, p.appt)
		}
		out[k] = BuildIndex(appointments, k.date, k.providerID)
	}
	return out
}

// firstFit tries start+k*interval for k = 1, 2, ... until the appointment
// would run past the end of the window.
func firstFit(idx *AvailabilityIndex, m *model.Appointment, start int, w Window, intervalMin int) (int, bool) {
	duration := durationOf(m)
	for candidate := start + intervalMin; candidate+duration <= w.End; candidate += intervalMin {
		if candidate < w.Start {
			continue
		}
		if idx.Fits(candidate, duration, m.ID) {
			return candidate, true
		}
	}
	return 0, false
}

func unresolved(a *model.Appointment, reason string) model.UnresolvedAppointment {
	return model.UnresolvedAppointment{
		AppointmentID: a.ID,
		Date:          a.Date,
		ProviderID:    a.ProviderID,
		Time:          a.Time,
		Reason:        reason,
	}
}

// ApplyMoves returns a copy of day with the moves applied, for previews and
// dry runs. Appointments not named by a move are shared, not copied.
func ApplyMoves(day []*model.Appointment, moves []model.MoveInstruction) []*model.Appointment {
	to := make(map[string]string, len(moves))
	for _, mv := range moves {
		to[mv.AppointmentID] = mv.ToTime
	}

	out := make([]*model.Appointment, 0, len(day))
	for _, a := range day {
		if t, ok := to[a.ID]; ok {
			moved := *a
			moved.Time = t
			out = append(out, &moved)
			continue
		}
		out = append(out, a)
	}
	return out
}
