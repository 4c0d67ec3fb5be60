package scheduling

import (
	"sort"
	"strings"

	"clinicflow/pkg/model"
)

type dayKey struct {
	date       string
	providerID string
}

type placed struct {
	appt  *model.Appointment
	start int
	end   int
}

// Detect finds same-slot double-bookings and duration overlaps in a set of
// appointments. Appointments are compared only within the same date and
// provider; unassigned appointments form their own group. Each distinct set
// of ids is reported once per kind, and the result is ordered by date,
// provider, start, kind.
func Detect(appointments []*model.Appointment) []model.ConflictRecord {
	groups := partition(appointments)

	keys := make([]dayKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}

	seen := make(map[string]struct{})
	records := []model.ConflictRecord{}
	emit := func(rec model.ConflictRecord) {
		key := recordKey(rec)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		records = append(records, rec)
	}

	for _, k := range keys {
		day := groups[k]

		byLabel := make(map[int][]placed)
		for _, p := range day {
			byLabel[p.start] = append(byLabel[p.start], p)
		}
		for start, group := range byLabel {
			if len(group) < 2 {
				continue
			}
			end := group[0].end
			ids := make([]string, 0, len(group))
			for _, p := range group {
				end = min(end, p.end)
				ids = append(ids, p.appt.ID)
			}
			emit(model.ConflictRecord{
				Kind:           model.ConflictSameSlot,
				AppointmentIDs: ids,
				Date:           k.date,
				ProviderID:     k.providerID,
				Start:          FormatClock(start),
				End:            FormatClock(end),
			})
		}

		for _, a := range day {
			for _, b := range day {
				if a.appt == b.appt {
					continue
				}
				if b.start > a.start && b.start < a.end {
					emit(model.ConflictRecord{
						Kind:           model.ConflictDurationOverlap,
						AppointmentIDs: []string{a.appt.ID, b.appt.ID},
						Date:           k.date,
						ProviderID:     k.providerID,
						Start:          FormatClock(b.start),
						End:            FormatClock(min(a.end, b.end)),
					})
				}
			}
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		ri, rj := records[i], records[j]
		if ri.Date != rj.Date {
			return ri.Date < rj.Date
		}
		if ri.ProviderID != rj.ProviderID {
			return ri.ProviderID < rj.ProviderID
		}
		if ri.Start != rj.Start {
			return ri.Start < rj.Start
		}
		if ri.Kind != rj.Kind {
			return ri.Kind == model.ConflictSameSlot
		}
		return strings.Join(ri.AppointmentIDs, ",") < strings.Join(rj.AppointmentIDs, ",")
	})
	return records
}

// partition groups occupying appointments with a parseable start by
// (date, provider), each group in creation order.
func partition(appointments []*model.Appointment) map[dayKey][]placed {
	groups := make(map[dayKey][]placed)
	for _, a := range appointments {
		if a == nil || !a.Status.Occupies() {
			continue
		}
		start, err := ParseClock(a.Time)
		if err != nil {
			continue
		}
		k := dayKey{date: a.Date, providerID: a.ProviderID}
		groups[k] = append(groups[k], placed{appt: a, start: start, end: start + durationOf(a)})
	}
	for _, day := range groups {
		sort.SliceStable(day, func(i, j int) bool {
			return CreationOrder(day[i].appt, day[j].appt)
		})
	}
	return groups
}

func recordKey(rec model.ConflictRecord) string {
	ids := append([]string(nil), rec.AppointmentIDs...)
	sort.Strings(ids)
	return string(rec.Kind) + "|" + strings.Join(ids, ",")
}
