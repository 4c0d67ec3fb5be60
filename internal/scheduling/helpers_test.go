package scheduling

import (
	"time"

	"clinicflow/pkg/model"
)

var baseTime = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

// appt builds an appointment whose creation order follows seq.
func appt(id, date, provider, clock string, duration, seq int) *model.Appointment {
	return &model.Appointment{
		ID:          id,
		Date:        date,
		Time:        clock,
		DurationMin: duration,
		Status:      model.StatusConfirmed,
		ProviderID:  provider,
		PatientName: "Patient " + id,
		CreatedAt:   baseTime.Add(time.Duration(seq) * time.Minute),
	}
}

func ids(appointments []*model.Appointment) []string {
	out := make([]string, 0, len(appointments))
	for _, a := range appointments {
		out = append(out, a.ID)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
