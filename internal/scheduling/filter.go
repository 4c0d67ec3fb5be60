package scheduling

import (
	"strings"

	"clinicflow/pkg/model"
)

// Matches reports whether a satisfies every non-empty field of f. The free
// text term is matched case-insensitively against patient contact fields,
// notes, type and id.
func Matches(a *model.Appointment, f model.AppointmentFilter) bool {
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.ProviderID != "" && a.ProviderID != f.ProviderID {
		return false
	}
	if f.Type != "" && !strings.EqualFold(a.Type, f.Type) {
		return false
	}
	if f.Date != "" && a.Date != f.Date {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		fields := []string{a.PatientName, a.PatientPhone, a.PatientEmail, a.Notes, a.Type, a.ID}
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field), q) {
				return true
			}
		}
		return false
	}
	return true
}

// Filter returns the appointments matching f, keeping their order.
func Filter(appointments []*model.Appointment, f model.AppointmentFilter) []*model.Appointment {
	out := make([]*model.Appointment, 0, len(appointments))
	for _, a := range appointments {
		if a != nil && Matches(a, f) {
			out = append(out, a)
		}
	}
	return out
}
