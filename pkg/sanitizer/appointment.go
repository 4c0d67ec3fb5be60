package sanitizer

import "clinicflow/pkg/model"

// Appointment normalizes the free-text fields of a in place. A phone that
// cannot be normalized is left as typed so the validator reports it.
func Appointment(a *model.Appointment) {
	a.Date = TrimAndNormalize(a.Date)
	a.Time = TrimAndNormalize(a.Time)
	a.Type = NormalizeLabel(a.Type)
	a.ProviderID = TrimAndNormalize(a.ProviderID)
	a.PatientName = NormalizeName(a.PatientName)
	a.PatientEmail = NormalizeEmail(a.PatientEmail)
	a.Notes = NormalizeNotes(a.Notes)
	a.PatientPhone = phoneOrRaw(a.PatientPhone)
}

func Update(u *model.AppointmentUpdate) {
	u.Type = NormalizeLabel(u.Type)
	u.PatientName = NormalizeName(u.PatientName)
	u.PatientEmail = NormalizeEmail(u.PatientEmail)
	u.PatientPhone = phoneOrRaw(u.PatientPhone)
	if u.Notes != nil {
		notes := NormalizeNotes(*u.Notes)
		u.Notes = &notes
	}
}

func Move(m *model.MoveRequest) {
	m.Date = TrimAndNormalize(m.Date)
	m.Time = TrimAndNormalize(m.Time)
	if m.ProviderID != nil {
		id := TrimAndNormalize(*m.ProviderID)
		m.ProviderID = &id
	}
}

func Filter(f *model.AppointmentFilter) {
	f.Query = TrimAndNormalize(f.Query)
	f.ProviderID = TrimAndNormalize(f.ProviderID)
	f.Type = NormalizeLabel(f.Type)
	f.Date = TrimAndNormalize(f.Date)
}

func phoneOrRaw(phone string) string {
	if normalized := NormalizePhone(phone); normalized != "" {
		return normalized
	}
	return TrimAndNormalize(phone)
}
