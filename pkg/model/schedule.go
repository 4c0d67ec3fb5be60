package model

// TimeSlot is derived from the appointment set and never stored.
type TimeSlot struct {
	Time         string         `json:"time"`
	Available    bool           `json:"available"`
	Appointments []*Appointment `json:"appointments"`
}

type ConflictKind string

const (
	ConflictSameSlot        ConflictKind = "same-slot"
	ConflictDurationOverlap ConflictKind = "duration-overlap"
)

// ConflictRecord describes appointments whose wall-clock ranges overlap for
// one provider and date. Start and End bound the overlapping window.
type ConflictRecord struct {
	Kind           ConflictKind `json:"kind"`
	AppointmentIDs []string     `json:"appointment_ids"`
	Date           string       `json:"date"`
	ProviderID     string       `json:"provider_id,omitempty"`
	Start          string       `json:"start"`
	End            string       `json:"end"`
}

// MoveInstruction proposes a new start time for an appointment. It is applied
// only through the booking service.
type MoveInstruction struct {
	AppointmentID string `json:"appointment_id"`
	Date          string `json:"date"`
	ProviderID    string `json:"provider_id,omitempty"`
	FromTime      string `json:"from_time"`
	ToTime        string `json:"to_time"`
}

// UnresolvedAppointment is an appointment for which no free slot remained
// before the end of the working day.
type UnresolvedAppointment struct {
	AppointmentID string `json:"appointment_id"`
	Date          string `json:"date"`
	ProviderID    string `json:"provider_id,omitempty"`
	Time          string `json:"time"`
	Reason        string `json:"reason"`
}

type Resolution struct {
	Moves      []MoveInstruction       `json:"moves"`
	Unresolved []UnresolvedAppointment `json:"unresolved"`
}

type DaySchedule struct {
	Date        string     `json:"date"`
	ProviderID  string     `json:"provider_id,omitempty"`
	WorkStart   string     `json:"work_start"`
	WorkEnd     string     `json:"work_end"`
	IntervalMin int        `json:"interval_min"`
	Slots       []TimeSlot `json:"slots"`
}

// ResolutionReport is the outcome of detecting and resolving one day's
// conflicts. Applied and Failed are filled only when moves were applied.
type ResolutionReport struct {
	Date       string                  `json:"date"`
	ProviderID string                  `json:"provider_id,omitempty"`
	Conflicts  []ConflictRecord        `json:"conflicts"`
	Moves      []MoveInstruction       `json:"moves"`
	Unresolved []UnresolvedAppointment `json:"unresolved"`
	Applied    bool                    `json:"applied"`
	Failed     []ItemFailure           `json:"failed,omitempty"`
	Remaining  []ConflictRecord        `json:"remaining"`
}
