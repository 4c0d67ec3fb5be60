package model

import (
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no-show"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusNoShow}

// Occupies reports whether an appointment in this status holds its slot.
func (s Status) Occupies() bool {
	return s != StatusCancelled
}

type Appointment struct {
	ID            string             `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty"`
	Date          string             `json:"date" bson:"date" validate:"required,datetime=2006-01-02"`
	Time          string             `json:"time" bson:"time" validate:"required,datetime=15:04"`
	DurationMin   int                `json:"duration_min" bson:"duration_min" validate:"required,min=1,max=720"`
	Status        Status             `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled completed no-show"`
	Type          string             `json:"type,omitempty" bson:"type" validate:"omitempty,max=100"`
	ProviderID    string             `json:"provider_id,omitempty" bson:"provider_id" validate:"omitempty,max=64"`
	PatientName   string             `json:"patient_name" bson:"patient_name" validate:"required,min=2,max=100"`
	PatientPhone  string             `json:"patient_phone,omitempty" bson:"patient_phone" validate:"required_without=PatientEmail,omitempty,e164"`
	PatientEmail  string             `json:"patient_email,omitempty" bson:"patient_email" validate:"omitempty,email"`
	Notes         string             `json:"notes,omitempty" bson:"notes" validate:"omitempty,max=2000"`
	StatusHistory []StatusTransition `json:"status_history,omitempty" bson:"status_history,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

// StatusTransition is one accepted edge of the status state machine.
type StatusTransition struct {
	From Status    `json:"from" bson:"from"`
	To   Status    `json:"to" bson:"to"`
	At   time.Time `json:"at" bson:"at"`
}

// AppointmentUpdate carries the fields a single-item editor may change.
type AppointmentUpdate struct {
	Type         string  `json:"type,omitempty" validate:"omitempty,max=100"`
	DurationMin  *int    `json:"duration_min,omitempty" validate:"omitempty,min=1,max=720"`
	PatientName  string  `json:"patient_name,omitempty" validate:"omitempty,min=2,max=100"`
	PatientPhone string  `json:"patient_phone,omitempty" validate:"omitempty,e164"`
	PatientEmail string  `json:"patient_email,omitempty" validate:"omitempty,email"`
	Notes        *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// MoveRequest is the result of a drag-and-drop reschedule.
type MoveRequest struct {
	Date       string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time       string  `json:"time" validate:"required,datetime=15:04"`
	ProviderID *string `json:"provider_id,omitempty" validate:"omitempty,max=64"`
}

type StatusChange struct {
	Status Status `json:"status" validate:"required,oneof=pending confirmed cancelled completed no-show"`
}

// AppointmentFilter narrows a collection; empty fields match everything.
type AppointmentFilter struct {
	Query      string `json:"q,omitempty"`
	Status     Status `json:"status,omitempty"`
	ProviderID string `json:"provider_id,omitempty"`
	Type       string `json:"type,omitempty"`
	Date       string `json:"date,omitempty"`
}
