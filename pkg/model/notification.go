package model

import "time"

type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// ReminderRequest asks the delivery service to remind a patient of an
// appointment. Delivery itself happens outside this service.
type ReminderRequest struct {
	AppointmentID string    `json:"appointment_id" validate:"required"`
	Channel       Channel   `json:"channel" validate:"required,oneof=sms email"`
	Recipient     string    `json:"recipient" validate:"required"`
	PatientName   string    `json:"patient_name" validate:"required"`
	Date          string    `json:"date" validate:"required,datetime=2006-01-02"`
	Time          string    `json:"time" validate:"required,datetime=15:04"`
	ProviderID    string    `json:"provider_id,omitempty"`
	Timezone      string    `json:"timezone" validate:"required"`
	RequestedAt   time.Time `json:"requested_at"`
}

// AvailabilityInvalidated tells real-time consumers that the slots of one
// (date, provider) changed and must be refetched.
type AvailabilityInvalidated struct {
	Date       string    `json:"date" validate:"required,datetime=2006-01-02"`
	ProviderID string    `json:"provider_id"`
	Reason     string    `json:"reason" validate:"required"`
	At         time.Time `json:"at"`
}

type StatusChanged struct {
	AppointmentID string           `json:"appointment_id" validate:"required"`
	Date          string           `json:"date"`
	ProviderID    string           `json:"provider_id,omitempty"`
	Transition    StatusTransition `json:"transition"`
}
