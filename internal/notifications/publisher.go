package notifications

import (
	"context"

	"clinicflow/pkg/kafka"
	"clinicflow/pkg/middleware"
)

const (
	EventReminderRequested       = "appointment.reminder_requested"
	EventAvailabilityInvalidated = "availability.invalidated"
	EventStatusChanged           = "appointment.status_changed"

	schemaVersion = "1"
)

// Publisher is the part of *kafka.Producer this package writes through.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// correlationID carries the HTTP request id onto outgoing events.
func correlationID(ctx context.Context) string {
	return middleware.RequestIDFrom(ctx)
}
