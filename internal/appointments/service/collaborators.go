package service

import (
	"context"

	"clinicflow/internal/scheduling"
	"clinicflow/pkg/model"
)

// ProviderDirectory supplies working hours. Unknown providers resolve to the
// practice-wide default window.
type ProviderDirectory interface {
	Window(ctx context.Context, providerID string) (scheduling.Window, error)
}

// EventPublisher announces schedule changes to real-time consumers.
type EventPublisher interface {
	AvailabilityInvalidated(ctx context.Context, date, providerID, reason string) error
	StatusChanged(ctx context.Context, appointment *model.Appointment, transition model.StatusTransition) error
}

// NotificationDispatcher hands a reminder to the delivery transport. It is
// never retried here.
type NotificationDispatcher interface {
	Send(ctx context.Context, appointment *model.Appointment, channel model.Channel) error
}
