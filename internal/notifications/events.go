package notifications

import (
	"context"
	"time"

	"clinicflow/pkg/kafka"
	"clinicflow/pkg/logger"
	"clinicflow/pkg/model"

	"github.com/go-playground/validator/v10"
)

// KafkaEventPublisher writes schedule change events to one topic.
// Invalidations are keyed by (date, provider) so a consumer sees them in
// order per calendar column.
type KafkaEventPublisher struct {
	producer Publisher
	validate *validator.Validate
	source   string
	log      *logger.Logger
	now      func() time.Time
}

func NewKafkaEventPublisher(producer Publisher, source string, log *logger.Logger) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		producer: producer,
		validate: validator.New(),
		source:   source,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (p *KafkaEventPublisher) AvailabilityInvalidated(ctx context.Context, date, providerID, reason string) error {
	event := model.AvailabilityInvalidated{
		Date:       date,
		ProviderID: providerID,
		Reason:     reason,
		At:         p.now(),
	}
	if err := p.validate.Struct(event); err != nil {
		return err
	}
	return p.publish(ctx, InvalidationKey(date, providerID), EventAvailabilityInvalidated, event)
}

func (p *KafkaEventPublisher) StatusChanged(ctx context.Context, a *model.Appointment, transition model.StatusTransition) error {
	event := model.StatusChanged{
		AppointmentID: a.ID,
		Date:          a.Date,
		ProviderID:    a.ProviderID,
		Transition:    transition,
	}
	if err := p.validate.Struct(event); err != nil {
		return err
	}
	return p.publish(ctx, a.ID, EventStatusChanged, event)
}

func (p *KafkaEventPublisher) publish(ctx context.Context, key, eventType string, payload any) error {
	msg, err := kafka.NewMessage().
		WithKey(key).
		WithValue(payload).
		WithEventType(eventType).
		WithSchemaVersion(schemaVersion).
		WithSource(p.source).
		WithCorrelationID(correlationID(ctx)).
		Build()
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

// InvalidationKey names the calendar column an invalidation applies to.
func InvalidationKey(date, providerID string) string {
	if providerID == "" {
		providerID = "unassigned"
	}
	return date + "/" + providerID
}

// LogEventPublisher stands in for Kafka when events are disabled.
type LogEventPublisher struct {
	log *logger.Logger
}

func NewLogEventPublisher(log *logger.Logger) *LogEventPublisher {
	return &LogEventPublisher{log: log}
}

func (p *LogEventPublisher) AvailabilityInvalidated(ctx context.Context, date, providerID, reason string) error {
	p.log.Debug("Availability invalidated", "date", date, "provider_id", providerID, "reason", reason)
	return nil
}

func (p *LogEventPublisher) StatusChanged(ctx context.Context, a *model.Appointment, transition model.StatusTransition) error {
	p.log.Debug("Appointment status changed", "id", a.ID, "from", transition.From, "to", transition.To)
	return nil
}
