package notifications

import (
	"context"
	"fmt"
	"time"

	apperrors "clinicflow/pkg/errors"
	"clinicflow/pkg/kafka"
	"clinicflow/pkg/locale"
	"clinicflow/pkg/logger"
	"clinicflow/pkg/model"

	"github.com/go-playground/validator/v10"
)

// KafkaDispatcher turns a reminder into a ReminderRequest on the reminders
// topic. Delivery and its retries belong to the consumer.
type KafkaDispatcher struct {
	producer Publisher
	validate *validator.Validate
	source   string
	log      *logger.Logger
	now      func() time.Time
}

func NewKafkaDispatcher(producer Publisher, source string, log *logger.Logger) *KafkaDispatcher {
	return &KafkaDispatcher{
		producer: producer,
		validate: validator.New(),
		source:   source,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (d *KafkaDispatcher) Send(ctx context.Context, a *model.Appointment, channel model.Channel) error {
	req := model.ReminderRequest{
		AppointmentID: a.ID,
		Channel:       channel,
		Recipient:     recipient(a, channel),
		PatientName:   a.PatientName,
		Date:          a.Date,
		Time:          a.Time,
		ProviderID:    a.ProviderID,
		Timezone:      locale.TimezoneForPhone(a.PatientPhone),
		RequestedAt:   d.now(),
	}
	if err := d.validate.Struct(req); err != nil {
		d.log.Warn("Reminder request rejected", "id", a.ID, "channel", channel, "error", err)
		return apperrors.Validation("Reminder cannot be sent", map[string]any{"error": err.Error()})
	}

	msg, err := kafka.NewMessage().
		WithKey(a.ID).
		WithValue(req).
		WithEventType(EventReminderRequested).
		WithSchemaVersion(schemaVersion).
		WithSource(d.source).
		WithCorrelationID(correlationID(ctx)).
		Build()
	if err != nil {
		return apperrors.Internal("Failed to encode reminder request", err)
	}

	if err := d.producer.Publish(ctx, msg); err != nil {
		return apperrors.Internal(fmt.Sprintf("Failed to queue %s reminder", channel), err)
	}

	d.log.Info("Reminder queued", "id", a.ID, "channel", channel)
	return nil
}

func recipient(a *model.Appointment, channel model.Channel) string {
	if channel == model.ChannelSMS {
		return a.PatientPhone
	}
	return a.PatientEmail
}

// DisabledDispatcher is used when event publishing is switched off; every
// reminder fails as unavailable.
type DisabledDispatcher struct{}

func (DisabledDispatcher) Send(ctx context.Context, a *model.Appointment, channel model.Channel) error {
	return apperrors.Unavailable("Reminder delivery")
}
