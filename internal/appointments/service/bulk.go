package service

import (
	"context"
	"sync"

	"clinicflow/internal/appointments/validator"
	"clinicflow/pkg/config"
	apperrors "clinicflow/pkg/errors"
	"clinicflow/pkg/model"
)

// BulkService applies one action to many appointments. Each id is processed
// through the single-item path; one failing id never stops the rest.
type BulkService interface {
	ApplyStatus(ctx context.Context, ids []string, status model.Status) (*model.PartialResult, error)
	SendReminders(ctx context.Context, ids []string) (*model.PartialResult, error)
	Delete(ctx context.Context, ids []string) (*model.PartialResult, error)
}

type bulkService struct {
	bookings   BookingService
	dispatcher NotificationDispatcher
	validator  *validator.AppointmentValidator
	cfg        *config.Config
}

func NewBulkService(
	bookings BookingService,
	dispatcher NotificationDispatcher,
	validator *validator.AppointmentValidator,
	cfg *config.Config,
) BulkService {
	return &bulkService{
		bookings:   bookings,
		dispatcher: dispatcher,
		validator:  validator,
		cfg:        cfg,
	}
}

func (s *bulkService) ApplyStatus(ctx context.Context, ids []string, status model.Status) (*model.PartialResult, error) {
	if err := s.validator.ValidateStatus(status); err != nil {
		return nil, validationError("Invalid status", err)
	}
	return s.run(ctx, "status", ids, func(ctx context.Context, id string) error {
		_, err := s.bookings.UpdateStatus(ctx, id, status)
		return err
	})
}

func (s *bulkService) SendReminders(ctx context.Context, ids []string) (*model.PartialResult, error) {
	return s.run(ctx, "remind", ids, func(ctx context.Context, id string) error {
		appointment, err := s.bookings.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if appointment.Status != model.StatusPending && appointment.Status != model.StatusConfirmed {
			return apperrors.Validation("Reminder not sent", map[string]any{
				"Status": "reminders are only sent for pending or confirmed appointments",
			})
		}
		return s.dispatcher.Send(ctx, appointment, ReminderChannel(appointment))
	})
}

func (s *bulkService) Delete(ctx context.Context, ids []string) (*model.PartialResult, error) {
	return s.run(ctx, "delete", ids, s.bookings.Delete)
}

// run validates the selection, then processes every distinct id with at most
// BulkConcurrency in flight. Results keep the order of first appearance.
func (s *bulkService) run(ctx context.Context, action string, ids []string, fn func(context.Context, string) error) (*model.PartialResult, error) {
	if err := s.validator.ValidateIDs(ids, s.cfg.BulkMaxItems); err != nil {
		s.cfg.Log.Warn("Bulk selection rejected", "action", action, "error", err)
		return nil, validationError("Invalid bulk selection", err)
	}

	ids = dedupe(ids)
	errs := make([]error, len(ids))

	limit := s.cfg.BulkConcurrency
	if limit <= 0 {
		limit = 1
	}
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, id string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := ctx.Err(); err != nil {
				errs[i] = apperrors.Timeout("Bulk action aborted before this item ran")
				return
			}
			errs[i] = fn(ctx, id)
		}(i, id)
	}
	wg.Wait()

	result := &model.PartialResult{
		Succeeded: make([]string, 0, len(ids)),
		Failed:    []model.ItemFailure{},
	}
	for i, id := range ids {
		if errs[i] == nil {
			result.Succeeded = append(result.Succeeded, id)
			continue
		}
		result.Failed = append(result.Failed, itemFailure(id, errs[i]))
	}

	s.cfg.Log.Info("Bulk action completed",
		"action", action,
		"requested", len(ids),
		"succeeded", len(result.Succeeded),
		"failed", len(result.Failed),
	)
	return result, nil
}

// ReminderChannel picks SMS when a phone number is on file and email
// otherwise.
func ReminderChannel(a *model.Appointment) model.Channel {
	if a.PatientPhone != "" {
		return model.ChannelSMS
	}
	return model.ChannelEmail
}

func itemFailure(id string, err error) model.ItemFailure {
	appErr := apperrors.AsAppError(err)
	return model.ItemFailure{ID: id, Code: appErr.Code, Message: appErr.Message}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
