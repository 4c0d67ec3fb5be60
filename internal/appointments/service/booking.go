package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	appterrors "clinicflow/internal/appointments/errors"
	"clinicflow/internal/appointments/repository"
	"clinicflow/internal/appointments/validator"
	"clinicflow/internal/scheduling"
	"clinicflow/pkg/config"
	apperrors "clinicflow/pkg/errors"
	"clinicflow/pkg/model"
	"clinicflow/pkg/sanitizer"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	reasonBooked    = "booked"
	reasonMoved     = "moved"
	reasonCancelled = "cancelled"
	reasonDeleted   = "deleted"
	reasonUpdated   = "updated"
)

// BookingService is the single write path for appointments. Every booking
// and move is checked against a fresh AvailabilityIndex for its target
// (date, provider) and then committed; the store has the final word.
type BookingService interface {
	Book(ctx context.Context, appointment *model.Appointment) error
	Move(ctx context.Context, id string, req *model.MoveRequest) (*model.Appointment, error)
	Update(ctx context.Context, id string, updates *model.AppointmentUpdate) (*model.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status model.Status) (*model.Appointment, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Appointment, error)
	List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error)
	Day(ctx context.Context, date, providerID string) ([]*model.Appointment, error)
	DaySchedule(ctx context.Context, date, providerID string) (*model.DaySchedule, error)
}

type bookingService struct {
	repo      repository.AppointmentRepository
	locker    repository.SlotLocker
	validator *validator.AppointmentValidator
	providers ProviderDirectory
	events    EventPublisher
	cfg       *config.Config
	now       scheduling.TimeSource
}

func NewBookingService(
	repo repository.AppointmentRepository,
	locker repository.SlotLocker,
	validator *validator.AppointmentValidator,
	providers ProviderDirectory,
	events EventPublisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		locker:    locker,
		validator: validator,
		providers: providers,
		events:    events,
		cfg:       cfg,
		now:       scheduling.UTCNow,
	}
}

func (s *bookingService) Book(ctx context.Context, appointment *model.Appointment) error {
	s.applyDefaults(appointment)
	sanitizer.Appointment(appointment)
	canonicalizeClock(&appointment.Time)

	if err := s.validate(appointment); err != nil {
		return err
	}
	if appointment.Status != model.StatusPending && appointment.Status != model.StatusConfirmed {
		s.cfg.Log.Warn("Rejected booking with non-bookable status", "status", appointment.Status)
		return apperrors.Validation("Appointment validation failed", map[string]any{
			"Status": "new appointments must be pending or confirmed",
		})
	}
	if err := s.ensureOnGrid(ctx, appointment.ProviderID, appointment.Time, "Appointment validation failed"); err != nil {
		return err
	}

	release, err := s.lockSlot(ctx, appointment.ProviderID, appointment.Date, appointment.Time)
	if err != nil {
		return err
	}
	defer release()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.ensureFree(sessCtx, appointment.Date, appointment.ProviderID, appointment.Time, ""); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, appointment); err != nil {
			if errors.Is(err, appterrors.ErrSlotTaken) {
				return apperrors.SlotConflict(appointment.ProviderID, appointment.Date, appointment.Time)
			}
			return apperrors.Internal("Failed to create appointment", err)
		}
		return nil
	})
	if err != nil {
		s.logWriteFailure("Failed to book appointment", err,
			"provider_id", appointment.ProviderID,
			"date", appointment.Date,
			"time", appointment.Time,
		)
		return err
	}

	s.cfg.Log.Info("Appointment booked successfully",
		"id", appointment.ID,
		"provider_id", appointment.ProviderID,
		"date", appointment.Date,
		"time", appointment.Time,
	)
	s.invalidate(ctx, appointment.Date, appointment.ProviderID, reasonBooked)
	return nil
}

func (s *bookingService) Move(ctx context.Context, id string, req *model.MoveRequest) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}
	sanitizer.Move(req)
	canonicalizeClock(&req.Time)
	if err := s.validator.ValidateMove(req); err != nil {
		s.cfg.Log.Warn("Move validation failed", "id", id, "error", err)
		return nil, validationError("Move validation failed", err)
	}

	existing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !movable(existing.Status) {
		return nil, apperrors.Validation("Appointment cannot be moved", map[string]any{
			"Status": fmt.Sprintf("a %s appointment cannot be moved", existing.Status),
		})
	}

	providerID := existing.ProviderID
	if req.ProviderID != nil {
		providerID = *req.ProviderID
	}
	if existing.Date == req.Date && existing.Time == req.Time && existing.ProviderID == providerID {
		return existing, nil
	}
	if err := s.ensureOnGrid(ctx, providerID, req.Time, "Move validation failed"); err != nil {
		return nil, err
	}

	release, err := s.lockSlot(ctx, providerID, req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.ensureFree(sessCtx, req.Date, providerID, req.Time, id); err != nil {
			return err
		}
		if err := s.repo.UpdateSchedule(sessCtx, id, req.Date, req.Time, providerID); err != nil {
			switch {
			case errors.Is(err, appterrors.ErrSlotTaken):
				return apperrors.SlotConflict(providerID, req.Date, req.Time)
			case errors.Is(err, appterrors.ErrNotFound):
				return apperrors.NotFoundWithID("Appointment", id)
			}
			return apperrors.Internal("Failed to move appointment", err)
		}
		return nil
	})
	if err != nil {
		s.logWriteFailure("Failed to move appointment", err,
			"id", id,
			"provider_id", providerID,
			"date", req.Date,
			"time", req.Time,
		)
		return nil, err
	}

	moved := *existing
	moved.Date, moved.Time, moved.ProviderID = req.Date, req.Time, providerID
	moved.UpdatedAt = s.now()

	s.cfg.Log.Info("Appointment moved successfully",
		"id", id,
		"from_date", existing.Date,
		"from_time", existing.Time,
		"to_date", moved.Date,
		"to_time", moved.Time,
		"provider_id", providerID,
	)
	s.invalidate(ctx, existing.Date, existing.ProviderID, reasonMoved)
	if existing.Date != moved.Date || existing.ProviderID != moved.ProviderID {
		s.invalidate(ctx, moved.Date, moved.ProviderID, reasonMoved)
	}
	return &moved, nil
}

// Update changes descriptive fields only. Schedule changes go through Move
// and status changes through UpdateStatus.
func (s *bookingService) Update(ctx context.Context, id string, updates *model.AppointmentUpdate) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}
	sanitizer.Update(updates)
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Appointment update validation failed", "id", id, "error", err)
		return nil, validationError("Invalid update input", err)
	}

	existing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateFields(ctx, id, updates); err != nil {
		if errors.Is(err, appterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Appointment", id)
		}
		s.cfg.Log.Error("Failed to update appointment", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update appointment", err)
	}

	updated := mergeUpdate(existing, updates)
	updated.UpdatedAt = s.now()
	s.cfg.Log.Info("Appointment updated successfully", "id", id)
	if updates.DurationMin != nil && *updates.DurationMin != existing.DurationMin {
		s.invalidate(ctx, updated.Date, updated.ProviderID, reasonUpdated)
	}
	return updated, nil
}

// UpdateStatus moves an appointment along the status state machine. The
// write only lands if the stored status is still the one the transition was
// checked against.
func (s *bookingService) UpdateStatus(ctx context.Context, id string, status model.Status) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}
	if err := s.validator.ValidateStatus(status); err != nil {
		return nil, validationError("Invalid status", err)
	}

	existing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	transition, err := scheduling.Transition(existing.Status, status, s.now)
	if err != nil {
		s.cfg.Log.Warn("Rejected status transition",
			"id", id,
			"from", existing.Status,
			"to", status,
		)
		appErr := apperrors.InvalidTransition(id, string(existing.Status), string(status))
		appErr.Details["allowed"] = scheduling.AllowedTransitions(existing.Status)
		appErr.Err = err
		return nil, appErr
	}

	if err := s.repo.UpdateStatus(ctx, id, transition); err != nil {
		switch {
		case errors.Is(err, appterrors.ErrStaleStatus):
			return nil, apperrors.Conflict("Appointment status changed concurrently, reload and retry")
		case errors.Is(err, appterrors.ErrNotFound):
			return nil, apperrors.NotFoundWithID("Appointment", id)
		}
		s.cfg.Log.Error("Failed to update appointment status", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update appointment status", err)
	}

	updated := *existing
	updated.Status = status
	updated.StatusHistory = append(append([]model.StatusTransition(nil), existing.StatusHistory...), transition)
	updated.UpdatedAt = transition.At

	s.cfg.Log.Info("Appointment status changed",
		"id", id,
		"from", transition.From,
		"to", transition.To,
	)
	if err := s.events.StatusChanged(ctx, &updated, transition); err != nil {
		s.cfg.Log.Warn("Failed to publish status change", "id", id, "error", err)
	}
	if !status.Occupies() {
		s.invalidate(ctx, updated.Date, updated.ProviderID, reasonCancelled)
	}
	return &updated, nil
}

func (s *bookingService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Appointment ID cannot be empty")
	}

	existing, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, appterrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Appointment", id)
		}
		s.cfg.Log.Error("Failed to delete appointment", "id", id, "error", err)
		return apperrors.Internal("Failed to delete appointment", err)
	}

	s.cfg.Log.Info("Appointment deleted successfully", "id", id)
	if existing.Status.Occupies() {
		s.invalidate(ctx, existing.Date, existing.ProviderID, reasonDeleted)
	}
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}
	return s.find(ctx, id)
}

// List narrows by the structured filter fields in the store and applies the
// free-text term in memory.
func (s *bookingService) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	sanitizer.Filter(&filter)
	if filter.Date != "" && !scheduling.ValidDate(filter.Date) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", filter.Date))
	}
	if filter.Status != "" && !scheduling.ValidStatus(filter.Status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q", filter.Status))
	}

	appointments, err := s.repo.List(ctx, filter)
	if err != nil {
		s.cfg.Log.Error("Failed to list appointments", "error", err)
		return nil, apperrors.Internal("Failed to list appointments", err)
	}

	result := scheduling.Filter(appointments, filter)
	s.cfg.Log.Debug("Appointment search completed",
		"date", filter.Date,
		"provider_id", filter.ProviderID,
		"status", filter.Status,
		"count", len(result),
	)
	return result, nil
}

// Day returns every appointment of date assigned to exactly providerID;
// an empty providerID selects the unassigned appointments.
func (s *bookingService) Day(ctx context.Context, date, providerID string) ([]*model.Appointment, error) {
	if !scheduling.ValidDate(date) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", date))
	}
	day, err := s.loadDay(ctx, date, providerID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load day", err)
	}
	return day, nil
}

// DaySchedule annotates the provider's slots with their occupants. An empty
// providerID gives the practice-wide view over all providers using the
// default window.
func (s *bookingService) DaySchedule(ctx context.Context, date, providerID string) (*model.DaySchedule, error) {
	if !scheduling.ValidDate(date) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", date))
	}

	window, err := s.window(ctx, providerID)
	if err != nil {
		return nil, err
	}

	appointments, err := s.repo.List(ctx, model.AppointmentFilter{Date: date, ProviderID: providerID})
	if err != nil {
		s.cfg.Log.Error("Failed to load day schedule", "date", date, "provider_id", providerID, "error", err)
		return nil, apperrors.Internal("Failed to load day schedule", err)
	}

	idx := scheduling.BuildIndex(appointments, date, providerID)
	return &model.DaySchedule{
		Date:        date,
		ProviderID:  providerID,
		WorkStart:   window.StartLabel(),
		WorkEnd:     window.EndLabel(),
		IntervalMin: s.cfg.SlotIntervalMin,
		Slots:       idx.Slots(window, s.cfg.SlotIntervalMin),
	}, nil
}

// --- Helpers ---

func (s *bookingService) applyDefaults(a *model.Appointment) {
	a.ID = ""
	a.StatusHistory = nil
	if a.Status == "" {
		a.Status = model.StatusPending
	}
	if a.DurationMin == 0 {
		a.DurationMin = s.cfg.DefaultDurationMin
	}
}

func (s *bookingService) validate(a *model.Appointment) error {
	if err := s.validator.Validate(a); err != nil {
		s.cfg.Log.Warn("Appointment validation failed", "error", err)
		return validationError("Appointment validation failed", err)
	}
	return nil
}

func (s *bookingService) find(ctx context.Context, id string) (*model.Appointment, error) {
	appointment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Appointment", id)
		}
		if errors.Is(err, appterrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid appointment ID format")
		}
		s.cfg.Log.Error("Failed to retrieve appointment", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve appointment", err)
	}
	return appointment, nil
}

func (s *bookingService) loadDay(ctx context.Context, date, providerID string) ([]*model.Appointment, error) {
	all, err := s.repo.List(ctx, model.AppointmentFilter{Date: date, ProviderID: providerID})
	if err != nil {
		return nil, err
	}
	day := make([]*model.Appointment, 0, len(all))
	for _, a := range all {
		if a.ProviderID == providerID {
			day = append(day, a)
		}
	}
	return day, nil
}

// ensureFree rebuilds the index for the target day and rejects an occupied
// label. excludeID lets a move ignore the appointment being moved.
func (s *bookingService) ensureFree(ctx context.Context, date, providerID, clock, excludeID string) error {
	day, err := s.loadDay(ctx, date, providerID)
	if err != nil {
		return apperrors.Internal("Failed to check slot availability", err)
	}
	idx := scheduling.BuildIndex(day, date, providerID)
	if !idx.IsAvailableExcept(clock, excludeID) {
		return apperrors.SlotConflict(providerID, date, clock)
	}
	return nil
}

// ensureOnGrid rejects a start time that is not one of the provider's slot
// labels.
func (s *bookingService) ensureOnGrid(ctx context.Context, providerID, clock, message string) error {
	window, err := s.window(ctx, providerID)
	if err != nil {
		return err
	}
	if slices.Contains(window.Slots(s.cfg.SlotIntervalMin), clock) {
		return nil
	}

	s.cfg.Log.Warn("Rejected start time off the slot grid",
		"provider_id", providerID,
		"time", clock,
		"interval_min", s.cfg.SlotIntervalMin,
	)
	return apperrors.Validation(message, map[string]any{
		"Time": fmt.Sprintf("%s is not a bookable slot between %s and %s", clock, window.StartLabel(), window.EndLabel()),
	})
}

func (s *bookingService) lockSlot(ctx context.Context, providerID, date, clock string) (func(), error) {
	key := repository.SlotKey(providerID, date, clock)
	owner := uuid.NewString()

	if err := s.locker.Acquire(ctx, key, owner, s.cfg.SlotLockTTL); err != nil {
		if errors.Is(err, appterrors.ErrLockHeld) {
			s.cfg.Log.Warn("Slot is being booked by another request", "key", key)
			return nil, apperrors.SlotConflict(providerID, date, clock)
		}
		s.cfg.Log.Error("Failed to acquire slot lock", "key", key, "error", err)
		return nil, apperrors.Internal("Failed to acquire slot lock", err)
	}

	return func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, owner); err != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "key", key, "error", err)
		}
	}, nil
}

func (s *bookingService) window(ctx context.Context, providerID string) (scheduling.Window, error) {
	window, err := s.providers.Window(ctx, providerID)
	if err != nil {
		s.cfg.Log.Error("Failed to look up provider hours", "provider_id", providerID, "error", err)
		return scheduling.Window{}, apperrors.Internal("Failed to look up provider hours", err)
	}
	return window, nil
}

func (s *bookingService) invalidate(ctx context.Context, date, providerID, reason string) {
	if err := s.events.AvailabilityInvalidated(ctx, date, providerID, reason); err != nil {
		s.cfg.Log.Warn("Failed to publish availability invalidation",
			"date", date,
			"provider_id", providerID,
			"error", err,
		)
	}
}

func (s *bookingService) logWriteFailure(msg string, err error, args ...any) {
	args = append(args, "error", err)
	switch apperrors.CodeOf(err) {
	case apperrors.CodeSlotConflict, apperrors.CodeNotFound:
		s.cfg.Log.Warn(msg, args...)
	default:
		s.cfg.Log.Error(msg, args...)
	}
}

func movable(status model.Status) bool {
	return scheduling.ValidStatus(status) && !scheduling.IsTerminal(status)
}

func canonicalizeClock(label *string) {
	if c, err := scheduling.CanonicalClock(*label); err == nil {
		*label = c
	}
}

func mergeUpdate(existing *model.Appointment, updates *model.AppointmentUpdate) *model.Appointment {
	merged := *existing

	if updates.Type != "" {
		merged.Type = updates.Type
	}
	if updates.DurationMin != nil {
		merged.DurationMin = *updates.DurationMin
	}
	if updates.PatientName != "" {
		merged.PatientName = updates.PatientName
	}
	if updates.PatientPhone != "" {
		merged.PatientPhone = updates.PatientPhone
	}
	if updates.PatientEmail != "" {
		merged.PatientEmail = updates.PatientEmail
	}
	if updates.Notes != nil {
		merged.Notes = *updates.Notes
	}

	return &merged
}

func validationError(message string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Fields())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
