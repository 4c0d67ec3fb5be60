package service

import (
	"context"
	"fmt"

	"clinicflow/internal/scheduling"
	"clinicflow/pkg/config"
	apperrors "clinicflow/pkg/errors"
	"clinicflow/pkg/model"
)

// ResolutionService finds overlapping appointments for a day and proposes,
// or applies, moves that clear them.
type ResolutionService interface {
	DetectConflicts(ctx context.Context, date, providerID string) ([]model.ConflictRecord, error)
	ResolveConflicts(ctx context.Context, date, providerID string, apply bool) (*model.ResolutionReport, error)
}

type resolutionService struct {
	bookings  BookingService
	providers ProviderDirectory
	less      scheduling.Less
	cfg       *config.Config
}

// NewResolutionService uses less to decide which member of a conflict keeps
// its slot; nil keeps the earliest booked.
func NewResolutionService(bookings BookingService, providers ProviderDirectory, less scheduling.Less, cfg *config.Config) ResolutionService {
	if less == nil {
		less = scheduling.CreationOrder
	}
	return &resolutionService{
		bookings:  bookings,
		providers: providers,
		less:      less,
		cfg:       cfg,
	}
}

// DetectConflicts covers every provider of date when providerID is empty.
func (s *resolutionService) DetectConflicts(ctx context.Context, date, providerID string) ([]model.ConflictRecord, error) {
	day, err := s.load(ctx, date, providerID)
	if err != nil {
		return nil, err
	}
	return scheduling.Detect(day), nil
}

func (s *resolutionService) ResolveConflicts(ctx context.Context, date, providerID string, apply bool) (*model.ResolutionReport, error) {
	day, err := s.load(ctx, date, providerID)
	if err != nil {
		return nil, err
	}

	windows, err := s.windows(ctx, day)
	if err != nil {
		return nil, err
	}

	conflicts := scheduling.Detect(day)
	resolver := scheduling.Resolver{
		Window: func(id string) scheduling.Window { return windows[id] },
		Less:   s.less,
	}
	resolution := resolver.Resolve(day, conflicts, s.cfg.SlotIntervalMin)

	report := &model.ResolutionReport{
		Date:       date,
		ProviderID: providerID,
		Conflicts:  conflicts,
		Moves:      resolution.Moves,
		Unresolved: resolution.Unresolved,
		Remaining:  scheduling.Detect(scheduling.ApplyMoves(day, resolution.Moves)),
	}

	s.cfg.Log.Info("Conflict resolution proposed",
		"date", date,
		"provider_id", providerID,
		"conflicts", len(conflicts),
		"moves", len(resolution.Moves),
		"unresolved", len(resolution.Unresolved),
	)

	if !apply || len(resolution.Moves) == 0 {
		return report, nil
	}

	report.Applied = true
	report.Failed = []model.ItemFailure{}
	for _, move := range resolution.Moves {
		req := &model.MoveRequest{Date: move.Date, Time: move.ToTime}
		if _, err := s.bookings.Move(ctx, move.AppointmentID, req); err != nil {
			s.cfg.Log.Warn("Failed to apply proposed move",
				"id", move.AppointmentID,
				"to_time", move.ToTime,
				"error", err,
			)
			report.Failed = append(report.Failed, itemFailure(move.AppointmentID, err))
		}
	}

	after, err := s.load(ctx, date, providerID)
	if err != nil {
		return nil, err
	}
	report.Remaining = scheduling.Detect(after)
	return report, nil
}

func (s *resolutionService) load(ctx context.Context, date, providerID string) ([]*model.Appointment, error) {
	if !scheduling.ValidDate(date) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", date))
	}
	if providerID == "" {
		return s.bookings.List(ctx, model.AppointmentFilter{Date: date})
	}
	return s.bookings.Day(ctx, date, providerID)
}

// windows looks up working hours once per provider present on the day.
func (s *resolutionService) windows(ctx context.Context, day []*model.Appointment) (map[string]scheduling.Window, error) {
	out := make(map[string]scheduling.Window)
	for _, a := range day {
		if _, ok := out[a.ProviderID]; ok {
			continue
		}
		w, err := s.providers.Window(ctx, a.ProviderID)
		if err != nil {
			s.cfg.Log.Error("Failed to look up provider hours", "provider_id", a.ProviderID, "error", err)
			return nil, apperrors.Internal("Failed to look up provider hours", err)
		}
		out[a.ProviderID] = w
	}
	return out, nil
}
