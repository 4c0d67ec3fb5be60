package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	appterrors "clinicflow/internal/appointments/errors"
	"clinicflow/internal/scheduling"
	apperrors "clinicflow/pkg/errors"
	"clinicflow/pkg/model"
)

const day = "2026-03-02"

func TestBook_AppliesDefaults(t *testing.T) {
	f := newFixture()
	a := newAppointment(day, "9:00", "dr-cohen")

	if err := f.bookings.Book(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.ID == "" {
		t.Fatal("expected an id to be assigned")
	}
	if a.Status != model.StatusPending {
		t.Errorf("expected pending, got %q", a.Status)
	}
	if a.DurationMin != 30 {
		t.Errorf("expected default duration 30, got %d", a.DurationMin)
	}
	if a.Time != "09:00" {
		t.Errorf("expected canonical time 09:00, got %q", a.Time)
	}
	if len(f.locker.held) != 0 {
		t.Errorf("expected slot lock to be released, still held: %v", f.locker.held)
	}
	if len(f.publisher.invalidations) != 1 || f.publisher.invalidations[0] != day+"/dr-cohen/booked" {
		t.Errorf("unexpected invalidations: %v", f.publisher.invalidations)
	}
}

func TestBook_DoubleBookingRejected(t *testing.T) {
	f := newFixture()
	mustBook(t, f, newAppointment(day, "10:00", "dr-cohen"))

	err := f.bookings.Book(context.Background(), newAppointment(day, "10:00", "dr-cohen"))
	if !apperrors.HasCode(err, apperrors.CodeSlotConflict) {
		t.Fatalf("expected slot conflict, got %v", err)
	}
	if f.repo.count() != 1 {
		t.Errorf("expected the first booking to stay the only one, got %d", f.repo.count())
	}
}

func TestBook_OtherProviderSameSlot(t *testing.T) {
	f := newFixture()
	mustBook(t, f, newAppointment(day, "10:00", "dr-cohen"))
	mustBook(t, f, newAppointment(day, "10:00", "dr-levi"))

	if f.repo.count() != 2 {
		t.Errorf("expected 2 appointments, got %d", f.repo.count())
	}
}

func TestBook_StoreDuplicateMapsToSlotConflict(t *testing.T) {
	f := newFixture()
	mustBook(t, f, newAppointment(day, "11:00", "dr-cohen"))

	// A stale read: the availability check sees an empty day but the store
	// still refuses the second occupant.
	f.repo.listFunc = func(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
		return []*model.Appointment{}, nil
	}

	err := f.bookings.Book(context.Background(), newAppointment(day, "11:00", "dr-cohen"))
	if !apperrors.HasCode(err, apperrors.CodeSlotConflict) {
		t.Fatalf("expected slot conflict, got %v", err)
	}
}

func TestBook_LockHeldIsSlotConflict(t *testing.T) {
	f := newFixture()
	f.locker.held["slot_lock_dr-cohen_"+day+"_12:00"] = "someone-else"

	err := f.bookings.Book(context.Background(), newAppointment(day, "12:00", "dr-cohen"))
	if !apperrors.HasCode(err, apperrors.CodeSlotConflict) {
		t.Fatalf("expected slot conflict, got %v", err)
	}
	if f.repo.count() != 0 {
		t.Errorf("expected nothing stored, got %d", f.repo.count())
	}
}

func TestBook_ConcurrentSameSlot(t *testing.T) {
	f := newFixture()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.bookings.Book(context.Background(), newAppointment(day, "13:00", "dr-cohen"))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		if !apperrors.HasCode(err, apperrors.CodeSlotConflict) {
			t.Errorf("expected slot conflict, got %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("expected exactly one booking to succeed, got %d", succeeded)
	}
}

func TestBook_ValidationFailure(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *model.Appointment)
		field  string
	}{
		{name: "missing patient", mutate: func(a *model.Appointment) { a.PatientName = "" }, field: "PatientName"},
		{name: "bad date", mutate: func(a *model.Appointment) { a.Date = "02/03/2026" }, field: "Date"},
		{name: "no contact", mutate: func(a *model.Appointment) { a.PatientPhone = "" }, field: "PatientPhone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			a := newAppointment(day, "09:00", "dr-cohen")
			tt.mutate(a)

			err := f.bookings.Book(context.Background(), a)
			appErr := apperrors.AsAppError(err)
			if appErr.Code != apperrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := appErr.Details[tt.field]; !ok {
				t.Errorf("expected details for %s, got %v", tt.field, appErr.Details)
			}
			if f.locker.acquired != 0 || f.repo.count() != 0 {
				t.Error("expected no side effects on validation failure")
			}
		})
	}
}

func TestBook_RejectsOffGridTimes(t *testing.T) {
	tests := []struct {
		name     string
		clock    string
		provider string
	}{
		{name: "after hours", clock: "23:45", provider: "dr-cohen"},
		{name: "between labels", clock: "09:10", provider: "dr-cohen"},
		{name: "window end", clock: "17:00", provider: "dr-cohen"},
		{name: "before provider hours", clock: "09:00", provider: "dr-levi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.directory.windows["dr-levi"] = scheduling.Window{Start: 10 * 60, End: 14 * 60}

			err := f.bookings.Book(context.Background(), newAppointment(day, tt.clock, tt.provider))
			appErr := apperrors.AsAppError(err)
			if appErr.Code != apperrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := appErr.Details["Time"]; !ok {
				t.Errorf("expected details for Time, got %v", appErr.Details)
			}
			if f.locker.acquired != 0 || f.repo.count() != 0 {
				t.Error("expected no side effects for an off-grid time")
			}
		})
	}
}

func TestBook_ProviderHours(t *testing.T) {
	f := newFixture()
	f.directory.windows["dr-levi"] = scheduling.Window{Start: 10 * 60, End: 14 * 60}

	if err := f.bookings.Book(context.Background(), newAppointment(day, "13:30", "dr-levi")); err != nil {
		t.Fatalf("expected the last slot of the window to be bookable, got %v", err)
	}
}

func TestBook_RejectsTerminalStatus(t *testing.T) {
	f := newFixture()
	a := newAppointment(day, "09:00", "dr-cohen")
	a.Status = model.StatusCompleted

	err := f.bookings.Book(context.Background(), a)
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBook_CancelledSlotIsFree(t *testing.T) {
	f := newFixture()
	first := mustBook(t, f, newAppointment(day, "14:00", "dr-cohen"))

	if _, err := f.bookings.UpdateStatus(context.Background(), first.ID, model.StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	mustBook(t, f, newAppointment(day, "14:00", "dr-cohen"))
}

func TestMove(t *testing.T) {
	t.Run("to a free slot", func(t *testing.T) {
		f := newFixture()
		a := mustBook(t, f, newAppointment(day, "09:00", "dr-cohen"))

		moved, err := f.bookings.Move(context.Background(), a.ID, &model.MoveRequest{Date: day, Time: "10:30"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if moved.Time != "10:30" || f.repo.get(a.ID).Time != "10:30" {
			t.Errorf("expected 10:30, got %q (stored %q)", moved.Time, f.repo.get(a.ID).Time)
		}
	})

	t.Run("to an occupied slot", func(t *testing.T) {
		f := newFixture()
		a := mustBook(t, f, newAppointment(day, "09:00", "dr-cohen"))
		mustBook(t, f, newAppointment(day, "10:00", "dr-cohen"))

		_, err := f.bookings.Move(context.Background(), a.ID, &model.MoveRequest{Date: day, Time: "10:00"})
		if !apperrors.HasCode(err, apperrors.CodeSlotConflict) {
			t.Fatalf("expected slot conflict, got %v", err)
		}
		if f.repo.get(a.ID).Time != "09:00" {
			t.Error("expected the appointment to stay where it was")
		}
	})

	t.Run("to another provider", func(t *testing.T) {
		f := newFixture()
		a := mustBook(t, f, newAppointment(day, "09:00", "dr-cohen"))
		mustBook(t, f, newAppointment(day, "09:00", "dr-levi"))
		other := "dr-levi"

		_, err := f.bookings.Move(context.Background(), a.ID, &model.MoveRequest{Date: day, Time: "09:00", ProviderID: &other})
		if !apperrors.HasCode(err, apperrors.CodeSlotConflict) {
			t.Fatalf("expected slot conflict, got %v", err)
		}
	})

	t.Run("same slot is a no-op", func(t *testing.T) {
		f := newFixture()
		a := mustBook(t, f, newAppointment(day, "09:00", "dr-cohen"))
		acquired := f.locker.acquired

		moved, err := f.bookings.Move(context.Background(), a.ID, &model.MoveRequest{Date: day, Time: "09:00"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if moved.Time != "09:00" || f.locker.acquired != acquired {
			t.Error("expected no write for a same-slot move")
		}
	})

	t.Run("cancelled cannot move", func(t *testing.T) {
		f := newFixture()
		a := mustBook(t, f, newAppointment(day, "09:00", "dr-cohen"))
		if _, err := f.bookings.UpdateStatus(context.Background(), a.ID, model.StatusCancelled); err != nil {
			t.Fatalf("cancel: %v", err)
		}

		_, err := f.bookings.Move(context.Background(), a.ID, &model.MoveRequest{Date: day, Time: "11:00"})
		if !apperrors.HasCode(err, apperrors.CodeValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("off-grid target", func(t *testing.T) {
		f := newFixture()
		a := mustBook(t, f, newAppointment(day, "09:00", "dr-cohen"))

		_, err := f.bookings.Move(context.Background(), a.ID, &model.MoveRequest{Date: day, Time: "09:10"})
		if !apperrors.HasCode(err, apperrors.CodeValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if f.repo.get(a.ID).Time != "09:00" {
			t.Error("expected the appointment to stay put")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		f := newFixture()
		_, err := f.bookings.Move(context.Background(), "missing", &model.MoveRequest{Date: day, Time: "11:00"})
		if !apperrors.HasCode(err, apperrors.CodeNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestUpdateStatus(t *testing.T) {
	t.Run("valid transition records history", func(t *testing.T) {
		f := newFixture()
		a := mustBook(t, f, newAppointment(day, "09:00", "dr-cohen"))

		updated, err := f.bookings.UpdateStatus(context.Background(), a.ID, model.StatusConfirmed)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.Status != model.StatusConfirmed {
			t.Errorf("expected confirmed, got %q", updated.Status)
		}
		stored := f.repo.get(a.ID)
		if len(stored.StatusHistory) != 1 || stored.StatusHistory[0].From != model.StatusPending {
			t.Errorf("unexpected history: %+v", stored.StatusHistory)
		}
		if len(f.publisher.statusChanges) != 1 {
			t.Errorf("expected one status event, got %d", len(f.publisher.statusChanges))
		}
	})

	t.Run("off-graph transition", func(t *testing.T) {
		f := newFixture()
		a := mustBook(t, f, newAppointment(day, "09:00", "dr-cohen"))

		_, err := f.bookings.UpdateStatus(context.Background(), a.ID, model.StatusCompleted)
		if !apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
			t.Fatalf("expected invalid transition, got %v", err)
		}
		var invalid *scheduling.InvalidTransitionError
		if !errors.As(err, &invalid) || invalid.From != model.StatusPending || invalid.To != model.StatusCompleted {
			t.Errorf("expected the transition error as cause, got %v", err)
		}
		allowed, _ := apperrors.AsAppError(err).Details["allowed"].([]model.Status)
		if len(allowed) != 2 || allowed[0] != model.StatusConfirmed || allowed[1] != model.StatusCancelled {
			t.Errorf("unexpected allowed statuses %v", allowed)
		}
		if f.repo.get(a.ID).Status != model.StatusPending {
			t.Error("expected status to be unchanged")
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newFixture()
		a := mustBook(t, f, newAppointment(day, "09:00", "dr-cohen"))

		_, err := f.bookings.UpdateStatus(context.Background(), a.ID, model.Status("archived"))
		if !apperrors.HasCode(err, apperrors.CodeValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("concurrent change", func(t *testing.T) {
		f := newFixture()
		a := mustBook(t, f, newAppointment(day, "09:00", "dr-cohen"))
		f.repo.updateStatusFunc = func(ctx context.Context, id string, transition model.StatusTransition) error {
			return appterrors.ErrStaleStatus
		}

		_, err := f.bookings.UpdateStatus(context.Background(), a.ID, model.StatusConfirmed)
		if !apperrors.HasCode(err, apperrors.CodeConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})
}

func TestUpdate_KeepsSchedule(t *testing.T) {
	f := newFixture()
	a := mustBook(t, f, newAppointment(day, "09:00", "dr-cohen"))
	notes := "  bring referral  "

	updated, err := f.bookings.Update(context.Background(), a.ID, &model.AppointmentUpdate{Notes: &notes})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Notes != "bring referral" {
		t.Errorf("expected trimmed notes, got %q", updated.Notes)
	}
	if updated.Time != "09:00" || updated.Date != day {
		t.Errorf("expected schedule untouched, got %s %s", updated.Date, updated.Time)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture()
	a := mustBook(t, f, newAppointment(day, "09:00", "dr-cohen"))

	if err := f.bookings.Delete(context.Background(), a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := f.bookings.Delete(context.Background(), a.ID)
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestList_FreeText(t *testing.T) {
	f := newFixture()
	a := newAppointment(day, "09:00", "dr-cohen")
	a.PatientName = "Noa Mizrahi"
	mustBook(t, f, a)
	mustBook(t, f, newAppointment(day, "10:00", "dr-cohen"))

	result, err := f.bookings.List(context.Background(), model.AppointmentFilter{Query: "mizrahi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 1 || result[0].PatientName != "Noa Mizrahi" {
		t.Errorf("expected only Noa Mizrahi, got %d results", len(result))
	}

	_, err = f.bookings.List(context.Background(), model.AppointmentFilter{Date: "tomorrow"})
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected invalid input for bad date, got %v", err)
	}
}

func TestDaySchedule(t *testing.T) {
	f := newFixture()
	mustBook(t, f, newAppointment(day, "09:00", "dr-cohen"))
	mustBook(t, f, newAppointment(day, "09:00", "dr-levi"))

	schedule, err := f.bookings.DaySchedule(context.Background(), day, "dr-cohen")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schedule.WorkStart != "09:00" || schedule.WorkEnd != "17:00" {
		t.Errorf("expected default window, got %s-%s", schedule.WorkStart, schedule.WorkEnd)
	}
	if len(schedule.Slots) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(schedule.Slots))
	}
	if schedule.Slots[0].Available || len(schedule.Slots[0].Appointments) != 1 {
		t.Errorf("expected 09:00 to hold one appointment, got %+v", schedule.Slots[0])
	}
	if !schedule.Slots[1].Available {
		t.Error("expected 09:30 to be free")
	}

	practice, err := f.bookings.DaySchedule(context.Background(), day, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(practice.Slots[0].Appointments) != 2 {
		t.Errorf("expected both providers at 09:00 in the practice view, got %d", len(practice.Slots[0].Appointments))
	}
}

func TestGetByID_Errors(t *testing.T) {
	f := newFixture()

	if _, err := f.bookings.GetByID(context.Background(), ""); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected invalid input for empty id, got %v", err)
	}
	_, err := f.bookings.GetByID(context.Background(), "nope")
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
