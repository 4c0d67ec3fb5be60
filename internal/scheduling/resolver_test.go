package scheduling

import (
	"testing"

	"clinicflow/pkg/model"
)

func TestResolver_Scenario(t *testing.T) {
	day := []*model.Appointment{
		appt("A", "2024-01-01", "P", "09:00", 60, 1),
		appt("B", "2024-01-01", "P", "09:30", 30, 2),
	}

	records := Detect(day)
	if len(records) != 1 || records[0].Kind != model.ConflictDurationOverlap {
		t.Fatalf("expected one duration-overlap record, got %+v", records)
	}

	res := Resolver{}.Resolve(day, records, 30)
	if len(res.Unresolved) != 0 {
		t.Fatalf("unexpected unresolved %+v", res.Unresolved)
	}
	if len(res.Moves) != 1 {
		t.Fatalf("expected 1 move, got %+v", res.Moves)
	}
	mv := res.Moves[0]
	if mv.AppointmentID != "B" || mv.FromTime != "09:30" || mv.ToTime != "10:00" {
		t.Errorf("unexpected move %+v", mv)
	}

	after := ApplyMoves(day, res.Moves)
	if again := Detect(after); len(again) != 0 {
		t.Errorf("expected no conflicts after resolve, got %+v", again)
	}
	if day[1].Time != "09:30" {
		t.Error("Resolve or ApplyMoves mutated the input")
	}
}

func TestResolver_SameSlotKeepsFirstBooked(t *testing.T) {
	day := []*model.Appointment{
		appt("late", "2024-01-01", "P", "09:00", 30, 3),
		appt("first", "2024-01-01", "P", "09:00", 30, 1),
		appt("second", "2024-01-01", "P", "09:00", 30, 2),
	}

	res := Resolver{}.Resolve(day, Detect(day), 30)

	want := map[string]string{"second": "09:30", "late": "10:00"}
	if len(res.Moves) != 2 {
		t.Fatalf("expected 2 moves, got %+v", res.Moves)
	}
	for _, mv := range res.Moves {
		if mv.AppointmentID == "first" {
			t.Fatal("first-booked appointment must keep its slot")
		}
		if want[mv.AppointmentID] != mv.ToTime {
			t.Errorf("%s moved to %s, want %s", mv.AppointmentID, mv.ToTime, want[mv.AppointmentID])
		}
	}
	if res.Moves[0].AppointmentID != "second" {
		t.Errorf("moves must follow creation order, got %+v", res.Moves)
	}
	if again := Detect(ApplyMoves(day, res.Moves)); len(again) != 0 {
		t.Errorf("conflicts remain: %+v", again)
	}
}

func TestResolver_SkipsDownstreamOccupant(t *testing.T) {
	day := []*model.Appointment{
		appt("a", "2024-01-01", "P", "09:00", 30, 1),
		appt("b", "2024-01-01", "P", "09:00", 30, 2),
		appt("c", "2024-01-01", "P", "09:30", 60, 3),
	}

	res := Resolver{}.Resolve(day, Detect(day), 30)
	if len(res.Moves) != 1 || res.Moves[0].AppointmentID != "b" || res.Moves[0].ToTime != "10:30" {
		t.Fatalf("unexpected moves %+v", res.Moves)
	}
	if again := Detect(ApplyMoves(day, res.Moves)); len(again) != 0 {
		t.Errorf("conflicts remain: %+v", again)
	}
}

func TestResolver_UnresolvedAtEndOfDay(t *testing.T) {
	day := []*model.Appointment{
		appt("a", "2024-01-01", "P", "16:00", 30, 1),
		appt("b", "2024-01-01", "P", "16:00", 30, 2),
		appt("c", "2024-01-01", "P", "16:00", 30, 3),
	}

	res := Resolver{}.Resolve(day, Detect(day), 30)
	if len(res.Moves) != 1 || res.Moves[0].AppointmentID != "b" || res.Moves[0].ToTime != "16:30" {
		t.Fatalf("unexpected moves %+v", res.Moves)
	}
	if len(res.Unresolved) != 1 || res.Unresolved[0].AppointmentID != "c" {
		t.Fatalf("expected c unresolved, got %+v", res.Unresolved)
	}
	if res.Unresolved[0].Reason != ReasonNoFreeSlot || res.Unresolved[0].Time != "16:00" {
		t.Errorf("unexpected unresolved entry %+v", res.Unresolved[0])
	}
}

func TestResolver_DurationMustFitWindow(t *testing.T) {
	day := []*model.Appointment{
		appt("a", "2024-01-01", "P", "16:00", 30, 1),
		appt("b", "2024-01-01", "P", "16:00", 60, 2),
	}

	res := Resolver{}.Resolve(day, Detect(day), 30)
	if len(res.Moves) != 0 || len(res.Unresolved) != 1 {
		t.Fatalf("a 60 minute appointment cannot start at 16:30, got %+v", res)
	}
}

func TestResolver_ProviderWindow(t *testing.T) {
	day := []*model.Appointment{
		appt("a", "2024-01-01", "P", "07:00", 30, 1),
		appt("b", "2024-01-01", "P", "07:00", 30, 2),
	}
	r := Resolver{Window: func(string) Window { return Window{Start: 7 * 60, End: 8 * 60} }}

	res := r.Resolve(day, Detect(day), 30)
	if len(res.Moves) != 1 || res.Moves[0].ToTime != "07:30" {
		t.Fatalf("unexpected moves %+v", res.Moves)
	}
}

func TestResolver_Idempotent(t *testing.T) {
	day := []*model.Appointment{
		appt("A", "2024-01-01", "P", "09:00", 60, 1),
		appt("B", "2024-01-01", "P", "09:30", 30, 2),
	}

	first := Resolver{}.Resolve(day, Detect(day), 30)
	after := ApplyMoves(day, first.Moves)

	second := Resolver{}.Resolve(after, Detect(after), 30)
	if len(second.Moves) != 0 || len(second.Unresolved) != 0 {
		t.Errorf("second pass should be a no-op, got %+v", second)
	}
}

func TestResolver_ConfirmedFirst(t *testing.T) {
	pending := appt("pending", "2024-01-01", "P", "09:00", 30, 1)
	pending.Status = model.StatusPending
	confirmed := appt("confirmed", "2024-01-01", "P", "09:00", 30, 2)

	day := []*model.Appointment{pending, confirmed}
	res := Resolver{Less: ConfirmedFirst}.Resolve(day, Detect(day), 30)
	if len(res.Moves) != 1 || res.Moves[0].AppointmentID != "pending" {
		t.Fatalf("pending appointment should yield, got %+v", res.Moves)
	}
}

func TestResolver_InvalidInterval(t *testing.T) {
	day := []*model.Appointment{
		appt("a", "2024-01-01", "P", "09:00", 30, 1),
		appt("b", "2024-01-01", "P", "09:00", 30, 2),
	}
	res := Resolver{}.Resolve(day, Detect(day), 0)
	if len(res.Moves) != 0 || len(res.Unresolved) != 1 {
		t.Errorf("zero interval should leave movers unresolved, got %+v", res)
	}
}

func TestResolver_HeldMovesBlockLaterMovers(t *testing.T) {
	day := []*model.Appointment{
		appt("A", "2024-01-01", "P", "09:00", 60, 1),
		appt("B", "2024-01-01", "P", "09:00", 60, 2),
		appt("C", "2024-01-01", "P", "09:30", 30, 3),
	}

	res := Resolver{}.Resolve(day, Detect(day), 30)
	if len(res.Moves) != 2 || len(res.Unresolved) != 0 {
		t.Fatalf("expected two moves, got %+v", res)
	}
	if res.Moves[0].AppointmentID != "B" || res.Moves[0].ToTime != "10:00" {
		t.Errorf("unexpected first move %+v", res.Moves[0])
	}
	if res.Moves[1].AppointmentID != "C" || res.Moves[1].ToTime != "11:00" {
		t.Errorf("C should skip past B's new slot, got %+v", res.Moves[1])
	}
	if again := Detect(ApplyMoves(day, res.Moves)); len(again) != 0 {
		t.Errorf("expected a clean day, got %+v", again)
	}
}
