package scheduling

import (
	"testing"

	"clinicflow/pkg/model"
)

func TestDetect_SameSlotThree(t *testing.T) {
	day := []*model.Appointment{
		appt("a", "2024-01-01", "P", "09:00", 30, 1),
		appt("b", "2024-01-01", "P", "09:00", 30, 2),
		appt("c", "2024-01-01", "P", "09:00", 30, 3),
	}

	records := Detect(day)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d: %+v", len(records), records)
	}
	rec := records[0]
	if rec.Kind != model.ConflictSameSlot {
		t.Errorf("Kind = %s", rec.Kind)
	}
	if !equalStrings(rec.AppointmentIDs, []string{"a", "b", "c"}) {
		t.Errorf("AppointmentIDs = %v", rec.AppointmentIDs)
	}
	if rec.Start != "09:00" || rec.End != "09:30" || rec.ProviderID != "P" || rec.Date != "2024-01-01" {
		t.Errorf("unexpected window %+v", rec)
	}
}

func TestDetect_DurationOverlap(t *testing.T) {
	day := []*model.Appointment{
		appt("A", "2024-01-01", "P", "09:00", 60, 1),
		appt("B", "2024-01-01", "P", "09:30", 30, 2),
	}

	records := Detect(day)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %+v", records)
	}
	rec := records[0]
	if rec.Kind != model.ConflictDurationOverlap {
		t.Errorf("Kind = %s", rec.Kind)
	}
	if !equalStrings(rec.AppointmentIDs, []string{"A", "B"}) {
		t.Errorf("AppointmentIDs = %v", rec.AppointmentIDs)
	}
	if rec.Start != "09:30" || rec.End != "10:00" {
		t.Errorf("overlap window = %s-%s", rec.Start, rec.End)
	}
}

func TestDetect_NoConflict(t *testing.T) {
	cancelled := appt("x", "2024-01-01", "P", "09:00", 30, 9)
	cancelled.Status = model.StatusCancelled

	tests := []struct {
		name string
		day  []*model.Appointment
	}{
		{
			name: "back to back",
			day: []*model.Appointment{
				appt("a", "2024-01-01", "P", "09:00", 30, 1),
				appt("b", "2024-01-01", "P", "09:30", 30, 2),
			},
		},
		{
			name: "different providers",
			day: []*model.Appointment{
				appt("a", "2024-01-01", "P", "09:00", 60, 1),
				appt("b", "2024-01-01", "Q", "09:00", 30, 2),
			},
		},
		{
			name: "different dates",
			day: []*model.Appointment{
				appt("a", "2024-01-01", "P", "09:00", 30, 1),
				appt("b", "2024-01-02", "P", "09:00", 30, 2),
			},
		},
		{
			name: "cancelled appointment ignored",
			day: []*model.Appointment{
				appt("a", "2024-01-01", "P", "09:00", 30, 1),
				cancelled,
			},
		},
		{
			name: "empty day",
			day:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := Detect(tt.day)
			if records == nil {
				t.Fatal("Detect() returned nil, want empty slice")
			}
			if len(records) != 0 {
				t.Errorf("expected no conflicts, got %+v", records)
			}
		})
	}
}

func TestDetect_DedupAndMixedKinds(t *testing.T) {
	// A runs 09:00-10:30; B and C both start at 09:30.
	day := []*model.Appointment{
		appt("A", "2024-01-01", "P", "09:00", 90, 1),
		appt("B", "2024-01-01", "P", "09:30", 30, 2),
		appt("C", "2024-01-01", "P", "09:30", 30, 3),
	}

	records := Detect(day)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d: %+v", len(records), records)
	}

	var sameSlot, overlaps int
	for _, rec := range records {
		switch rec.Kind {
		case model.ConflictSameSlot:
			sameSlot++
			if !equalStrings(rec.AppointmentIDs, []string{"B", "C"}) {
				t.Errorf("same-slot ids = %v", rec.AppointmentIDs)
			}
		case model.ConflictDurationOverlap:
			overlaps++
		}
	}
	if sameSlot != 1 || overlaps != 2 {
		t.Errorf("sameSlot=%d overlaps=%d", sameSlot, overlaps)
	}

	again := Detect(day)
	for i := range records {
		if records[i].Kind != again[i].Kind || !equalStrings(records[i].AppointmentIDs, again[i].AppointmentIDs) {
			t.Fatalf("Detect() order not deterministic: %+v vs %+v", records, again)
		}
	}
}

func TestDetect_UnassignedFormOwnGroup(t *testing.T) {
	day := []*model.Appointment{
		appt("a", "2024-01-01", "", "09:00", 30, 1),
		appt("b", "2024-01-01", "", "09:00", 30, 2),
		appt("c", "2024-01-01", "P", "09:00", 30, 3),
	}

	records := Detect(day)
	if len(records) != 1 || !equalStrings(records[0].AppointmentIDs, []string{"a", "b"}) {
		t.Errorf("unexpected records %+v", records)
	}
}
