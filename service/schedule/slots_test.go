package schedule

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/docspot/docspot-server/cmd/models"
)

func TestGenerateSlots_MondayMorning(t *testing.T) {
	slots, err := GenerateSlots("09:00", "11:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"09:00", "09:30", "10:00", "10:30"}
	if !reflect.DeepEqual(slots, want) {
		t.Errorf("got %v, want %v", slots, want)
	}
}

func TestGenerateSlots_PartialWindow(t *testing.T) {
	// A slot whose start falls before the end is produced even if the
	// window does not cover a full 30 minutes past it.
	slots, err := GenerateSlots("09:00", "10:45")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"09:00", "09:30", "10:00", "10:30"}
	if !reflect.DeepEqual(slots, want) {
		t.Errorf("got %v, want %v", slots, want)
	}
}

func TestGenerateSlots_EmptyWindow(t *testing.T) {
	slots, err := GenerateSlots("09:00", "09:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("expected no slots, got %v", slots)
	}
}

func TestGenerateSlots_SlotCounts(t *testing.T) {
	cases := []struct {
		start, end string
		count      int
	}{
		{"09:00", "09:30", 1},
		{"09:00", "12:00", 6},
		{"08:00", "08:15", 1},
		{"00:00", "23:30", 47},
		{"13:00", "17:00", 8},
	}

	for _, tc := range cases {
		slots, err := GenerateSlots(tc.start, tc.end)
		if err != nil {
			t.Fatalf("GenerateSlots(%s, %s): %v", tc.start, tc.end, err)
		}
		if len(slots) != tc.count {
			t.Errorf("GenerateSlots(%s, %s): got %d slots, want %d", tc.start, tc.end, len(slots), tc.count)
		}
	}
}

func TestGenerateSlots_InvalidLabels(t *testing.T) {
	if _, err := GenerateSlots("9am", "11:00"); err == nil {
		t.Error("expected error for malformed start time")
	}
	if _, err := GenerateSlots("09:00", "lunch"); err == nil {
		t.Error("expected error for malformed end time")
	}
}

func TestSubtractBooked(t *testing.T) {
	candidates := []string{"09:00", "09:30", "10:00", "10:30"}

	free := SubtractBooked(candidates, []string{"09:30"})
	want := []string{"09:00", "10:00", "10:30"}
	if !reflect.DeepEqual(free, want) {
		t.Errorf("got %v, want %v", free, want)
	}

	// Cancelling the booking restores the original sequence.
	free = SubtractBooked(candidates, nil)
	if !reflect.DeepEqual(free, candidates) {
		t.Errorf("got %v, want %v", free, candidates)
	}
}

func TestSubtractBooked_UnalignedBookingIgnored(t *testing.T) {
	// Labels match by exact equality, not range overlap.
	candidates := []string{"09:00", "09:30"}
	free := SubtractBooked(candidates, []string{"09:15"})
	if !reflect.DeepEqual(free, candidates) {
		t.Errorf("got %v, want %v", free, candidates)
	}
}

func TestSubtractBooked_AllTaken(t *testing.T) {
	candidates := []string{"09:00", "09:30"}
	free := SubtractBooked(candidates, []string{"09:30", "09:00"})
	if len(free) != 0 {
		t.Errorf("expected no free slots, got %v", free)
	}
}

func TestNormalizeDate(t *testing.T) {
	ts := time.Date(2024, 3, 11, 14, 45, 12, 999, time.FixedZone("X", 3600))
	day := NormalizeDate(ts)

	if day.Hour() != 0 || day.Minute() != 0 || day.Second() != 0 || day.Nanosecond() != 0 {
		t.Errorf("time-of-day not stripped: %v", day)
	}
	if day.Year() != 2024 || day.Month() != time.March || day.Day() != 11 {
		t.Errorf("calendar day changed: %v", day)
	}
	if day.Weekday() != time.Monday {
		t.Errorf("expected Monday, got %v", day.Weekday())
	}
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to string }{
		{models.StatusPending, models.StatusConfirmed},
		{models.StatusPending, models.StatusCancelled},
		{models.StatusConfirmed, models.StatusCompleted},
		{models.StatusConfirmed, models.StatusCancelled},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to string }{
		{models.StatusCancelled, models.StatusPending},
		{models.StatusCancelled, models.StatusConfirmed},
		{models.StatusCompleted, models.StatusPending},
		{models.StatusCompleted, models.StatusCancelled},
		{models.StatusPending, models.StatusCompleted},
		{models.StatusPending, models.StatusPending},
		{models.StatusConfirmed, models.StatusPending},
		{models.StatusConfirmed, "archived"},
	}
	for _, tc := range denied {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be denied", tc.from, tc.to)
		}
	}
}

func TestValidDay(t *testing.T) {
	for _, day := range []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"} {
		if !ValidDay(day) {
			t.Errorf("expected %s to be valid", day)
		}
	}
	for _, day := range []string{"monday", "Funday", ""} {
		if ValidDay(day) {
			t.Errorf("expected %q to be invalid", day)
		}
	}
}

func TestValidateTemplate(t *testing.T) {
	valid := []models.AvailabilitySlot{
		{Day: "Monday", StartTime: "09:00", EndTime: "11:00", IsAvailable: true},
		{Day: "Wednesday", StartTime: "14:00", EndTime: "17:30", IsAvailable: false},
	}
	if err := ValidateTemplate(valid); err != nil {
		t.Errorf("unexpected error for valid template: %v", err)
	}

	if err := ValidateTemplate(nil); err != nil {
		t.Errorf("unexpected error for empty template: %v", err)
	}

	cases := []struct {
		name    string
		entries []models.AvailabilitySlot
	}{
		{"unknown weekday", []models.AvailabilitySlot{
			{Day: "Fridag", StartTime: "09:00", EndTime: "11:00"},
		}},
		{"duplicate weekday", []models.AvailabilitySlot{
			{Day: "Monday", StartTime: "09:00", EndTime: "11:00"},
			{Day: "Monday", StartTime: "13:00", EndTime: "15:00"},
		}},
		{"start equals end", []models.AvailabilitySlot{
			{Day: "Monday", StartTime: "09:00", EndTime: "09:00"},
		}},
		{"start after end", []models.AvailabilitySlot{
			{Day: "Monday", StartTime: "17:00", EndTime: "09:00"},
		}},
		{"malformed start", []models.AvailabilitySlot{
			{Day: "Monday", StartTime: "nine", EndTime: "11:00"},
		}},
		{"malformed end", []models.AvailabilitySlot{
			{Day: "Monday", StartTime: "09:00", EndTime: "25:99"},
		}},
	}

	for _, tc := range cases {
		err := ValidateTemplate(tc.entries)
		if err == nil {
			t.Errorf("%s: expected validation error", tc.name)
			continue
		}
		if !errors.Is(err, ErrInvalidTemplate) {
			t.Errorf("%s: error does not wrap ErrInvalidTemplate: %v", tc.name, err)
		}
	}
}
