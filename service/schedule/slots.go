package schedule

import (
	"fmt"
	"time"
)

// Appointments run on a fixed 30-minute grid. A slot is identified by its
// start label, formatted HH:MM.
const (
	SlotDuration = 30 * time.Minute

	slotLayout = "15:04"
)

var weekdays = map[string]bool{
	"Monday":    true,
	"Tuesday":   true,
	"Wednesday": true,
	"Thursday":  true,
	"Friday":    true,
	"Saturday":  true,
	"Sunday":    true,
}

func ValidDay(day string) bool {
	return weekdays[day]
}

// GenerateSlots expands a template window into slot-start labels: startTime
// inclusive, stepping by SlotDuration, while the slot start is strictly
// before endTime.
func GenerateSlots(startTime, endTime string) ([]string, error) {
	start, err := time.Parse(slotLayout, startTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start time %q: %v", startTime, err)
	}
	end, err := time.Parse(slotLayout, endTime)
	if err != nil {
		return nil, fmt.Errorf("invalid end time %q: %v", endTime, err)
	}

	slots := []string{}
	for t := start; t.Before(end); t = t.Add(SlotDuration) {
		slots = append(slots, t.Format(slotLayout))
	}
	return slots, nil
}

// SubtractBooked removes booked labels from the candidate sequence,
// preserving ascending order. Labels match by exact string equality.
func SubtractBooked(candidates, booked []string) []string {
	taken := make(map[string]bool, len(booked))
	for _, slot := range booked {
		taken[slot] = true
	}

	free := []string{}
	for _, slot := range candidates {
		if !taken[slot] {
			free = append(free, slot)
		}
	}
	return free
}

// NormalizeDate truncates a timestamp to calendar-day precision in UTC.
// Booking conflicts compare dates at this precision only.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// allowedTransitions is the appointment status machine. Cancelled and
// completed are terminal.
var allowedTransitions = map[string][]string{
	"pending":   {"confirmed", "cancelled"},
	"confirmed": {"completed", "cancelled"},
}

func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
