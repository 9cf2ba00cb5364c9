package models

import "testing"

func TestAppointmentActiveKeySync(t *testing.T) {
	blocking := []string{StatusPending, StatusConfirmed}
	for _, status := range blocking {
		a := Appointment{Status: status}
		if err := a.BeforeSave(nil); err != nil {
			t.Fatalf("BeforeSave: %v", err)
		}
		if a.ActiveKey == nil || *a.ActiveKey != "active" {
			t.Errorf("status %s: expected active key to be set", status)
		}
	}

	terminal := []string{StatusCancelled, StatusCompleted}
	for _, status := range terminal {
		key := "active"
		a := Appointment{Status: status, ActiveKey: &key}
		if err := a.BeforeSave(nil); err != nil {
			t.Fatalf("BeforeSave: %v", err)
		}
		if a.ActiveKey != nil {
			t.Errorf("status %s: expected active key to be cleared", status)
		}
	}
}
