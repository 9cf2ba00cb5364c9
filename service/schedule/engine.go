package schedule

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/docspot/docspot-server/cmd/models"
	"gorm.io/gorm"
)

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSlotUnavailable     = errors.New("time slot is no longer available")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrForbidden           = errors.New("not authorized to modify this appointment")
	ErrInvalidTemplate     = errors.New("invalid availability template")
)

var blockingStatuses = []string{models.StatusPending, models.StatusConfirmed}

// Scheduler computes bookable slots from a doctor's weekly template and the
// appointment ledger, and owns all ledger writes.
type Scheduler struct {
	db *gorm.DB
}

func NewScheduler(db *gorm.DB) *Scheduler {
	return &Scheduler{db: db}
}

// AvailableSlots returns the free slot labels for a doctor profile on the
// given date, ascending. A day with no template entry, or one marked
// unavailable, yields an empty list rather than an error.
func (s *Scheduler) AvailableSlots(profileID uint, date time.Time) ([]string, error) {
	var profile models.DoctorProfile
	if err := s.db.First(&profile, profileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	day := NormalizeDate(date)

	var entry models.AvailabilitySlot
	err := s.db.Where("doctor_profile_id = ? AND day = ?", profile.ID, day.Weekday().String()).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	if !entry.IsAvailable {
		return []string{}, nil
	}

	candidates, err := GenerateSlots(entry.StartTime, entry.EndTime)
	if err != nil {
		return nil, err
	}

	var booked []string
	if err := s.db.Model(&models.Appointment{}).
		Where("doctor_id = ? AND appointment_date = ? AND status IN ?", profile.UserID, day, blockingStatuses).
		Pluck("time_slot", &booked).Error; err != nil {
		return nil, err
	}

	return SubtractBooked(candidates, booked), nil
}

type BookingRequest struct {
	PatientID       uint
	DoctorProfileID uint
	Date            time.Time
	TimeSlot        string
	Symptoms        string
	Documents       []string
}

// Book creates a pending appointment for the requested slot. The conflict
// probe keeps the common already-taken case friendly; the composite unique
// index on (doctor, date, slot, active) settles concurrent races, with the
// losing insert translated to ErrSlotUnavailable.
func (s *Scheduler) Book(req BookingRequest) (*models.Appointment, error) {
	var profile models.DoctorProfile
	if err := s.db.First(&profile, req.DoctorProfileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	day := NormalizeDate(req.Date)

	tx := s.db.Begin()

	var existing models.Appointment
	err := tx.Where("doctor_id = ? AND appointment_date = ? AND time_slot = ? AND status IN ?",
		profile.UserID, day, req.TimeSlot, blockingStatuses).
		First(&existing).Error
	if err == nil {
		tx.Rollback()
		return nil, ErrSlotUnavailable
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return nil, err
	}

	appointment := models.Appointment{
		PatientID:       req.PatientID,
		DoctorID:        profile.UserID,
		AppointmentDate: day,
		TimeSlot:        req.TimeSlot,
		Status:          models.StatusPending,
		Symptoms:        req.Symptoms,
	}

	if err := tx.Create(&appointment).Error; err != nil {
		tx.Rollback()
		if isDuplicateKey(err) {
			return nil, ErrSlotUnavailable
		}
		return nil, err
	}

	for _, documentURL := range req.Documents {
		document := models.AppointmentDocument{
			AppointmentID: appointment.ID,
			FileName:      filepath.Base(documentURL),
			FilePath:      documentURL,
		}
		if err := tx.Create(&document).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrSlotUnavailable
		}
		return nil, err
	}

	return &appointment, nil
}

// UpdateStatus applies a status change on behalf of an actor, enforcing
// ownership before the transition table. Patients may only cancel their own
// pending appointments; doctors act only on appointments where they are the
// doctor party; admins may drive any valid transition.
func (s *Scheduler) UpdateStatus(appointmentID uint, newStatus string, actorID uint, actorRole string) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := s.db.First(&appointment, appointmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	switch actorRole {
	case models.RoleAdmin:
	case models.RoleDoctor:
		if appointment.DoctorID != actorID {
			return nil, ErrForbidden
		}
	case models.RolePatient:
		if appointment.PatientID != actorID || newStatus != models.StatusCancelled || appointment.Status != models.StatusPending {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}

	if !CanTransition(appointment.Status, newStatus) {
		return nil, ErrInvalidTransition
	}

	// Compare-and-swap on the status read above. A concurrent update that
	// moved the appointment first makes this transition stale; terminal
	// states must never be overwritten by a late writer.
	updates := map[string]interface{}{
		"status":     newStatus,
		"active_key": nil,
	}
	if newStatus == models.StatusPending || newStatus == models.StatusConfirmed {
		updates["active_key"] = "active"
	}

	result := s.db.Model(&models.Appointment{}).
		Where("id = ? AND status = ?", appointment.ID, appointment.Status).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}

	if err := s.db.First(&appointment, appointment.ID).Error; err != nil {
		return nil, err
	}

	return &appointment, nil
}

// ReplaceTemplate swaps a doctor's full weekly template in one transaction.
// Entries are validated for weekday names, per-weekday uniqueness and
// start < end before any row is touched.
func (s *Scheduler) ReplaceTemplate(profileID uint, entries []models.AvailabilitySlot) error {
	if err := ValidateTemplate(entries); err != nil {
		return err
	}

	tx := s.db.Begin()

	if err := tx.Unscoped().Where("doctor_profile_id = ?", profileID).
		Delete(&models.AvailabilitySlot{}).Error; err != nil {
		tx.Rollback()
		return err
	}

	for i := range entries {
		entries[i].ID = 0
		entries[i].DoctorProfileID = profileID
		if err := tx.Create(&entries[i]).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit().Error
}

// ValidateTemplate checks a weekly template: known weekday names, at most
// one entry per weekday, parseable HH:MM bounds with start before end.
// Failures wrap ErrInvalidTemplate.
func ValidateTemplate(entries []models.AvailabilitySlot) error {
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if !ValidDay(entry.Day) {
			return fmt.Errorf("%w: invalid weekday %q", ErrInvalidTemplate, entry.Day)
		}
		if seen[entry.Day] {
			return fmt.Errorf("%w: duplicate entry for %s", ErrInvalidTemplate, entry.Day)
		}
		seen[entry.Day] = true

		start, err := time.Parse(slotLayout, entry.StartTime)
		if err != nil {
			return fmt.Errorf("%w: invalid start time %q for %s", ErrInvalidTemplate, entry.StartTime, entry.Day)
		}
		end, err := time.Parse(slotLayout, entry.EndTime)
		if err != nil {
			return fmt.Errorf("%w: invalid end time %q for %s", ErrInvalidTemplate, entry.EndTime, entry.Day)
		}
		if !start.Before(end) {
			return fmt.Errorf("%w: start time must be before end time for %s", ErrInvalidTemplate, entry.Day)
		}
	}
	return nil
}

func isDuplicateKey(err error) bool {
	return strings.Contains(err.Error(), "duplicate key") ||
		strings.Contains(err.Error(), "UNIQUE constraint")
}
