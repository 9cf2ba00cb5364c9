package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

type Appointment struct {
	gorm.Model
	PatientID       uint      `gorm:"column:patient_id;not null" json:"patient_id"`
	DoctorID        uint      `gorm:"column:doctor_id;not null;uniqueIndex:idx_active_booking" json:"doctor_id"`
	AppointmentDate time.Time `gorm:"column:appointment_date;not null;uniqueIndex:idx_active_booking" json:"appointment_date"`
	TimeSlot        string    `gorm:"column:time_slot;size:5;not null;uniqueIndex:idx_active_booking" json:"time_slot"`
	Status          string    `gorm:"column:status;size:20;not null;default:'pending'" json:"status"`
	Symptoms        string    `gorm:"column:symptoms;type:text" json:"symptoms"`
	Notes           string    `gorm:"column:notes;type:text" json:"notes"`

	// ActiveKey backs the no-double-booking unique index: "active" while the
	// appointment blocks its slot, NULL once cancelled or completed. Postgres
	// treats NULLs as distinct, so only live bookings can collide.
	ActiveKey *string `gorm:"column:active_key;size:10;uniqueIndex:idx_active_booking" json:"-"`

	Documents []AppointmentDocument `gorm:"foreignKey:AppointmentID;constraint:OnDelete:CASCADE" json:"documents"`
	Patient   *User                 `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor    *User                 `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

// BeforeSave keeps ActiveKey in sync with Status on every insert and save.
func (a *Appointment) BeforeSave(tx *gorm.DB) error {
	if a.Status == StatusPending || a.Status == StatusConfirmed {
		key := "active"
		a.ActiveKey = &key
	} else {
		a.ActiveKey = nil
	}
	return nil
}

type AppointmentDocument struct {
	gorm.Model
	AppointmentID uint   `gorm:"column:appointment_id;not null" json:"appointment_id"`
	FileName      string `gorm:"column:file_name;size:255;not null" json:"file_name"`
	FilePath      string `gorm:"column:file_path;size:500;not null" json:"file_path"`
}
