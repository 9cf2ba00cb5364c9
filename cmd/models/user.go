package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

type User struct {
	gorm.Model
	Name         string     `gorm:"column:name;size:255;not null" json:"name"`
	Email        string     `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;size:255;not null" json:"-"`
	Role         string     `gorm:"column:role;size:20;not null;default:'patient'" json:"role"`
	Phone        string     `gorm:"column:phone;size:20" json:"phone"`
	Address      string     `gorm:"column:address;size:255" json:"address"`
	Gender       string     `gorm:"column:gender;size:20" json:"gender"`
	DateOfBirth  *time.Time `gorm:"column:date_of_birth" json:"date_of_birth,omitempty"`

	DoctorProfile *DoctorProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"doctor_profile,omitempty"`
}

type DoctorProfile struct {
	gorm.Model
	UserID          uint    `gorm:"column:user_id;not null;uniqueIndex" json:"user_id"`
	Specialization  string  `gorm:"column:specialization;size:255;not null" json:"specialization"`
	Qualification   string  `gorm:"column:qualification;size:255;not null" json:"qualification"`
	Experience      int     `gorm:"column:experience;not null" json:"experience"`
	ConsultationFee float64 `gorm:"column:consultation_fee;not null" json:"consultation_fee"`
	HospitalName    string  `gorm:"column:hospital_name;size:255" json:"hospital_name"`
	HospitalAddress string  `gorm:"column:hospital_address;size:255" json:"hospital_address"`
	IsApproved      bool    `gorm:"column:is_approved;default:false" json:"is_approved"`

	AvailableSlots []AvailabilitySlot `gorm:"foreignKey:DoctorProfileID;constraint:OnDelete:CASCADE" json:"available_slots"`
	User           *User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (DoctorProfile) TableName() string {
	return "doctor_profiles"
}

// AvailabilitySlot is one entry of a doctor's weekly recurring template.
// At most one entry exists per weekday; hard-deleted on replacement so the
// unique index never collides with stale rows.
type AvailabilitySlot struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	DoctorProfileID uint   `gorm:"column:doctor_profile_id;not null;uniqueIndex:idx_profile_weekday" json:"doctor_profile_id"`
	Day             string `gorm:"column:day;size:10;not null;uniqueIndex:idx_profile_weekday" json:"day"`
	StartTime       string `gorm:"column:start_time;size:5;not null" json:"start_time"`
	EndTime         string `gorm:"column:end_time;size:5;not null" json:"end_time"`
	IsAvailable     bool   `gorm:"column:is_available;default:true" json:"is_available"`
}

func (AvailabilitySlot) TableName() string {
	return "availability_slots"
}
