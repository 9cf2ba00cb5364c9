package admin

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/docspot/docspot-server/cmd/models"
	"github.com/docspot/docspot-server/cmd/utils"
	"github.com/gorilla/mux"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"
)

type AdminHandler struct {
	db *gorm.DB
}

func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

func (h *AdminHandler) RegisterRoutes(router *mux.Router) {
	adminRouter := router.PathPrefix("/admin").Subrouter()
	adminRouter.HandleFunc("/doctors/pending",
		utils.RequireRoles(h.GetPendingDoctors, models.RoleAdmin)).Methods("GET")
	adminRouter.HandleFunc("/doctors/{id:[0-9]+}/approve",
		utils.RequireRoles(h.ApproveDoctor, models.RoleAdmin)).Methods("PUT")
	adminRouter.HandleFunc("/appointments",
		utils.RequireRoles(h.GetAllAppointments, models.RoleAdmin)).Methods("GET")
	adminRouter.HandleFunc("/stats",
		utils.RequireRoles(h.GetPlatformStats, models.RoleAdmin)).Methods("GET")
}

func (h *AdminHandler) GetPendingDoctors(w http.ResponseWriter, r *http.Request) {
	var doctors []models.DoctorProfile
	if err := h.db.Where("is_approved = ?", false).Preload("User").Find(&doctors).Error; err != nil {
		http.Error(w, "Error retrieving pending doctors", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doctors)
}

// ApproveDoctor flips a profile from pending to approved. The transition is
// one-way and single-shot; re-approving fails with a conflict.
func (h *AdminHandler) ApproveDoctor(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	profileID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid doctor ID", http.StatusBadRequest)
		return
	}

	var doctor models.DoctorProfile
	if err := h.db.Preload("User").First(&doctor, profileID).Error; err != nil {
		http.Error(w, "Doctor not found", http.StatusNotFound)
		return
	}

	if doctor.IsApproved {
		http.Error(w, "Doctor is already approved", http.StatusConflict)
		return
	}

	doctor.IsApproved = true
	if err := h.db.Save(&doctor).Error; err != nil {
		http.Error(w, "Error approving doctor", http.StatusInternalServerError)
		return
	}

	if doctor.User != nil {
		go func(email, name string) {
			if err := sendApprovalEmail(email, name); err != nil {
				log.Printf("Error sending approval email: %v", err)
			}
		}(doctor.User.Email, doctor.User.Name)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Doctor approved successfully",
	})
}

// sendApprovalEmail notifies a doctor that their account went live
func sendApprovalEmail(email, name string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpPort := os.Getenv("SMTP_PORT")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")

	m := gomail.NewMessage()
	m.SetHeader("From", smtpUser)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Your DocSpot account has been approved")
	m.SetBody("text/plain", fmt.Sprintf("Hello %s,\n\nYour doctor account has been approved. Patients can now find you and book appointments.", name))

	port, err := strconv.Atoi(smtpPort)
	if err != nil {
		return fmt.Errorf("invalid SMTP port: %v", err)
	}
	d := gomail.NewDialer(smtpHost, port, smtpUser, smtpPass)

	return d.DialAndSend(m)
}

func (h *AdminHandler) GetAllAppointments(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize := 100

	query := h.db.Model(&models.Appointment{}).Preload("Patient").Preload("Doctor").Preload("Documents")

	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if date := r.URL.Query().Get("date"); date != "" {
		query = query.Where("appointment_date = ?", date)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		http.Error(w, "Error counting appointments", http.StatusInternalServerError)
		return
	}

	var appointments []models.Appointment
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).
		Order("appointment_date DESC, time_slot DESC").Find(&appointments).Error; err != nil {
		http.Error(w, "Error retrieving appointments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"appointments": appointments,
		"total":        total,
		"page":         page,
		"page_size":    pageSize,
		"total_pages":  (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

type PlatformStats struct {
	TotalPatients     int64 `json:"total_patients"`
	TotalDoctors      int64 `json:"total_doctors"`
	PendingApprovals  int64 `json:"pending_approvals"`
	TotalAppointments int64 `json:"total_appointments"`
}

func (h *AdminHandler) GetPlatformStats(w http.ResponseWriter, r *http.Request) {
	var stats PlatformStats

	h.db.Model(&models.User{}).Where("role = ?", models.RolePatient).Count(&stats.TotalPatients)
	h.db.Model(&models.DoctorProfile{}).Count(&stats.TotalDoctors)
	h.db.Model(&models.DoctorProfile{}).Where("is_approved = ?", false).Count(&stats.PendingApprovals)
	h.db.Model(&models.Appointment{}).Count(&stats.TotalAppointments)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
