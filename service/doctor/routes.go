package doctor

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/docspot/docspot-server/cmd/models"
	"github.com/docspot/docspot-server/cmd/utils"
	"github.com/docspot/docspot-server/service/schedule"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type DoctorHandler struct {
	db        *gorm.DB
	scheduler *schedule.Scheduler
}

func NewDoctorHandler(db *gorm.DB) *DoctorHandler {
	return &DoctorHandler{db: db, scheduler: schedule.NewScheduler(db)}
}

func (h *DoctorHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/doctors/approved", h.GetApprovedDoctors).Methods("GET")
	router.HandleFunc("/doctors/{id:[0-9]+}", h.GetDoctor).Methods("GET")
	router.HandleFunc("/doctors/{id:[0-9]+}/slots", h.GetDoctorSlots).Methods("GET")
	router.HandleFunc("/doctors/{id:[0-9]+}/availability",
		utils.RequireRoles(h.UpdateAvailability, models.RoleDoctor)).Methods("PUT")
}

// GetApprovedDoctors lists the doctors visible to patients. Unapproved
// profiles never appear here.
func (h *DoctorHandler) GetApprovedDoctors(w http.ResponseWriter, r *http.Request) {
	query := h.db.Model(&models.DoctorProfile{}).Where("is_approved = ?", true).
		Preload("User").Preload("AvailableSlots")

	if specialization := r.URL.Query().Get("specialization"); specialization != "" {
		query = query.Where("specialization = ?", specialization)
	}

	var doctors []models.DoctorProfile
	if err := query.Find(&doctors).Error; err != nil {
		http.Error(w, "Error retrieving doctors", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doctors)
}

func (h *DoctorHandler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	profileID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid doctor ID", http.StatusBadRequest)
		return
	}

	var doctor models.DoctorProfile
	if err := h.db.Preload("User").Preload("AvailableSlots").First(&doctor, profileID).Error; err != nil {
		http.Error(w, "Doctor not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doctor)
}

// GetDoctorSlots returns the free 30-minute slots for a doctor on the date
// given by the ?date=YYYY-MM-DD query parameter.
func (h *DoctorHandler) GetDoctorSlots(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	profileID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid doctor ID", http.StatusBadRequest)
		return
	}

	dateStr := r.URL.Query().Get("date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		http.Error(w, "Invalid date format. Use YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	slots, err := h.scheduler.AvailableSlots(uint(profileID), date)
	if err != nil {
		if errors.Is(err, schedule.ErrDoctorNotFound) {
			http.Error(w, "Doctor not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Error computing available slots", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"available_slots": slots,
	})
}

// UpdateAvailability replaces the doctor's full weekly template. Doctors may
// only modify their own profile.
func (h *DoctorHandler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	profileID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid doctor ID", http.StatusBadRequest)
		return
	}

	userID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	var doctor models.DoctorProfile
	if err := h.db.First(&doctor, profileID).Error; err != nil {
		http.Error(w, "Doctor not found", http.StatusNotFound)
		return
	}
	if doctor.UserID != userID {
		http.Error(w, "Access denied", http.StatusForbidden)
		return
	}

	var updateRequest struct {
		AvailableSlots []models.AvailabilitySlot `json:"available_slots"`
	}
	if err := json.NewDecoder(r.Body).Decode(&updateRequest); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.scheduler.ReplaceTemplate(doctor.ID, updateRequest.AvailableSlots); err != nil {
		if errors.Is(err, schedule.ErrInvalidTemplate) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Error updating availability", http.StatusInternalServerError)
		return
	}

	var slots []models.AvailabilitySlot
	if err := h.db.Where("doctor_profile_id = ?", doctor.ID).Find(&slots).Error; err != nil {
		http.Error(w, "Error retrieving availability", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":         "Availability updated successfully",
		"available_slots": slots,
	})
}
