package appointment

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/docspot/docspot-server/cmd/models"
	"github.com/docspot/docspot-server/cmd/utils"
	"github.com/docspot/docspot-server/service/schedule"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type AppointmentHandler struct {
	db        *gorm.DB
	scheduler *schedule.Scheduler
}

func NewAppointmentHandler(db *gorm.DB) *AppointmentHandler {
	return &AppointmentHandler{db: db, scheduler: schedule.NewScheduler(db)}
}

func (h *AppointmentHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/appointments",
		utils.RequireRoles(h.BookAppointment, models.RolePatient)).Methods("POST")
	router.HandleFunc("/appointments/my",
		utils.AuthMiddleware(h.GetMyAppointments)).Methods("GET")
	router.HandleFunc("/appointments/{id:[0-9]+}",
		utils.AuthMiddleware(h.GetAppointment)).Methods("GET")
	router.HandleFunc("/appointments/{id:[0-9]+}/status",
		utils.AuthMiddleware(h.UpdateAppointmentStatus)).Methods("PUT")
	router.HandleFunc("/documents/{filename}", h.ServeDocument).Methods("GET")
}

// BookAppointment creates a pending appointment for the caller. The request
// is multipart: doctor_id, appointment_date, time_slot, symptoms, plus up to
// five attached documents.
func (h *AppointmentHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	patientID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	doctorProfileID, err := strconv.ParseUint(r.FormValue("doctor_id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid doctor ID", http.StatusBadRequest)
		return
	}

	date, err := time.Parse("2006-01-02", r.FormValue("appointment_date"))
	if err != nil {
		http.Error(w, "Invalid date format. Use YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	timeSlot := r.FormValue("time_slot")
	if timeSlot == "" {
		http.Error(w, "Time slot is required", http.StatusBadRequest)
		return
	}

	fileHeaders := r.MultipartForm.File["documents"]
	if len(fileHeaders) > utils.MaxDocumentCount {
		http.Error(w, "Too many documents: maximum is 5", http.StatusBadRequest)
		return
	}

	var documents []string
	for _, header := range fileHeaders {
		file, err := header.Open()
		if err != nil {
			http.Error(w, "Error reading uploaded file", http.StatusBadRequest)
			return
		}
		documentURL, err := utils.SaveDocument(file, header)
		file.Close()
		if err != nil {
			cleanupDocuments(documents)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		documents = append(documents, documentURL)
	}

	appointment, err := h.scheduler.Book(schedule.BookingRequest{
		PatientID:       patientID,
		DoctorProfileID: uint(doctorProfileID),
		Date:            date,
		TimeSlot:        timeSlot,
		Symptoms:        r.FormValue("symptoms"),
		Documents:       documents,
	})
	if err != nil {
		cleanupDocuments(documents)
		switch {
		case errors.Is(err, schedule.ErrDoctorNotFound):
			http.Error(w, "Doctor not found", http.StatusNotFound)
		case errors.Is(err, schedule.ErrSlotUnavailable):
			http.Error(w, "Time slot is no longer available", http.StatusConflict)
		default:
			http.Error(w, "Error booking appointment", http.StatusInternalServerError)
		}
		return
	}

	h.db.Preload("Doctor").Preload("Documents").First(appointment, appointment.ID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":     "Appointment booked successfully",
		"appointment": appointment,
	})
}

func cleanupDocuments(documents []string) {
	for _, documentURL := range documents {
		utils.DeleteDocument(documentURL)
	}
}

// GetMyAppointments lists the caller's appointments: patients see their own
// with the doctor joined, doctors theirs with the patient joined, admins all.
func (h *AppointmentHandler) GetMyAppointments(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}
	role, err := utils.GetRoleFromContext(r)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	query := h.db.Model(&models.Appointment{}).Preload("Documents")
	switch role {
	case models.RolePatient:
		query = query.Where("patient_id = ?", userID).Preload("Doctor")
	case models.RoleDoctor:
		query = query.Where("doctor_id = ?", userID).Preload("Patient")
	case models.RoleAdmin:
		query = query.Preload("Patient").Preload("Doctor")
	default:
		http.Error(w, "Access denied", http.StatusForbidden)
		return
	}

	var appointments []models.Appointment
	if err := query.Order("appointment_date DESC, time_slot DESC").Find(&appointments).Error; err != nil {
		http.Error(w, "Error retrieving appointments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appointments)
}

func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	appointmentID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid appointment ID", http.StatusBadRequest)
		return
	}

	userID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}
	role, _ := utils.GetRoleFromContext(r)

	var appointment models.Appointment
	if err := h.db.Preload("Patient").Preload("Doctor").Preload("Documents").
		First(&appointment, appointmentID).Error; err != nil {
		http.Error(w, "Appointment not found", http.StatusNotFound)
		return
	}

	if role != models.RoleAdmin && appointment.PatientID != userID && appointment.DoctorID != userID {
		http.Error(w, "Access denied", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appointment)
}

// UpdateAppointmentStatus drives the appointment status machine. Ownership
// and the transition table are enforced by the scheduler.
func (h *AppointmentHandler) UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	appointmentID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid appointment ID", http.StatusBadRequest)
		return
	}

	userID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}
	role, err := utils.GetRoleFromContext(r)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	var statusUpdate struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&statusUpdate); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appointment, err := h.scheduler.UpdateStatus(uint(appointmentID), statusUpdate.Status, userID, role)
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrAppointmentNotFound):
			http.Error(w, "Appointment not found", http.StatusNotFound)
		case errors.Is(err, schedule.ErrForbidden):
			http.Error(w, "Not authorized", http.StatusForbidden)
		case errors.Is(err, schedule.ErrInvalidTransition):
			http.Error(w, "Invalid status transition", http.StatusConflict)
		default:
			http.Error(w, "Error updating appointment", http.StatusInternalServerError)
		}
		return
	}

	if statusUpdate.Notes != "" {
		appointment.Notes = statusUpdate.Notes
		if err := h.db.Save(appointment).Error; err != nil {
			http.Error(w, "Error saving notes", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":     "Appointment status updated",
		"appointment": appointment,
	})
}

// ServeDocument serves a stored appointment attachment by filename.
func (h *AppointmentHandler) ServeDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	filename := vars["filename"]

	// Basic security check for directory traversal
	if containsDotDot(filename) {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	documentPath := filepath.Join(utils.DocumentPath, filepath.Clean(filename))

	if _, err := os.Stat(documentPath); os.IsNotExist(err) {
		http.Error(w, "Document not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", getContentType(documentPath))
	http.ServeFile(w, r, documentPath)
}

func containsDotDot(v string) bool {
	if !filepath.IsAbs(v) {
		v = filepath.Clean(filepath.Join("/", v))
	}
	return filepath.Clean(v) != v
}

func getContentType(filename string) string {
	ext := filepath.Ext(filename)
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
