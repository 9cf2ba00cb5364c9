package user

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/docspot/docspot-server/cmd/models"
	"github.com/docspot/docspot-server/cmd/utils"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// RegisterRoutes sets up all auth-related routes
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/register", h.HandleRegister).Methods("POST")
	router.HandleFunc("/auth/login", h.handleLogin).Methods("POST")
	router.HandleFunc("/auth/verify", utils.AuthMiddleware(h.handleVerify)).Methods("GET")
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var registerRequest struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`

		// Doctor profile fields, used when role is doctor
		Specialization  string  `json:"specialization"`
		Qualification   string  `json:"qualification"`
		Experience      int     `json:"experience"`
		ConsultationFee float64 `json:"consultation_fee"`
		HospitalName    string  `json:"hospital_name"`
		HospitalAddress string  `json:"hospital_address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&registerRequest); err != nil {
		http.Error(w, "Invalid JSON input", http.StatusBadRequest)
		return
	}

	if registerRequest.Name == "" || registerRequest.Email == "" || registerRequest.Password == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	role := registerRequest.Role
	if role == "" {
		role = models.RolePatient
	}
	if role != models.RolePatient && role != models.RoleDoctor {
		http.Error(w, "Invalid role", http.StatusBadRequest)
		return
	}

	var existingUser models.User
	if result := h.db.Where("email = ?", registerRequest.Email).First(&existingUser); !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		if result.Error != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
		log.Printf("Registration attempt with duplicate email")
		http.Error(w, "Email is already in use", http.StatusConflict)
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(registerRequest.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Error hashing password", http.StatusInternalServerError)
		return
	}

	tx := h.db.Begin()

	user := models.User{
		Name:         registerRequest.Name,
		Email:        registerRequest.Email,
		PasswordHash: string(passwordHash),
		Role:         role,
	}

	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "UNIQUE constraint") {
			http.Error(w, "Email is already in use", http.StatusConflict)
			return
		}
		http.Error(w, "Error registering user", http.StatusInternalServerError)
		return
	}

	var profileID uint
	if role == models.RoleDoctor {
		specialization := registerRequest.Specialization
		if specialization == "" {
			specialization = "General Medicine"
		}
		qualification := registerRequest.Qualification
		if qualification == "" {
			qualification = "MBBS"
		}
		consultationFee := registerRequest.ConsultationFee
		if consultationFee == 0 {
			consultationFee = 500
		}

		profile := models.DoctorProfile{
			UserID:          user.ID,
			Specialization:  specialization,
			Qualification:   qualification,
			Experience:      registerRequest.Experience,
			ConsultationFee: consultationFee,
			HospitalName:    registerRequest.HospitalName,
			HospitalAddress: registerRequest.HospitalAddress,
		}

		if err := tx.Create(&profile).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Error creating doctor profile", http.StatusInternalServerError)
			return
		}
		profileID = profile.ID
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error committing transaction", http.StatusInternalServerError)
		return
	}

	token, err := utils.GenerateJWT(user.ID, user.Role)
	if err != nil {
		http.Error(w, "Error generating token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	response := map[string]interface{}{
		"token": token,
		"user": map[string]interface{}{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	}
	if profileID != 0 {
		response["doctor_profile_id"] = profileID
	}
	json.NewEncoder(w).Encode(response)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&loginRequest); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Unknown email and wrong password respond identically.
	var user models.User
	result := h.db.Where("email = ?", loginRequest.Email).First(&user)
	if result.Error != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(loginRequest.Password)); err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := utils.GenerateJWT(user.ID, user.Role)
	if err != nil {
		http.Error(w, "Error generating token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token": token,
		"user": map[string]interface{}{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	var user models.User
	if err := h.db.Preload("DoctorProfile").First(&user, userID).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"user": user})
}
