package api

import (
	"log"
	"net/http"

	"github.com/docspot/docspot-server/service/admin"
	"github.com/docspot/docspot-server/service/appointment"
	"github.com/docspot/docspot-server/service/doctor"
	"github.com/docspot/docspot-server/service/user"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type APIServer struct {
	address string
	db      *gorm.DB
}

func NewApiServer(address string, db *gorm.DB) *APIServer {
	return &APIServer{
		address: address,
		db:      db,
	}
}

func (s *APIServer) Run() error {
	router := mux.NewRouter()
	subrouter := router.PathPrefix("/api/v1").Subrouter()

	userHandler := user.NewHandler(s.db)
	userHandler.RegisterRoutes(subrouter)

	doctorHandler := doctor.NewDoctorHandler(s.db)
	doctorHandler.RegisterRoutes(subrouter)

	appointmentHandler := appointment.NewAppointmentHandler(s.db)
	appointmentHandler.RegisterRoutes(subrouter)

	adminHandler := admin.NewAdminHandler(s.db)
	adminHandler.RegisterRoutes(subrouter)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	log.Println("Server running at", s.address)
	return http.ListenAndServe(s.address, cors(router))
}
