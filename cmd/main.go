package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/docspot/docspot-server/cmd/api"
	"github.com/docspot/docspot-server/cmd/models"
	"github.com/docspot/docspot-server/cmd/utils"
	"github.com/docspot/docspot-server/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			runMigrations()
			return
		case "clear-db":
			runDatabaseClear()
			return
		default:
			log.Fatalf("Unknown command: %s", os.Args[1])
		}
	}

	startServer()
}

func runMigrations() {
	DB, err := db.NewPSQLStorage()
	if err != nil {
		log.Fatalf("Database initialization error: %v", err)
	}
	defer func() {
		sqlDB, _ := DB.DB()
		sqlDB.Close()
		log.Println("Database connection closed")
	}()
	log.Println("Connected to the database for migrations")

	if err := performMigrations(DB); err != nil {
		log.Fatalf("Migration error: %v", err)
	}
	log.Println("Migrations completed successfully")
}

func performMigrations(DB *gorm.DB) error {

	migrations := map[interface{}]string{
		&models.User{}:                "User",
		&models.DoctorProfile{}:       "DoctorProfile",
		&models.AvailabilitySlot{}:    "AvailabilitySlot",
		&models.Appointment{}:         "Appointment",
		&models.AppointmentDocument{}: "AppointmentDocument",
	}

	log.Println("Starting database migrations...")
	for model, name := range migrations {
		log.Printf("Migrating %s table...", name)
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("error migrating %s table: %w", name, err)
		}
		log.Printf("%s migration successful", name)
	}

	if err := createDirectoryIfNotExist(utils.DocumentPath); err != nil {
		return err
	}
	log.Printf("Directory %s created/verified", utils.DocumentPath)

	log.Println("All migrations and directory setup completed successfully")
	return nil
}

func createDirectoryIfNotExist(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("could not create directory %s: %w", path, err)
		}
	}
	return nil
}

// seedDefaultAdmin creates the bootstrap admin account when none exists.
func seedDefaultAdmin(DB *gorm.DB) error {
	var admin models.User
	err := DB.Where("role = ?", models.RoleAdmin).First(&admin).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin = models.User{
		Name:         "Admin",
		Email:        "admin@docspot.com",
		PasswordHash: string(passwordHash),
		Role:         models.RoleAdmin,
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}
	log.Println("Default admin created: admin@docspot.com")
	return nil
}

func startServer() {
	DB, err := db.NewPSQLStorage()
	if err != nil {
		log.Fatalf("Database initialization error: %v", err)
	}
	defer func() {
		sqlDB, _ := DB.DB()
		sqlDB.Close()
		log.Println("Database connection closed")
	}()
	log.Println("Connected to the database")

	if err := utils.InitSigningKey(); err != nil {
		log.Fatalf("Signing key error: %v", err)
	}

	if err := seedDefaultAdmin(DB); err != nil {
		log.Fatalf("Admin seeding error: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	server := api.NewApiServer(":"+port, DB)

	go func() {
		if err := server.Run(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()
	log.Printf("Server running on port %s", port)

	<-quit
	log.Println("Shutting down server...")
}

func clearDatabase(DB *gorm.DB) error {
	tables := []interface{}{
		&models.AppointmentDocument{},
		&models.Appointment{},
		&models.AvailabilitySlot{},
		&models.DoctorProfile{},
		&models.User{},
	}

	log.Println("Dropping tables...")

	for _, table := range tables {
		if err := DB.Migrator().DropTable(table); err != nil {
			log.Printf("Warning dropping table %T: %v", table, err)
		} else {
			log.Printf("Table %T dropped", table)
		}
	}

	return nil
}

func runDatabaseClear() {
	DB, err := db.NewPSQLStorage()
	if err != nil {
		log.Fatalf("Database initialization error: %v", err)
	}
	defer func() {
		sqlDB, _ := DB.DB()
		sqlDB.Close()
		log.Println("Database connection closed")
	}()

	log.Println("Preparing to clear database...")

	var confirmation string
	fmt.Print("Are you sure you want to clear the database? (yes/no): ")
	fmt.Scanln(&confirmation)

	if confirmation != "yes" {
		log.Println("Database clearing cancelled.")
		return
	}

	if err := clearDatabase(DB); err != nil {
		log.Fatalf("Error clearing database: %v", err)
	}

	log.Println("Database cleared successfully")
}
