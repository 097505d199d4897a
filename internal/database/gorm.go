package database

import (
	"fmt"
	"log"

	"whatsapp-console/internal/config"
	"whatsapp-console/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init opens the database per config (Postgres in production, SQLite for
// dev) and runs auto-migration.
func Init(cfg *config.Config) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(cfg.DBPath)
	}

	var err error
	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("Failed to run auto-migration: %v", err)
	}

	log.Println("Database ready")
}

// Migrate runs auto-migration for all console models. Exposed so tests can
// bring up an in-memory SQLite schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Contact{},
		&models.Note{},
		&models.Message{},
		&models.Template{},
		&models.SystemSetting{},
	)
}

// SyncConfig reconciles env config with the system_settings table: values
// present in the DB win, values present only in the env are saved.
func SyncConfig(cfg *config.Config) {
	settings := []struct {
		Key   string
		Value *string
	}{
		{"VERIFY_TOKEN", &cfg.VerifyToken},
		{"WHATSAPP_TOKEN", &cfg.WhatsAppToken},
		{"PHONE_NUMBER_ID", &cfg.PhoneNumberID},
		{"WABA_ID", &cfg.WhatsAppBusinessAccountID},
	}

	for _, s := range settings {
		var setting models.SystemSetting
		if err := DB.Where("key = ?", s.Key).First(&setting).Error; err == nil {
			if setting.Value != "" {
				*s.Value = setting.Value
			}
		} else if *s.Value != "" {
			DB.Create(&models.SystemSetting{Key: s.Key, Value: *s.Value})
		}
	}
	log.Println("System settings synchronized from database")
}
