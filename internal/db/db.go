package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"padaria-club-backend/config"
	"padaria-club-backend/internal/model"
)

// defaultMessages seeds the canned message pool on first boot so the sweep
// never starts against an empty table.
var defaultMessages = []string{
	"Pão quentinho saindo do forno, corre!",
	"A fornada de hoje está chegando. Garanta a sua!",
	"Cheirinho de pão fresco no ar...",
	"Sua padaria favorita tem novidade saindo do forno.",
}

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Map driver unique-violation errors to gorm.ErrDuplicatedKey so
		// handlers can answer 409 instead of a generic 500.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// Migrate runs AutoMigrate for all models and seeds the message pool.
// Split out from Init so tests can run it against an in-memory database.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Padaria{},
		&model.FornadaEvent{},
		&model.PushSubscription{},
		&model.NotificationMessage{},
		&model.Reservation{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	if err := seedMessages(db); err != nil {
		log.Printf("Warning: failed to seed message pool: %v. Continuing without it.", err)
	}
	return nil
}

func seedMessages(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.NotificationMessage{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	messages := make([]model.NotificationMessage, len(defaultMessages))
	for i, body := range defaultMessages {
		messages[i] = model.NotificationMessage{Body: body}
	}
	log.Printf("Seeding %d default notification messages...", len(messages))
	return db.Create(&messages).Error
}
