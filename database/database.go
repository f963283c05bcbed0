package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ehrm-server/config"
	"ehrm-server/models"
)

var DB *gorm.DB

// Initialize sets up the database connection and runs migrations
func Initialize() error {
	connString := os.Getenv("DB_URL")
	if connString == "" {
		// Fall back to discrete connection settings
		db := config.AppConfig.Database
		connString = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			db.Host, db.Port, db.User, db.Password, db.Name, db.SSLMode)
	}

	// Configure GORM logger
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	// Open database connection. TranslateError lets the stores detect
	// unique-constraint violations as gorm.ErrDuplicatedKey.
	var err error
	DB, err = gorm.Open(postgres.Open(connString), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL database
	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Successfully connected to database")

	// Run migrations
	if err := runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("✅ Database migrations completed successfully")

	return nil
}

// runMigrations creates or updates database tables
func runMigrations() error {
	return DB.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		// Attendance and scheduling
		&models.Shift{},
		&models.ShiftAssignment{},
		&models.Attendance{},
		// Approval workflow
		&models.ApprovalRequest{},
		&models.ApprovalStep{},
		&models.LeaveRequest{},
		&models.DaySwap{},
		&models.ClientVisit{},
		// Agenda
		&models.Agenda{},
		// Notifications
		&models.NotificationTemplate{},
		&models.Notification{},
		&models.PushToken{},
	)
}

func GetDB() *gorm.DB {
	return DB
}
