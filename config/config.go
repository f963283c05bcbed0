package config

import (
	"os"
	"strconv"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Attendance   AttendanceConfig
	Notification NotificationConfig
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type AttendanceConfig struct {
	// Minutes of lateness tolerated after shift start before an
	// attendance is flagged terlambat.
	DefaultToleranceMinutes int
}

type NotificationConfig struct {
	// Expo push endpoint. Overridable for testing.
	ExpoPushURL string
	// Whether approvers advancing a chain also triggers a per-level
	// notice to the requester (in addition to the terminal outcome).
	NotifyEachLevel bool
	// Hours a request may sit pending before the reminder sweep
	// re-notifies the active approver.
	ReminderAfterHours int
}

var AppConfig *Config

func Load() {
	AppConfig = &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "ehrm_db"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-this-secret-in-production"),
			ExpiryHours: getEnvAsInt("JWT_EXPIRY_HOURS", 24),
		},
		Attendance: AttendanceConfig{
			DefaultToleranceMinutes: getEnvAsInt("ATTENDANCE_TOLERANCE_MINUTES", 15),
		},
		Notification: NotificationConfig{
			ExpoPushURL:        getEnv("EXPO_PUSH_URL", "https://exp.host/--/api/v2/push/send"),
			NotifyEachLevel:    getEnvAsBool("NOTIFY_EACH_LEVEL", false),
			ReminderAfterHours: getEnvAsInt("APPROVAL_REMINDER_HOURS", 24),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
