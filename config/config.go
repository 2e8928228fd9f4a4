package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port   string
	DBName string
	JWTKey string

	// Payment gateway (hosted redirect + IPN)
	GatewayBaseURL       string
	GatewayStoreID       string
	GatewayStorePassword string
	GatewayTimeoutSec    int

	// Public base URL used to build success/fail/cancel/IPN callback URLs
	AppBaseURL string

	// Stale pending gateway payments are cancelled after this many hours
	PaymentExpiryHours int

	EmailSender    string
	SendGridAPIKey string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:   getEnv("PORT", "3000"),
		DBName: getEnv("DB_NAME", "lms"),
		JWTKey: getEnv("JWT_SECRET_KEY", "defaultSecret"),

		GatewayBaseURL:       getEnv("GATEWAY_BASE_URL", "https://sandbox.sslcommerz.com"),
		GatewayStoreID:       getEnv("GATEWAY_STORE_ID", "teststore"),
		GatewayStorePassword: getEnv("GATEWAY_STORE_PASSWORD", "teststore@ssl"),
		GatewayTimeoutSec:    getEnvInt("GATEWAY_TIMEOUT_SECONDS", 15),

		AppBaseURL: getEnv("APP_BASE_URL", "http://localhost:3000"),

		PaymentExpiryHours: getEnvInt("PAYMENT_EXPIRY_HOURS", 24),

		EmailSender:    getEnv("EMAIL_SENDER", "noreply@example.com"),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.SendGridAPIKey == "" {
		log.Println("Warning: SENDGRID_API_KEY not set. Emails will fail to send.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}
