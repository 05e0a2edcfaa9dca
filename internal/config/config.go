package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values.
type Config struct {
	AppPort            string
	AppBaseURL         string
	DatabaseURL        string
	JWTSecret          string
	TokenExpires       time.Duration
	SaferpayBaseURL    string
	SaferpayCustomerID string
	SaferpayTerminalID string
	SaferpayUsername   string
	SaferpayPassword   string
	DefaultCurrency    string
	AdminUsername      string
	AdminPasswordHash  string
	TelegramBotToken   string
	TelegramAdminChat  string
}

// Load reads environment variables and returns a populated Config.
func Load() *Config {
	_ = godotenv.Load()

	port := getEnv("APP_PORT", "8080")

	cfg := &Config{
		AppPort:            port,
		AppBaseURL:         strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:"+port), "/"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		TokenExpires:       getEnvDuration("JWT_TTL_HOURS", 24) * time.Hour,
		SaferpayBaseURL:    strings.TrimRight(getEnv("SAFERPAY_BASE_URL", "https://test.saferpay.com/api"), "/"),
		SaferpayCustomerID: getEnv("SAFERPAY_CUSTOMER_ID", ""),
		SaferpayTerminalID: getEnv("SAFERPAY_TERMINAL_ID", ""),
		SaferpayUsername:   getEnv("SAFERPAY_USERNAME", ""),
		SaferpayPassword:   getEnv("SAFERPAY_PASSWORD", ""),
		DefaultCurrency:    getEnv("DEFAULT_CURRENCY", "EUR"),
		AdminUsername:      getEnv("ADMIN_USERNAME", ""),
		AdminPasswordHash:  getEnv("ADMIN_PASSWORD_HASH", ""),
		TelegramBotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAdminChat:  getEnv("TELEGRAM_ADMIN_CHAT_ID", ""),
	}

	if cfg.AppPort == "" {
		log.Fatal("APP_PORT must be set")
	}

	if cfg.SaferpayCustomerID == "" || cfg.SaferpayTerminalID == "" {
		log.Println("warning: SAFERPAY_CUSTOMER_ID / SAFERPAY_TERMINAL_ID not set, gateway calls will be rejected upstream")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback int) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return time.Duration(parsed)
		}
	}
	return time.Duration(fallback)
}
