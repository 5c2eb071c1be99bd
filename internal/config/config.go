package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// Config holds all configuration for the application
type Config struct {
	TelegramToken string
	ChatID        int64

	StoreBackend    string
	SQLitePath      string
	MongoURI        string
	MongoDB         string
	MongoCollection string

	// ProcessHour is the wall-clock hour the daily installment check runs at.
	ProcessHour int
	Location    *time.Location
	LogLevel    string
}

// Load loads configuration from a .env file (if any) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading it.")
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		TelegramToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		StoreBackend:    getenv("STORE_BACKEND", BackendSQLite),
		SQLitePath:      getenv("SQLITE_PATH", "installments.db"),
		MongoURI:        os.Getenv("MONGODB_URI"),
		MongoDB:         os.Getenv("MONGODB_DB"),
		MongoCollection: getenv("MONGODB_COLLECTION", "transactions"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		ProcessHour:     9,
		Location:        time.Local,
	}

	if chatIDStr := os.Getenv("TELEGRAM_CHAT_ID"); chatIDStr != "" {
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.ChatID = chatID
	}

	if hourStr := os.Getenv("PROCESS_HOUR"); hourStr != "" {
		hour, err := strconv.Atoi(hourStr)
		if err != nil || hour < 0 || hour > 23 {
			return nil, fmt.Errorf("invalid PROCESS_HOUR %q: must be 0-23", hourStr)
		}
		cfg.ProcessHour = hour
	}

	if tz := os.Getenv("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
		}
		cfg.Location = loc
	}

	// Validate backend-specific fields
	switch cfg.StoreBackend {
	case BackendSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("SQLITE_PATH not set")
		}
	case BackendMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGODB_URI not set")
		}
		if cfg.MongoDB == "" {
			return nil, fmt.Errorf("MONGODB_DB not set")
		}
	case BackendMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	return cfg, nil
}

// RequireTelegram validates the settings the bot process needs.
func (c *Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN not set")
	}
	if c.ChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID not set")
	}
	return nil
}

// IsAuthorizedChat checks if a message comes from the configured chat
func (c *Config) IsAuthorizedChat(chatID int64) bool {
	return chatID == c.ChatID
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
