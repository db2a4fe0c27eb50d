package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"studyplanner-backend/pkg/log"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values loaded from environment variables.
type Config struct {
	HTTPPort       string
	ResponderDelay time.Duration
	SeedData       bool
	LogLevel       string
	LogFormat      string
	LogOutputPath  string // optional directory for a log file
	AllowedOrigins []string
	MessageRPS     float64
	MessageBurst   int
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file (useful for development)
	if err := godotenv.Load(); err != nil {
		log.Warnf("Could not load .env file, using environment variables only: %v", err)
	}
	return fromEnv()
}

func fromEnv() (*Config, error) {
	port := getEnv("HTTP_PORT", "8080")
	if _, err := strconv.Atoi(port); err != nil {
		return nil, fmt.Errorf("invalid HTTP_PORT %q: %w", port, err)
	}

	delayMS := getEnvInt("RESPONDER_DELAY_MS", 1000)
	if delayMS < 0 {
		log.Warnf("Negative RESPONDER_DELAY_MS %d, using 0", delayMS)
		delayMS = 0
	}

	cfg := &Config{
		HTTPPort:       port,
		ResponderDelay: time.Duration(delayMS) * time.Millisecond,
		SeedData:       getEnvBool("SEED_DATA", true),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
		LogOutputPath:  getEnv("LOG_OUTPUT_PATH", ""),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		MessageRPS:     getEnvFloat("MESSAGE_RATE_RPS", 5),
		MessageBurst:   getEnvInt("MESSAGE_RATE_BURST", 10),
	}

	log.Infof("Loaded config: Port=%s, ResponderDelay=%s, SeedData=%t, MessageRate=%.1f/s burst %d",
		cfg.HTTPPort, cfg.ResponderDelay, cfg.SeedData, cfg.MessageRPS, cfg.MessageBurst)
	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Debugf("Env variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := getEnv(key, strconv.Itoa(fallback))
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Warnf("Invalid %s '%s', using default %d. Error: %v", key, raw, fallback, err)
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	raw := getEnv(key, strconv.FormatFloat(fallback, 'f', -1, 64))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		log.Warnf("Invalid %s '%s', using default %g", key, raw, fallback)
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	raw := getEnv(key, strconv.FormatBool(fallback))
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Warnf("Invalid %s '%s', using default %t", key, raw, fallback)
		return fallback
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
