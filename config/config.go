// config/config.go - Application configuration loaded from environment
package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration. Services receive the values they
// need from here instead of reading the environment themselves.
type Config struct {
	Port        string
	AppEnv      string
	CORSOrigins string

	// Secrets
	JWTSecret       string
	PageTokenSecret string

	// Admin bootstrap account
	AdminUsername string
	AdminPassword string

	// Frontend base URL used to build page references
	FrontendURL string

	// Game rules
	MaxPages      int
	PointsPerPage int
	BugQuota      int
	RoundCount    int
	RoundMinutes  int
}

// Load reads configuration from the environment with sensible defaults.
func Load() Config {
	return Config{
		Port:            getenv("PORT", "3000"),
		AppEnv:          getenv("APP_ENV", "development"),
		CORSOrigins:     getenv("CORS_ORIGINS", "http://localhost:3000"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		PageTokenSecret: os.Getenv("PAGE_TOKEN_SECRET"),
		AdminUsername:   getenv("ADMIN_USERNAME", "admin"),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
		FrontendURL:     getenv("FRONTEND_URL", "http://localhost:3000"),
		MaxPages:        getenvInt("GAME_MAX_PAGES", 10),
		PointsPerPage:   getenvInt("GAME_POINTS_PER_PAGE", 10),
		BugQuota:        getenvInt("GAME_BUG_QUOTA", 3),
		RoundCount:      getenvInt("GAME_ROUND_COUNT", 3),
		RoundMinutes:    getenvInt("GAME_ROUND_MINUTES", 60),
	}
}

// Validate checks for required values and exits if they are missing.
func (c Config) Validate() {
	if c.JWTSecret == "" {
		log.Fatal("FATAL: JWT_SECRET environment variable must be set. Generate one with: openssl rand -base64 64")
	}
	if len(c.JWTSecret) < 32 {
		log.Fatal("FATAL: JWT_SECRET must be at least 32 characters long")
	}
	if c.PageTokenSecret == "" {
		log.Fatal("FATAL: PAGE_TOKEN_SECRET environment variable must be set")
	}
	if c.AppEnv == "production" && c.AdminPassword == "" {
		log.Println("WARNING: ADMIN_PASSWORD not set, admin login is disabled")
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: %s=%q is not a number, using default %d", key, v, def)
		return def
	}
	return n
}
