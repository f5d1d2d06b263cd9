package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	defaultDBPath        = "./dev.db"
	defaultPort          = "8080"
	defaultEnv           = "development"
	defaultLogLevel      = "info"
	defaultMigrationsDir = "migrations"

	// DefaultInkCostPerML is the legacy ink price used when a wide-format
	// item has no ledger entries.
	DefaultInkCostPerML = 0.05
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	AdminEmail    string
	AdminPassword string
	SessionSecret string
	DBPath        string
	Port          string
	Env           string
	LogLevel      string
	MigrationsDir string
	InkCostPerML  float64
}

// IsDev reports whether the service runs in the development environment.
func (c Config) IsDev() bool {
	return c.Env == "" || c.Env == defaultEnv
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	return LoadFrom(".env")
}

// LoadFrom loads the given dotenv files (missing files are ignored) and then
// reads the process environment. Existing variables win over file values.
func LoadFrom(files ...string) Config {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			log.Printf("warning: load %s: %v", f, err)
		}
	}

	cfg := Config{
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		DBPath:        getEnv("DB_PATH", defaultDBPath),
		Port:          getEnv("PORT", defaultPort),
		Env:           getEnv("APP_ENV", defaultEnv),
		LogLevel:      getEnv("LOG_LEVEL", defaultLogLevel),
		MigrationsDir: getEnv("MIGRATIONS_DIR", defaultMigrationsDir),
		InkCostPerML:  getEnvAsFloat("INK_COST_PER_ML", DefaultInkCostPerML),
	}

	if cfg.AdminEmail == "" {
		log.Print("warning: ADMIN_EMAIL is not set")
	}
	if cfg.AdminPassword == "" {
		log.Print("warning: ADMIN_PASSWORD is not set")
	}
	if cfg.SessionSecret == "" {
		log.Print("warning: SESSION_SECRET is not set")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		log.Printf("warning: %s=%q is not a non-negative number, using %v", key, raw, fallback)
		return fallback
	}
	return v
}
