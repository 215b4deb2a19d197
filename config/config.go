/*
config.go - Environment-driven configuration

PURPOSE:
  Loads runtime configuration from the environment, with .env support for
  local development. Every knob has a working default so the server starts
  with no configuration at all.

VARIABLES:
  PORT          HTTP server port (default: 8080)
  DB_PATH       SQLite database path (default: presence.db, ":memory:" works)
  BRANCH_NAME   Office branch the geofence profile is keyed by
                (default: "Main Office")
  PAYROLL_CRON  Cron expression for the automated payroll run
                (default: "0 2 1 * *", 02:00 on the 1st)

SEE ALSO:
  - cmd/server/main.go: Consumes this
*/
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings.
type Config struct {
	Port        string
	DBPath      string
	BranchName  string
	PayrollCron string
}

// Load reads .env if present, then the environment. A missing .env is not an
// error; containers set real environment variables instead.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		DBPath:      getEnvOrDefault("DB_PATH", "presence.db"),
		BranchName:  getEnvOrDefault("BRANCH_NAME", "Main Office"),
		PayrollCron: getEnvOrDefault("PAYROLL_CRON", "0 2 1 * *"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
