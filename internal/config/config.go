// Package config loads server configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"

	"raidcast/internal/reliability"
)

// Config is the runtime configuration of the forecast service.
type Config struct {
	Port   string
	DBPath string

	// ShoutrrrURL is the notification target; empty disables dispatch.
	ShoutrrrURL string

	// AFPWarn and AFPCritical are per-disk annual failure probability
	// thresholds (0..1) for notification events.
	AFPWarn     float64
	AFPCritical float64

	// LossRiskThreshold triggers a data-loss-risk event when the loss
	// probability at the configured parity and cadence exceeds it.
	LossRiskThreshold float64

	// ParityLevel is the redundancy of the local array; ScrubRate its
	// repair cadence in repairs per year.
	ParityLevel int
	ScrubRate   float64

	// MaxParity bounds the redundancy levels the report covers.
	MaxParity int

	// Spares lists serial numbers excluded from the array aggregate.
	Spares []string

	AuthEnabled bool
	// TokenHash is the bcrypt hash of the API bearer token.
	TokenHash string
}

// Load returns the configuration from environment variables.
func Load() Config {
	return Config{
		Port:              getEnv("PORT", "9270"),
		DBPath:            getEnv("DB_PATH", "raidcast.db"),
		ShoutrrrURL:       getEnv("SHOUTRRR_URL", ""),
		AFPWarn:           getEnvFloat("AFP_WARN", 0.05),
		AFPCritical:       getEnvFloat("AFP_CRITICAL", 0.20),
		LossRiskThreshold: getEnvFloat("LOSS_RISK_THRESHOLD", 0.01),
		ParityLevel:       getEnvInt("PARITY_LEVEL", 1),
		ScrubRate:         getEnvFloat("SCRUB_RATE", reliability.RepairWeekly),
		MaxParity:         getEnvInt("MAX_PARITY", reliability.MaxParity),
		Spares:            splitList(getEnv("SPARE_SERIALS", "")),
		AuthEnabled:       getEnv("AUTH_ENABLED", "false") == "true",
		TokenHash:         getEnv("API_TOKEN_HASH", ""),
	}
}

// SpareSet returns the spare serials as a lookup set.
func (c Config) SpareSet() map[string]bool {
	set := make(map[string]bool, len(c.Spares))
	for _, s := range c.Spares {
		set[s] = true
	}
	return set
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
