// Package config loads application configuration from the environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration. It is loaded once at process start
// and passed by reference into every component that needs it; no package keeps
// its own cached copy.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string
	TimeZone string

	// Rule files. Empty means "use built-in defaults"; a non-empty path that
	// does not exist is a hard error for the run.
	PriorityRulesPath string
	IgnoreRulesPath   string
	ThresholdsPath    string

	// Decision memory
	DecisionsDir        string
	DecisionSalt        string
	DecisionRetention   int // days
	StatsWindowDays     int
	PatternWindowDays   int
	PatternMinSamples   int
	PatternMinBucket    int
	PatternApprovalRate float64

	// Availability search
	SearchWindowDays int
	BusinessDayStart time.Duration // offset from midnight
	BusinessDayEnd   time.Duration
	SlotStep         time.Duration
	MaxSlotResults   int
	Holidays         []string // YYYY-MM-DD

	// Calendar source
	CalendarProvider string // "microsoft", "caldav" or "" (none)
	GraphBaseURL     string
	GraphToken       string
	CalDAVBaseURL    string
	CalDAVUsername   string
	CalDAVPassword   string

	// AI advisor (optional, feature-detected by endpoint presence)
	AdvisorEndpoint string
	AdvisorAPIKey   string
	AdvisorModel    string
	AdvisorTimeout  time.Duration

	// Infrastructure (all optional)
	RedisURL      string
	FreeBusyTTL   time.Duration
	RabbitMQURL   string
	ArchiveDriver string // "sqlite", "postgres" or "" (no archive)
	SQLitePath    string
	PostgresURL   string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		TimeZone: getEnv("UNTANGLE_TIMEZONE", "Local"),

		PriorityRulesPath: getEnv("UNTANGLE_PRIORITY_RULES", ""),
		IgnoreRulesPath:   getEnv("UNTANGLE_IGNORE_RULES", ""),
		ThresholdsPath:    getEnv("UNTANGLE_THRESHOLDS", ""),

		DecisionsDir:        getEnv("UNTANGLE_DECISIONS_DIR", defaultDecisionsDir()),
		DecisionSalt:        getEnv("UNTANGLE_DECISION_SALT", "untangle"),
		DecisionRetention:   getIntEnv("UNTANGLE_DECISION_RETENTION_DAYS", 90),
		StatsWindowDays:     getIntEnv("UNTANGLE_STATS_WINDOW_DAYS", 30),
		PatternWindowDays:   getIntEnv("UNTANGLE_PATTERN_WINDOW_DAYS", 90),
		PatternMinSamples:   getIntEnv("UNTANGLE_PATTERN_MIN_SAMPLES", 5),
		PatternMinBucket:    getIntEnv("UNTANGLE_PATTERN_MIN_BUCKET", 3),
		PatternApprovalRate: getFloatEnv("UNTANGLE_PATTERN_APPROVAL_RATE", 0.7),

		SearchWindowDays: getIntEnv("UNTANGLE_SEARCH_WINDOW_DAYS", 14),
		BusinessDayStart: getDurationEnv("UNTANGLE_BUSINESS_DAY_START", 9*time.Hour),
		BusinessDayEnd:   getDurationEnv("UNTANGLE_BUSINESS_DAY_END", 19*time.Hour),
		SlotStep:         getDurationEnv("UNTANGLE_SLOT_STEP", 30*time.Minute),
		MaxSlotResults:   getIntEnv("UNTANGLE_MAX_SLOT_RESULTS", 20),
		Holidays:         getListEnv("UNTANGLE_HOLIDAYS"),

		CalendarProvider: getEnv("UNTANGLE_CALENDAR_PROVIDER", ""),
		GraphBaseURL:     getEnv("UNTANGLE_GRAPH_BASE_URL", "https://graph.microsoft.com/v1.0"),
		GraphToken:       getEnv("UNTANGLE_GRAPH_TOKEN", ""),
		CalDAVBaseURL:    getEnv("UNTANGLE_CALDAV_URL", ""),
		CalDAVUsername:   getEnv("UNTANGLE_CALDAV_USERNAME", ""),
		CalDAVPassword:   getEnv("UNTANGLE_CALDAV_PASSWORD", ""),

		AdvisorEndpoint: getEnv("UNTANGLE_ADVISOR_ENDPOINT", ""),
		AdvisorAPIKey:   getEnv("UNTANGLE_ADVISOR_API_KEY", ""),
		AdvisorModel:    getEnv("UNTANGLE_ADVISOR_MODEL", "gpt-4o-mini"),
		AdvisorTimeout:  getDurationEnv("UNTANGLE_ADVISOR_TIMEOUT", 30*time.Second),

		RedisURL:      getEnv("REDIS_URL", ""),
		FreeBusyTTL:   getDurationEnv("UNTANGLE_FREEBUSY_TTL", 5*time.Minute),
		RabbitMQURL:   getEnv("RABBITMQ_URL", ""),
		ArchiveDriver: getEnv("UNTANGLE_ARCHIVE_DRIVER", ""),
		SQLitePath:    getEnv("UNTANGLE_SQLITE_PATH", ""),
		PostgresURL:   getEnv("DATABASE_URL", ""),
	}

	return cfg, nil
}

// Location resolves the configured operating time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.TimeZone)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func defaultDecisionsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".untangle/decisions"
	}
	return filepath.Join(home, ".untangle", "decisions")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			list = append(list, p)
		}
	}
	return list
}
