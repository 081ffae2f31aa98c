// Package config loads RunConfig from environment variables (spec §0/§7),
// grounded on the teacher's internal/config.Load(): godotenv for .env
// loading, explicit getEnv* helpers with defaults, and a Validate step
// that returns a typed error instead of panicking.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// RunConfig is the full set of parameters a backtest or paper run needs
// before the engine can start.
type RunConfig struct {
	Market        string    // calendar/market code, e.g. "usa"
	TimeZone      string    // IANA zone name for strategy-facing times
	StartDate     time.Time
	EndDate       time.Time
	InitialCash   float64
	LogLevel      string
	LogPretty     bool
	DataDir       string // root directory for historical data files
	ResultsDir    string // where Result JSON/sqlite is written
	LiveAPIPort   int    // internal/api listen port, live/paper mode only
	LiveAPIHost   string
	S3Bucket      string // internal/backup archive destination, optional
	S3Region      string
	DevMode       bool

	// DataNormalizationMode is one of "raw", "adjusted", "splitAdjusted",
	// "totalReturn" (spec §6). Only "raw" credits dividend cash directly;
	// the other modes assume the adjustment already lives in price history.
	DataNormalizationMode string
	// StrictData stops the run on the first malformed sample instead of
	// discarding it and incrementing the DataError diagnostic counter.
	StrictData bool
}

// ConfigError reports a RunConfig that failed validation. It is returned,
// never panicked, so callers (including cmd/tradesim) can decide how to
// fail.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: invalid %s: %s", e.Field, e.Reason)
}

// Load reads RunConfig from environment variables, optionally loading a
// .env file first (godotenv.Load() failing because no .env exists is not
// itself an error).
//
// dataDirOverride, if non-empty, takes priority over the TRADESIM_DATA_DIR
// environment variable, mirroring the teacher's CLI-flag-beats-env-var
// precedence for data directory resolution.
func Load(dataDirOverride ...string) (*RunConfig, error) {
	_ = godotenv.Load()

	dataDir := ""
	if len(dataDirOverride) > 0 && dataDirOverride[0] != "" {
		dataDir = dataDirOverride[0]
	} else {
		dataDir = getEnv("TRADESIM_DATA_DIR", "./data")
	}

	start, err := parseDate(getEnv("TRADESIM_START_DATE", ""))
	if err != nil {
		return nil, &ConfigError{Field: "startDate", Reason: err.Error()}
	}
	end, err := parseDate(getEnv("TRADESIM_END_DATE", ""))
	if err != nil {
		return nil, &ConfigError{Field: "endDate", Reason: err.Error()}
	}

	cfg := &RunConfig{
		Market:      getEnv("TRADESIM_MARKET", "usa"),
		TimeZone:    getEnv("TRADESIM_TIMEZONE", "America/New_York"),
		StartDate:   start,
		EndDate:     end,
		InitialCash: getEnvAsFloat("TRADESIM_INITIAL_CASH", 100000),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogPretty:   getEnvAsBool("LOG_PRETTY", false),
		DataDir:     dataDir,
		ResultsDir:  getEnv("TRADESIM_RESULTS_DIR", "./results"),
		LiveAPIPort: getEnvAsInt("TRADESIM_API_PORT", 8080),
		LiveAPIHost: getEnv("TRADESIM_API_HOST", "localhost"),
		S3Bucket:    getEnv("TRADESIM_S3_BUCKET", ""),
		S3Region:    getEnv("TRADESIM_S3_REGION", "us-east-1"),
		DevMode:     getEnvAsBool("DEV_MODE", false),

		DataNormalizationMode: getEnv("TRADESIM_DATA_NORMALIZATION", "raw"),
		StrictData:            getEnvAsBool("TRADESIM_STRICT_DATA", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.ResultsDir, 0o755); err != nil {
		return nil, fmt.Errorf("config: failed to create results directory: %w", err)
	}

	return cfg, nil
}

// Validate enforces the invariants spec §7 requires a ConfigError for:
// startDate >= endDate, unknown/unparsable time zone, non-positive
// initial cash.
func (c *RunConfig) Validate() error {
	if !c.StartDate.Before(c.EndDate) {
		return &ConfigError{Field: "startDate/endDate", Reason: "startDate must be before endDate"}
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return &ConfigError{Field: "timeZone", Reason: fmt.Sprintf("unknown time zone %q", c.TimeZone)}
	}
	if c.InitialCash <= 0 {
		return &ConfigError{Field: "initialCash", Reason: "must be positive"}
	}
	switch c.DataNormalizationMode {
	case "raw", "adjusted", "splitAdjusted", "totalReturn":
	default:
		return &ConfigError{Field: "dataNormalizationMode", Reason: fmt.Sprintf("unrecognized mode %q", c.DataNormalizationMode)}
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("not set")
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD: %w", err)
	}
	return t, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}
