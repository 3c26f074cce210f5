// Package config handles environment-based configuration for the Broadside
// coordinator and router binaries.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// EnvConfig holds all environment-variable-driven settings for the
// coordinator process.
type EnvConfig struct {
	// Network
	ListenAddress string
	Port          int

	// HTTP
	APIMaxBodyBytes int
	ReadTimeout     time.Duration

	// Game timing
	TurnTimeout       time.Duration
	InactivityTimeout time.Duration
	ReconnectWindow   time.Duration
	TerminalGrace     time.Duration
	QuickMatchTimeout time.Duration
	SweepInterval     time.Duration

	// Match history
	StateDir             string
	HistoryEnabled       bool
	HistoryQueueSize     int
	HistoryFlushBatch    int
	HistoryFlushInterval time.Duration
	HistoryRetain        time.Duration
	HistoryPruneSchedule string // cron expression
}

// LoadEnvConfig reads environment variables and returns a validated
// EnvConfig. All problems are collected and reported together.
func LoadEnvConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	var errs []string

	// --- Network ---
	cfg.ListenAddress = strings.TrimSpace(envStr("BROADSIDE_LISTEN_ADDRESS", "0.0.0.0"))
	cfg.Port = envInt("BROADSIDE_PORT", 8889, &errs)

	// --- HTTP ---
	cfg.APIMaxBodyBytes = envInt("BROADSIDE_API_MAX_BODY_BYTES", 1<<20, &errs)
	cfg.ReadTimeout = envDuration("BROADSIDE_READ_TIMEOUT", 10*time.Second, &errs)

	// --- Game timing ---
	cfg.TurnTimeout = envDuration("BROADSIDE_TURN_TIMEOUT", 60*time.Second, &errs)
	cfg.InactivityTimeout = envDuration("BROADSIDE_INACTIVITY_TIMEOUT", 5*time.Second, &errs)
	cfg.ReconnectWindow = envDuration("BROADSIDE_RECONNECT_WINDOW", 60*time.Second, &errs)
	cfg.TerminalGrace = envDuration("BROADSIDE_TERMINAL_GRACE", 10*time.Second, &errs)
	cfg.QuickMatchTimeout = envDuration("BROADSIDE_QUICK_MATCH_TIMEOUT", 120*time.Second, &errs)
	cfg.SweepInterval = envDuration("BROADSIDE_SWEEP_INTERVAL", time.Second, &errs)

	// --- Match history ---
	cfg.StateDir = envStr("BROADSIDE_STATE_DIR", "/var/lib/broadside")
	cfg.HistoryEnabled = envBool("BROADSIDE_HISTORY_ENABLED", true, &errs)
	cfg.HistoryQueueSize = envInt("BROADSIDE_HISTORY_QUEUE_SIZE", 1024, &errs)
	cfg.HistoryFlushBatch = envInt("BROADSIDE_HISTORY_FLUSH_BATCH_SIZE", 256, &errs)
	cfg.HistoryFlushInterval = envDuration("BROADSIDE_HISTORY_FLUSH_INTERVAL", 5*time.Second, &errs)
	cfg.HistoryRetain = envDuration("BROADSIDE_HISTORY_RETAIN", 30*24*time.Hour, &errs)
	cfg.HistoryPruneSchedule = envStr("BROADSIDE_HISTORY_PRUNE_SCHEDULE", "0 4 * * *")

	// --- Validation ---
	if cfg.ListenAddress == "" {
		errs = append(errs, "BROADSIDE_LISTEN_ADDRESS must not be empty")
	}
	validatePort("BROADSIDE_PORT", cfg.Port, &errs)
	validatePositive("BROADSIDE_API_MAX_BODY_BYTES", cfg.APIMaxBodyBytes, &errs)
	validatePositiveDuration("BROADSIDE_READ_TIMEOUT", cfg.ReadTimeout, &errs)
	validatePositiveDuration("BROADSIDE_TURN_TIMEOUT", cfg.TurnTimeout, &errs)
	validatePositiveDuration("BROADSIDE_INACTIVITY_TIMEOUT", cfg.InactivityTimeout, &errs)
	validatePositiveDuration("BROADSIDE_RECONNECT_WINDOW", cfg.ReconnectWindow, &errs)
	validatePositiveDuration("BROADSIDE_TERMINAL_GRACE", cfg.TerminalGrace, &errs)
	validatePositiveDuration("BROADSIDE_QUICK_MATCH_TIMEOUT", cfg.QuickMatchTimeout, &errs)
	validatePositiveDuration("BROADSIDE_SWEEP_INTERVAL", cfg.SweepInterval, &errs)

	validatePositive("BROADSIDE_HISTORY_QUEUE_SIZE", cfg.HistoryQueueSize, &errs)
	validatePositive("BROADSIDE_HISTORY_FLUSH_BATCH_SIZE", cfg.HistoryFlushBatch, &errs)
	validatePositiveDuration("BROADSIDE_HISTORY_FLUSH_INTERVAL", cfg.HistoryFlushInterval, &errs)
	validatePositiveDuration("BROADSIDE_HISTORY_RETAIN", cfg.HistoryRetain, &errs)
	if _, err := cron.ParseStandard(cfg.HistoryPruneSchedule); err != nil {
		errs = append(errs, fmt.Sprintf("BROADSIDE_HISTORY_PRUNE_SCHEDULE: invalid cron expression %q: %v", cfg.HistoryPruneSchedule, err))
	}
	if cfg.HistoryQueueSize < 2*cfg.HistoryFlushBatch {
		errs = append(errs, "BROADSIDE_HISTORY_QUEUE_SIZE must be at least 2x BROADSIDE_HISTORY_FLUSH_BATCH_SIZE")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return cfg, nil
}

// --- helpers ---

func envStr(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int, errs *[]string) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: invalid integer %q", key, v))
		return defaultVal
	}
	return n
}

func envBool(key string, defaultVal bool, errs *[]string) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: invalid boolean %q", key, v))
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration, errs *[]string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: invalid duration %q", key, v))
		return defaultVal
	}
	return d
}

func validatePort(name string, value int, errs *[]string) {
	if value < 1 || value > 65535 {
		*errs = append(*errs, fmt.Sprintf("%s: port must be 1-65535, got %d", name, value))
	}
}

func validatePositive(name string, value int, errs *[]string) {
	if value <= 0 {
		*errs = append(*errs, fmt.Sprintf("%s: must be positive, got %d", name, value))
	}
}

func validatePositiveDuration(name string, value time.Duration, errs *[]string) {
	if value <= 0 {
		*errs = append(*errs, fmt.Sprintf("%s: must be a positive duration, got %s", name, value))
	}
}
