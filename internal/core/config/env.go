package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: TIMSCOMPARE_[SECTION]_[KEY] (e.g., TIMSCOMPARE_OBSERVABILITY_PORT).
func ApplyEnvOverrides(cfg *Config) {
	// Catalog
	setEnvString(&cfg.Catalog.Dir, "TIMSCOMPARE_CATALOG_DIR")
	setEnvString(&cfg.Catalog.Layouts, "TIMSCOMPARE_CATALOG_LAYOUTS")

	// Method
	setEnvList(&cfg.Method.FileNames, "TIMSCOMPARE_METHOD_FILE_NAMES")
	setEnvString(&cfg.Method.Encoding, "TIMSCOMPARE_METHOD_ENCODING")

	// Aux
	setEnvList(&cfg.Aux.DiaPatterns, "TIMSCOMPARE_AUX_DIA_PATTERNS")
	setEnvList(&cfg.Aux.DiagonalPatterns, "TIMSCOMPARE_AUX_DIAGONAL_PATTERNS")
	setEnvDuration(&cfg.Aux.BusyTimeout, "TIMSCOMPARE_AUX_BUSY_TIMEOUT")

	// Logging
	setEnvString(&cfg.Logging.Level, "TIMSCOMPARE_LOGGING_LEVEL")
	setEnvString(&cfg.Logging.File, "TIMSCOMPARE_LOGGING_FILE")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "TIMSCOMPARE_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.ReloadRate, "TIMSCOMPARE_WATCH_RELOAD_RATE")
	setEnvInt(&cfg.Watch.ReloadBurst, "TIMSCOMPARE_WATCH_RELOAD_BURST")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "TIMSCOMPARE_OBSERVABILITY_ENABLED")
	setEnvInt(&cfg.Observability.Port, "TIMSCOMPARE_OBSERVABILITY_PORT")
	setEnvString(&cfg.Observability.OTLPEndpoint, "TIMSCOMPARE_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "TIMSCOMPARE_OBSERVABILITY_ENABLE_TRACING")
	setEnvBool(&cfg.Observability.EnableMetrics, "TIMSCOMPARE_OBSERVABILITY_ENABLE_METRICS")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = trimAll(strings.Split(val, ","))
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
