package config

import (
	"time"
)

const DefaultFileName = "timscompare.toml"

type Config struct {
	Version       int           `toml:"version"`
	Catalog       Catalog       `toml:"catalog"`
	Method        Method        `toml:"method"`
	Aux           Aux           `toml:"aux"`
	Logging       Logging       `toml:"logging"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Catalog struct {
	// Dir holds the .cfg definition files. Empty uses the built-in catalog.
	Dir      string   `toml:"dir"`
	Patterns []string `toml:"patterns"`
	// Layouts is a YAML or JSON file of workflow parameter lists.
	Layouts string `toml:"layouts"`
	// Links maps dependent parameters to their driver parameter.
	Links map[string]string `toml:"links"`
}

type Method struct {
	FileNames []string `toml:"file_names"`
	Encoding  string   `toml:"encoding"`
}

type Aux struct {
	DiaPatterns      []string      `toml:"dia_patterns"`
	DiagonalPatterns []string      `toml:"diagonal_patterns"`
	BusyTimeout      time.Duration `toml:"busy_timeout"`
}

type Logging struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type Watch struct {
	Debounce    time.Duration `toml:"debounce"`
	ReloadRate  float64       `toml:"reload_rate"`
	ReloadBurst int           `toml:"reload_burst"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	Port          int    `toml:"port"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	ServiceName   string `toml:"service_name"`
	EnableTracing bool   `toml:"enable_tracing"`
	EnableMetrics bool   `toml:"enable_metrics"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
