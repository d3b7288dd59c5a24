package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(string(data), filepath.Dir(path))
}

// Decode parses TOML text, applies defaults, resolves relative paths against
// base and validates the result. An empty base leaves paths untouched.
func Decode(data, base string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	normalize(&cfg)
	if base != "" {
		ResolvePaths(&cfg, base)
	}

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if len(cfg.Catalog.Patterns) == 0 {
		cfg.Catalog.Patterns = []string{"*.cfg"}
	}
	if cfg.Catalog.Links == nil {
		cfg.Catalog.Links = map[string]string{
			"IMS_imeX_RampStart": "IMS_imeX_Mode",
			"IMS_imeX_RampEnd":   "IMS_imeX_Mode",
			"IMS_imeX_RampTime":  "IMS_imeX_Mode",
		}
	}

	if len(cfg.Method.FileNames) == 0 {
		cfg.Method.FileNames = []string{"microtofqimpactemacquisition.method"}
	}
	if strings.TrimSpace(cfg.Method.Encoding) == "" {
		cfg.Method.Encoding = "iso-8859-1"
	}

	if len(cfg.Aux.DiaPatterns) == 0 {
		cfg.Aux.DiaPatterns = []string{"diasettings.diasqlite"}
	}
	if len(cfg.Aux.DiagonalPatterns) == 0 {
		cfg.Aux.DiagonalPatterns = []string{"synchroSettings.syncsqlite"}
	}
	if cfg.Aux.BusyTimeout <= 0 {
		cfg.Aux.BusyTimeout = 2 * time.Second
	}

	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.ReloadRate == 0 {
		cfg.Watch.ReloadRate = 1
	}
	if cfg.Watch.ReloadBurst == 0 {
		cfg.Watch.ReloadBurst = 2
	}

	if cfg.Observability.Port == 0 {
		cfg.Observability.Port = 9464
	}
	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "timscompare"
	}
}

func normalize(cfg *Config) {
	cfg.Catalog.Dir = strings.TrimSpace(cfg.Catalog.Dir)
	cfg.Catalog.Layouts = strings.TrimSpace(cfg.Catalog.Layouts)
	cfg.Catalog.Patterns = trimAll(cfg.Catalog.Patterns)
	cfg.Method.FileNames = trimAll(cfg.Method.FileNames)
	cfg.Method.Encoding = strings.ToLower(strings.TrimSpace(cfg.Method.Encoding))
	cfg.Aux.DiaPatterns = trimAll(cfg.Aux.DiaPatterns)
	cfg.Aux.DiagonalPatterns = trimAll(cfg.Aux.DiagonalPatterns)
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
