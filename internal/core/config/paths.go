package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolvePaths makes the file references of cfg absolute against base,
// normally the directory of the config file.
func ResolvePaths(cfg *Config, base string) {
	if cfg.Catalog.Dir != "" {
		cfg.Catalog.Dir = ResolveRelative(base, cfg.Catalog.Dir)
	}
	if cfg.Catalog.Layouts != "" && !strings.Contains(cfg.Catalog.Layouts, "://") {
		cfg.Catalog.Layouts = ResolveRelative(base, cfg.Catalog.Layouts)
	}
	if strings.TrimSpace(cfg.Logging.File) != "" {
		cfg.Logging.File = ResolveRelative(base, cfg.Logging.File)
	}
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// DefaultLogPath follows the XDG state directory convention.
func DefaultLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "timscompare", "timscompare.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "timscompare", "timscompare.log")
	}

	return "timscompare.log"
}
