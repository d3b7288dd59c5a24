package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/gobwas/glob"
)

// Validate returns every problem found in cfg.
func Validate(cfg *Config) []error {
	var errs []error
	for _, check := range []func(*Config) error{
		validateVersion,
		validateCatalog,
		validateMethod,
		validateAux,
		validateLogging,
		validateWatch,
		validateObservability,
	} {
		if err := check(cfg); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateCatalog(cfg *Config) error {
	if cfg.Catalog.Dir != "" {
		info, err := os.Stat(cfg.Catalog.Dir)
		if err != nil {
			return fmt.Errorf("catalog.dir %q does not exist", cfg.Catalog.Dir)
		}
		if !info.IsDir() {
			return fmt.Errorf("catalog.dir %q is not a directory", cfg.Catalog.Dir)
		}
	}
	if err := validatePatterns("catalog.patterns", cfg.Catalog.Patterns); err != nil {
		return err
	}
	for dependent, driver := range cfg.Catalog.Links {
		if strings.TrimSpace(dependent) == "" || strings.TrimSpace(driver) == "" {
			return fmt.Errorf("catalog.links entries must name both dependent and driver")
		}
		if dependent == driver {
			return fmt.Errorf("catalog.links: %q cannot drive itself", dependent)
		}
	}
	return nil
}

func validateMethod(cfg *Config) error {
	if len(cfg.Method.FileNames) == 0 {
		return fmt.Errorf("method.file_names must not be empty")
	}
	if err := validatePatterns("method.file_names", cfg.Method.FileNames); err != nil {
		return err
	}
	switch cfg.Method.Encoding {
	case "utf-8", "utf8", "iso-8859-1", "latin1", "windows-1252":
		return nil
	default:
		return fmt.Errorf("method.encoding %q is not supported", cfg.Method.Encoding)
	}
}

func validateAux(cfg *Config) error {
	if err := validatePatterns("aux.dia_patterns", cfg.Aux.DiaPatterns); err != nil {
		return err
	}
	return validatePatterns("aux.diagonal_patterns", cfg.Aux.DiagonalPatterns)
}

func validateLogging(cfg *Config) error {
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if cfg.Watch.ReloadRate < 0 {
		return fmt.Errorf("watch.reload_rate must not be negative")
	}
	if cfg.Watch.ReloadBurst < 1 {
		return fmt.Errorf("watch.reload_burst must be >= 1")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if cfg.Observability.Port < 1 || cfg.Observability.Port > 65535 {
		return fmt.Errorf("observability.port %d is out of range", cfg.Observability.Port)
	}
	return nil
}

func validatePatterns(field string, patterns []string) error {
	for i, p := range patterns {
		if _, err := glob.Compile(strings.ToLower(p)); err != nil {
			return fmt.Errorf("%s[%d] %q is not a valid pattern: %w", field, i, p, err)
		}
	}
	return nil
}
