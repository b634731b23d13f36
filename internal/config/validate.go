package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/jeselxe/video-cropper/internal/logging"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors and inconsistencies.
// Returns nil if valid, or an error describing every problem.
func Validate(cfg *Config) error {
	var errs []error

	if strings.TrimSpace(cfg.FFmpegPath) == "" {
		errs = append(errs, ValidationError{
			Field:   "ffmpeg_path",
			Message: "must not be empty",
		})
	}

	// Proxy encode
	if cfg.Proxy.Height < 0 {
		errs = append(errs, ValidationError{
			Field:   "proxy.height",
			Message: fmt.Sprintf("must not be negative (got %d)", cfg.Proxy.Height),
		})
	}
	if cfg.Proxy.Height%2 != 0 {
		errs = append(errs, ValidationError{
			Field:   "proxy.height",
			Message: fmt.Sprintf("must be even for yuv420p output (got %d)", cfg.Proxy.Height),
		})
	}

	// Process control
	if cfg.RunTimeout.Duration < 0 {
		errs = append(errs, ValidationError{
			Field:   "run_timeout",
			Message: "must not be negative",
		})
	}
	if cfg.StopTimeout.Duration <= 0 {
		errs = append(errs, ValidationError{
			Field:   "stop_timeout",
			Message: "must be positive",
		})
	}
	if cfg.TailLines < 1 {
		errs = append(errs, ValidationError{
			Field:   "tail_lines",
			Message: "must be at least 1",
		})
	}

	// Observability
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.LogFormat] {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be 'json' or 'text' (got %q)", cfg.LogFormat),
		})
	}
	if !logging.ValidLevel(cfg.LogLevel) {
		errs = append(errs, ValidationError{
			Field:   "log_level",
			Message: fmt.Sprintf("must be one of debug, info, warn, error (got %q)", cfg.LogLevel),
		})
	}
	if cfg.MetricsAddr != "" {
		if err := validateAddr(cfg.MetricsAddr); err != nil {
			errs = append(errs, ValidationError{
				Field:   "metrics_addr",
				Message: err.Error(),
			})
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// validateAddr checks a host:port listen address.
func validateAddr(addr string) error {
	if strings.Contains(addr, "://") {
		return errors.New("must be host:port, not a URL")
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}
