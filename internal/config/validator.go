package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is wrapped by every error Validate returns.
var ErrInvalid = errors.New("config validation errors")

// Validate checks the config for:
//   - Required fields
//   - Non-negative concurrency and size limits
//   - Empty keys or values in the icon overrides
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalid)
	}
	var errs []string

	if cfg.Version == "" {
		errs = append(errs, "version is required")
	}
	if cfg.Server.Addr == "" {
		errs = append(errs, "server.addr must not be empty")
	}
	if cfg.Server.ReadTimeoutMs < 0 || cfg.Server.WriteTimeoutMs < 0 {
		errs = append(errs, "server timeouts must not be negative")
	}
	if cfg.Server.MaxBodyBytes < 0 {
		errs = append(errs, "server.max_body_bytes must not be negative")
	}

	e := cfg.Engine
	if e.Workers < 0 {
		errs = append(errs, fmt.Sprintf("engine.workers must not be negative, got %d", e.Workers))
	}
	if e.QueueDepth < 0 {
		errs = append(errs, fmt.Sprintf("engine.queue_depth must not be negative, got %d", e.QueueDepth))
	}
	if e.TransformTimeoutMs < 0 {
		errs = append(errs, fmt.Sprintf("engine.transform_timeout_ms must not be negative, got %d", e.TransformTimeoutMs))
	}
	if e.MaxBatchSize < 0 {
		errs = append(errs, fmt.Sprintf("engine.max_batch_size must not be negative, got %d", e.MaxBatchSize))
	}
	if e.QueueDepth > 0 && e.MaxBatchSize > e.QueueDepth {
		errs = append(errs, fmt.Sprintf("engine.max_batch_size %d exceeds queue_depth %d", e.MaxBatchSize, e.QueueDepth))
	}

	for stepType, icon := range cfg.Icons.Overrides {
		switch {
		case strings.TrimSpace(stepType) == "":
			errs = append(errs, "icons.overrides: step type must not be empty")
		case strings.TrimSpace(icon) == "":
			errs = append(errs, fmt.Sprintf("icons.overrides[%s]: icon must not be empty", stepType))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalid, strings.Join(errs, "\n  - "))
	}
	return nil
}
