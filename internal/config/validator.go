package config

import (
	"fmt"
	"strings"
)

var edgeStyles = map[string]bool{"direct": true, "bezier": true, "square": true}

// Validate checks required fields and enum values.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Version == "" {
		errs = append(errs, "version is required")
	}
	if cfg.History.MaxDepth < 1 {
		errs = append(errs, fmt.Sprintf("history.max_depth must be >= 1, got %d", cfg.History.MaxDepth))
	}
	if !edgeStyles[cfg.Graph.DefaultEdgeStyle] {
		errs = append(errs, fmt.Sprintf("graph.default_edge_style must be one of direct/bezier/square, got %q", cfg.Graph.DefaultEdgeStyle))
	}
	switch cfg.Storage.Backend {
	case "memory":
	case "postgres":
		if cfg.Storage.DSN == "" {
			errs = append(errs, "storage.dsn is required for the postgres backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.backend must be memory or postgres, got %q", cfg.Storage.Backend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
