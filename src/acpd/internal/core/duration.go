package core

import (
	"fmt"
	"time"

	"go.uber.org/config"
)

// Duration reads a Go duration string such as "30s" at key, returning def when the key is absent or empty.
func Duration(cfg config.Provider, key string, def time.Duration) (time.Duration, error) {
	var raw string
	if err := cfg.Get(key).Populate(&raw); err != nil {
		return 0, fmt.Errorf("getting config field %q: %w", key, err)
	}
	if raw == "" {
		return def, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parsing config field %q: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config field %q must be positive, got %s", key, raw)
	}
	return d, nil
}
