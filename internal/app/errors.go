package app

import (
	"errors"
	"fmt"
)

var (
	// ErrEntryNotFound is returned when a plot has no tracking entry.
	ErrEntryNotFound = errors.New("tracking entry not found")

	// ErrPlotNotFound is returned when the plot database has no such plot.
	ErrPlotNotFound = errors.New("plot not found")

	// ErrLayoutUnavailable is returned when a thread's layout cannot be fetched.
	ErrLayoutUnavailable = errors.New("layout unavailable")

	// ErrNotClaimed is returned when registering a plot nobody has claimed.
	ErrNotClaimed = errors.New("plot is not claimed")
)

// ConfigError is a configuration problem tied to one status.
type ConfigError struct {
	Status string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("status %q: %s", e.Status, e.Reason)
}
