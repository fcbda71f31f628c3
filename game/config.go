package game

import "time"

// Options holds host settings that are not part of the field configuration.
type Options struct {
	LogStats       bool    // Log window and perf stats via slog
	StatsWindowSec float64 // Overrides telemetry.stats_window when > 0
	OutputDir      string  // CSV, config and frame output (empty = off)
	Realtime       bool    // Drive ticks from a timer instead of Step
	Path           string  // Overrides animation.path when set

	// Clock drives the attractor paths (nil = time.Now).
	Clock func() time.Time
}

// DefaultOptions returns the default host options.
func DefaultOptions() Options {
	return Options{}
}
