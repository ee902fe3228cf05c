package preflight

import (
	"context"
	"fmt"
	"strings"

	"wavebars/internal/config"
	"wavebars/internal/deps"
	"wavebars/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes the binary and directory checks for cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, status := range deps.WithVersions(ctx, deps.CheckBinaries(deps.Requirements(cfg))) {
		results = append(results, FromStatus(status))
	}

	// Voices are only read; frames and state are created on demand.
	results = append(results, CheckReadableDir("Voices directory", cfg.Paths.VoicesDir, true))
	results = append(results, CheckCreatableDir("Frames directory", cfg.Paths.FramesDir))
	if cfg.History.Enabled {
		results = append(results, CheckCreatableDir("State directory", cfg.Paths.StateDir))
	}
	return results
}

// FromStatus converts a dependency status into a check result.
func FromStatus(status deps.Status) Result {
	r := Result{Name: status.Name, Passed: status.Available, Optional: status.Optional}
	switch {
	case status.Available && status.Version != "":
		r.Detail = fmt.Sprintf("%s (%s)", status.Path, status.Version)
	case status.Available:
		r.Detail = status.Path
	case status.Optional:
		r.Detail = status.Detail + " (optional)"
	default:
		r.Detail = status.Detail
	}
	return r
}

// Err returns an ErrConfiguration error naming every failed required check.
func Err(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "", strings.Join(failed, "; "), nil)
}
