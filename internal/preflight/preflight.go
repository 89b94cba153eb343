package preflight

import (
	"context"

	"bsrbot/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Optional bool
}

// RunAll executes every preflight check for the given config. The device
// check is skipped when skipDevice is set, for commands that never reach the
// headset.
func RunAll(ctx context.Context, cfg *config.Config, skipDevice bool) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Scratch directory", cfg.Paths.ScratchDir),
		CheckADB(ctx, cfg.ADB.Binary),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	results = append(results, CheckChatCredentials(cfg))
	results = append(results, CheckCatalog(ctx, cfg.BeatSaver.BaseURL))
	if !skipDevice && results[1].Passed {
		results = append(results, CheckDeviceAttached(ctx, cfg.ADB.Binary))
	}
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
