package deps

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

// ADBRequirement describes the adb binary used to reach the headset.
func ADBRequirement(binary string) Requirement {
	return Requirement{
		Name:        "ADB",
		Command:     binary,
		Description: "Required to push maps to the headset",
	}
}

// CheckADB resolves the adb binary and records its reported version in
// Detail.
func CheckADB(ctx context.Context, binary string) Status {
	status := CheckBinaries([]Requirement{ADBRequirement(binary)})[0]
	if !status.Available {
		return status
	}

	versionCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var out bytes.Buffer
	cmd := exec.CommandContext(versionCtx, status.Path, "version") //nolint:gosec
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		status.Available = false
		status.Detail = "adb version failed: " + err.Error()
		return status
	}
	status.Detail = parseADBVersion(out.String())
	return status
}

// parseADBVersion extracts "1.0.41" from "Android Debug Bridge version 1.0.41".
func parseADBVersion(output string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "Android Debug Bridge version "); ok {
			return "version " + strings.TrimSpace(rest)
		}
	}
	return ""
}
