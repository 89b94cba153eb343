package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"bsrbot/internal/config"
	"bsrbot/internal/deps"
	"bsrbot/internal/services/adb"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckADB verifies the adb binary resolves and runs.
func CheckADB(ctx context.Context, binary string) Result {
	status := deps.CheckADB(ctx, binary)
	if !status.Available {
		return Result{Name: status.Name, Detail: status.Detail}
	}
	detail := status.Command
	if status.Detail != "" {
		detail = fmt.Sprintf("%s (%s)", status.Command, status.Detail)
	}
	return Result{Name: status.Name, Passed: true, Detail: detail}
}

// CheckDeviceAttached verifies adb sees a headset. It is optional because a
// headset already in network mode may be reached without USB.
func CheckDeviceAttached(ctx context.Context, binary string) Result {
	const name = "Headset"

	client, err := adb.New(binary)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: err.Error()}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	serials, err := client.Devices(checkCtx)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("adb devices failed (%v)", err)}
	}
	if len(serials) == 0 {
		return Result{Name: name, Optional: true, Detail: "no device attached"}
	}
	return Result{Name: name, Optional: true, Passed: true, Detail: strings.Join(serials, ", ")}
}

// CheckChatCredentials verifies the Twitch login settings are present.
func CheckChatCredentials(cfg *config.Config) Result {
	const name = "Twitch credentials"
	if err := cfg.ValidateChat(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s in #%s", cfg.Twitch.Username, cfg.Twitch.Channel)}
}

// CheckCatalog verifies the map catalog answers HTTP requests.
func CheckCatalog(ctx context.Context, baseURL string) Result {
	const name = "BeatSaver"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/maps/latest", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("request failed (%v)", err)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeHTTPError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return Result{Name: name, Detail: fmt.Sprintf("unavailable (%d)", resp.StatusCode)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

func summarizeHTTPError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out (catalog unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "request timed out (catalog unreachable)"
	}
	return err.Error()
}
