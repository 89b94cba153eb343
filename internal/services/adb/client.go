package adb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"bsrbot/internal/logging"
	"bsrbot/internal/services"
)

// Bridge is the set of adb operations the device layer relies on.
type Bridge interface {
	Shell(ctx context.Context, serial string, args ...string) (string, error)
	TCPIP(ctx context.Context, port int) error
	Connect(ctx context.Context, addr string) error
	Disconnect(ctx context.Context, addr string) error
	Push(ctx context.Context, serial, local, remote string) error
	Pull(ctx context.Context, serial, remote, local string) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "adb")
	}
}

// Client wraps adb CLI interactions.
type Client struct {
	binary string
	exec   Executor
	logger *slog.Logger
}

var _ Bridge = (*Client)(nil)

// New constructs an adb client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("adb binary required")
	}
	client := &Client{
		binary: binary,
		exec:   commandExecutor{},
		logger: logging.NewComponentLogger(nil, "adb"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Shell runs a command on the device and returns its combined output.
func (c *Client) Shell(ctx context.Context, serial string, args ...string) (string, error) {
	if len(args) == 0 {
		return "", services.Wrap(services.ErrValidation, "adb", "shell", "command required", nil)
	}
	out, err := c.run(ctx, "shell", withSerial(serial, append([]string{"shell"}, args...))...)
	return strings.Join(out, "\n"), err
}

// TCPIP restarts adbd on the device listening on port.
func (c *Client) TCPIP(ctx context.Context, port int) error {
	if port <= 0 || port > 65535 {
		return services.Wrap(services.ErrValidation, "adb", "tcpip", fmt.Sprintf("invalid port %d", port), nil)
	}
	_, err := c.run(ctx, "tcpip", "tcpip", strconv.Itoa(port))
	return err
}

// Connect opens a network session to addr. adb exits zero on most connection
// failures, so the output is inspected as well.
func (c *Client) Connect(ctx context.Context, addr string) error {
	out, err := c.run(ctx, "connect", "connect", addr)
	if err != nil {
		return err
	}
	if line, failed := connectFailure(out); failed {
		return services.Wrap(services.ErrExternalTool, "adb", "connect", line, nil)
	}
	return nil
}

// Disconnect closes the network session to addr.
func (c *Client) Disconnect(ctx context.Context, addr string) error {
	_, err := c.run(ctx, "disconnect", "disconnect", addr)
	return err
}

// Push copies a local file or directory to remote.
func (c *Client) Push(ctx context.Context, serial, local, remote string) error {
	_, err := c.run(ctx, "push", withSerial(serial, []string{"push", local, remote})...)
	return err
}

// Pull copies remote into local.
func (c *Client) Pull(ctx context.Context, serial, remote, local string) error {
	_, err := c.run(ctx, "pull", withSerial(serial, []string{"pull", remote, local})...)
	return err
}

// Devices lists the serials adb reports in the "device" state.
func (c *Client) Devices(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, "devices", "devices")
	if err != nil {
		return nil, err
	}
	var serials []string
	for _, line := range out {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[1] == "device" {
			serials = append(serials, fields[0])
		}
	}
	return serials, nil
}

func (c *Client) run(ctx context.Context, op string, args ...string) ([]string, error) {
	logger := logging.WithContext(ctx, c.logger)
	logger.Debug("running adb", logging.String("op", op), logging.String("args", strings.Join(args, " ")))

	var lines []string
	err := c.exec.Run(ctx, c.binary, args, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		detail := op
		if tail := lastLine(lines); tail != "" {
			detail = tail
		}
		return lines, services.Wrap(services.ErrExternalTool, "adb", op, detail, err)
	}
	return lines, nil
}

func withSerial(serial string, args []string) []string {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return args
	}
	return append([]string{"-s", serial}, args...)
}

func connectFailure(lines []string) (string, bool) {
	for _, line := range lines {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "failed to connect") ||
			strings.Contains(lower, "cannot connect") ||
			strings.Contains(lower, "unable to connect") {
			return strings.TrimSpace(line), true
		}
	}
	return "", false
}

func lastLine(lines []string) string {
	for i := len(lines) - 1; i >= 0; i-- {
		if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
