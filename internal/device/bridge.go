package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"bsrbot/internal/config"
	"bsrbot/internal/logging"
	"bsrbot/internal/services"
	"bsrbot/internal/services/adb"
	"bsrbot/internal/textutil"
)

// PlaylistScratchName is the local copy of the pulled playlist.
const PlaylistScratchName = "songreq.json"

type state int

const (
	stateDisconnected state = iota
	stateConnected
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateConnected:
		return "connected"
	case stateClosed:
		return "closed"
	default:
		return "disconnected"
	}
}

// Options holds the device-side layout and local scratch location.
type Options struct {
	Interface    string
	Port         int
	ModsDir      string
	PlaylistPath string
	ScratchDir   string
}

// OptionsFromConfig derives bridge options from configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Interface:    cfg.ADB.Interface,
		Port:         cfg.ADB.Port,
		ModsDir:      cfg.ADB.ModsDir,
		PlaylistPath: cfg.ADB.PlaylistPath,
		ScratchDir:   cfg.Paths.ScratchDir,
	}
}

// Bridge owns the headset session. Commands are processed one at a time, so
// the mutex only guards against misuse from concurrent callers.
type Bridge struct {
	adb    adb.Bridge
	opts   Options
	logger *slog.Logger

	mu        sync.Mutex
	state     state
	addr      string
	closeOnce sync.Once
}

// New constructs a disconnected bridge.
func New(client adb.Bridge, opts Options, logger *slog.Logger) *Bridge {
	return &Bridge{
		adb:    client,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "device"),
	}
}

// Address returns host:port of the connected headset, or "" before Connect.
func (b *Bridge) Address() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addr
}

// Connect discovers the headset's wireless address over the attached adb
// device, switches adbd to TCP mode and opens the network session.
func (b *Bridge) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != stateDisconnected {
		return services.Wrap(services.ErrValidation, "device", "connect", fmt.Sprintf("bridge is %s", b.state), nil)
	}
	logger := logging.WithContext(ctx, b.logger)

	out, err := b.adb.Shell(ctx, "", "ip", "addr", "show", b.opts.Interface)
	if err != nil {
		return fmt.Errorf("query headset address: %w", err)
	}
	ip, err := ParseInetAddress(out)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "device", "connect", fmt.Sprintf("interface %s", b.opts.Interface), err)
	}
	logger.Info("headset address discovered", logging.String("ip", ip), logging.String("interface", b.opts.Interface))

	if err := b.adb.TCPIP(ctx, b.opts.Port); err != nil {
		return fmt.Errorf("enable tcp mode: %w", err)
	}
	addr := fmt.Sprintf("%s:%d", ip, b.opts.Port)
	if err := b.adb.Connect(ctx, addr); err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}

	b.addr = addr
	b.state = stateConnected
	logger.Info("headset connected", logging.String("address", addr))
	return nil
}

// PushMap copies the unpacked map for hash into the custom levels directory
// and appends it to the playlist.
func (b *Bridge) PushMap(ctx context.Context, hash, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.requireConnected("push"); err != nil {
		return err
	}
	if !textutil.IsSafeKey(hash) {
		return services.Wrap(services.ErrValidation, "device", "push", fmt.Sprintf("unsafe map key %q", hash), nil)
	}
	logger := logging.WithContext(ctx, b.logger)

	local := filepath.Join(b.opts.ScratchDir, hash)
	remote := path.Join(b.opts.ModsDir, hash)
	start := time.Now()
	if err := b.adb.Push(ctx, b.addr, local, remote); err != nil {
		return fmt.Errorf("push map: %w", err)
	}
	logger.Info("map uploaded",
		logging.String("hash", hash),
		logging.String("song_name", name),
		logging.String("remote", remote),
		logging.Duration("elapsed", time.Since(start)),
	)

	return b.updatePlaylist(ctx, hash, name)
}

// updatePlaylist pulls the playlist, appends the entry, rewrites the scratch
// copy in full and pushes it back over the device file.
func (b *Bridge) updatePlaylist(ctx context.Context, hash, name string) error {
	logger := logging.WithContext(ctx, b.logger)

	playlist, scratch, err := b.pullPlaylist(ctx)
	if err != nil {
		return err
	}
	before := len(playlist.Songs)
	playlist.Append(hash, name)

	data, err := playlist.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(scratch, data, 0o644); err != nil {
		return fmt.Errorf("rewrite playlist scratch copy: %w", err)
	}
	if err := b.adb.Push(ctx, b.addr, scratch, b.opts.PlaylistPath); err != nil {
		return fmt.Errorf("push playlist: %w", err)
	}
	logger.Info("playlist updated",
		logging.String("hash", hash),
		logging.Int("songs_before", before),
		logging.Int("songs_after", len(playlist.Songs)),
	)
	return nil
}

// Playlist pulls and returns the current playlist.
func (b *Bridge) Playlist(ctx context.Context) (*Playlist, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.requireConnected("playlist"); err != nil {
		return nil, err
	}
	playlist, _, err := b.pullPlaylist(ctx)
	return playlist, err
}

func (b *Bridge) pullPlaylist(ctx context.Context) (*Playlist, string, error) {
	if err := os.MkdirAll(b.opts.ScratchDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create scratch directory: %w", err)
	}
	scratch := filepath.Join(b.opts.ScratchDir, PlaylistScratchName)
	if err := b.adb.Pull(ctx, b.addr, b.opts.PlaylistPath, scratch); err != nil {
		return nil, "", fmt.Errorf("pull playlist: %w", err)
	}
	data, err := os.ReadFile(scratch)
	if err != nil {
		return nil, "", fmt.Errorf("read playlist scratch copy: %w", err)
	}
	playlist, err := DecodePlaylist(data)
	if err != nil {
		return nil, "", err
	}
	return playlist, scratch, nil
}

// Close tears down the network session. It runs at most once; failures are
// logged and dropped. The bridge cannot be reconnected afterwards.
func (b *Bridge) Close(ctx context.Context) {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		wasConnected := b.state == stateConnected
		b.state = stateClosed
		if !wasConnected {
			return
		}
		if err := b.adb.Disconnect(ctx, b.addr); err != nil {
			logging.WarnWithContext(b.logger, "headset disconnect failed", "device_disconnect",
				logging.String("address", b.addr),
				logging.Error(err),
				logging.String(logging.FieldImpact, "adb keeps the network session open"),
			)
			return
		}
		b.logger.Info("headset disconnected", logging.String("address", b.addr))
	})
}

func (b *Bridge) requireConnected(op string) error {
	if b.state != stateConnected {
		return services.Wrap(services.ErrValidation, "device", op, fmt.Sprintf("bridge is %s", b.state), nil)
	}
	return nil
}

// ParseInetAddress returns the address following the first "inet" token in
// `ip addr` output, without its prefix length.
func ParseInetAddress(output string) (string, error) {
	fields := strings.Fields(output)
	for i, field := range fields {
		if field != "inet" {
			continue
		}
		if i+1 >= len(fields) {
			break
		}
		ip, _, _ := strings.Cut(fields[i+1], "/")
		if ip == "" {
			break
		}
		return ip, nil
	}
	return "", errors.New("no inet address in interface output")
}
