package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"bsrbot/internal/chat"
	"bsrbot/internal/config"
	"bsrbot/internal/logging"
)

// Session is a joined chat connection.
type Session interface {
	Connect(ctx context.Context) error
	Run(ctx context.Context) error
	Messages() <-chan chat.Message
	Close()
}

// Headset is the device session lifecycle.
type Headset interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context)
}

// Handler processes one chat message and reports whether to stop.
type Handler interface {
	Handle(ctx context.Context, msg chat.Message) bool
}

// MetricsServer serves metrics until its context ends.
type MetricsServer interface {
	Serve(ctx context.Context) error
}

// Components are the collaborators the daemon supervises. Metrics is optional.
type Components struct {
	Chat    Session
	Headset Headset
	Router  Handler
	Metrics MetricsServer
}

var errStopRequested = errors.New("stop requested")

// Daemon owns the process lifecycle and enforces single-instance execution.
type Daemon struct {
	parts    Components
	logger   *slog.Logger
	lockPath string
	lock     *flock.Flock
}

// New constructs a daemon.
func New(cfg *config.Config, parts Components, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || parts.Chat == nil || parts.Headset == nil || parts.Router == nil {
		return nil, errors.New("daemon requires config, chat, headset, and router")
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		parts:    parts,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Run blocks until quit, a fatal chat error or ctx cancellation. A clean
// shutdown returns nil.
func (d *Daemon) Run(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another bsrbot instance is already running")
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release lock", logging.Error(err))
		}
	}()

	if err := d.parts.Headset.Connect(ctx); err != nil {
		return fmt.Errorf("connect headset: %w", err)
	}
	defer d.parts.Headset.Close(context.WithoutCancel(ctx))

	if err := d.parts.Chat.Connect(ctx); err != nil {
		return fmt.Errorf("connect chat: %w", err)
	}
	defer d.parts.Chat.Close()

	d.logger.Info("bsrbot started", logging.String("lock", d.lockPath))

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return d.parts.Chat.Run(groupCtx)
	})
	if d.parts.Metrics != nil {
		group.Go(func() error {
			return d.parts.Metrics.Serve(groupCtx)
		})
	}
	group.Go(func() error {
		return d.consume(groupCtx)
	})

	err = group.Wait()
	switch {
	case errors.Is(err, errStopRequested):
		d.logger.Info("bsrbot stopped by owner")
		return nil
	case err != nil:
		return err
	default:
		d.logger.Info("bsrbot stopped")
		return nil
	}
}

// consume hands messages to the router in arrival order.
func (d *Daemon) consume(ctx context.Context) error {
	messages := d.parts.Chat.Messages()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			d.logger.Debug("chat message",
				logging.String("author", msg.Author),
				logging.String("text", msg.Text),
			)
			if d.parts.Router.Handle(ctx, msg) {
				return errStopRequested
			}
		}
	}
}
