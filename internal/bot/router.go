package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bsrbot/internal/chat"
	"bsrbot/internal/logging"
	"bsrbot/internal/metrics"
	"bsrbot/internal/services"
	"bsrbot/internal/services/beatsaver"
)

// Chat replies.
const (
	ReplyPong          = "Pong!"
	ReplyNoPermission  = "You do not have permissions to run this command."
	ReplyShuttingDown  = "Shutting down..."
	ReplyUsage         = "You must provide a song ID or URL from https://bsaber.com."
	ReplyInvalidURL    = "Invalid bsaber URL."
	ReplyInvalidID     = "Invalid bsaber song ID."
	ReplyResolveFailed = "Could not fetch that map, try again later."
)

// Sink sends chat responses. Reply threads to msg; Say posts to its channel.
type Sink interface {
	Reply(ctx context.Context, msg chat.Message, text string) error
	Say(ctx context.Context, msg chat.Message, text string) error
}

// Fetcher downloads a map archive.
type Fetcher interface {
	Fetch(ctx context.Context, url, hash string) (string, error)
}

// Unpacker expands a downloaded archive.
type Unpacker interface {
	Unpack(archivePath, hash string) (string, error)
}

// Device installs an unpacked map on the headset.
type Device interface {
	PushMap(ctx context.Context, hash, name string) error
}

// Dependencies are the collaborators a Router drives.
type Dependencies struct {
	Sink     Sink
	Resolver beatsaver.Resolver
	Fetcher  Fetcher
	Unpacker Unpacker
	Device   Device
	Metrics  metrics.Metrics
}

// Router dispatches chat commands.
type Router struct {
	deps   Dependencies
	owner  string
	prefix string
	logger *slog.Logger
}

// NewRouter constructs a router. owner is the only login allowed to quit.
func NewRouter(deps Dependencies, owner, prefix string, logger *slog.Logger) *Router {
	if deps.Metrics == nil {
		deps.Metrics = metrics.Noop{}
	}
	if prefix == "" {
		prefix = "!"
	}
	return &Router{
		deps:   deps,
		owner:  owner,
		prefix: prefix,
		logger: logging.NewComponentLogger(logger, "router"),
	}
}

// Handle processes one message and reports whether the bot should stop.
func (r *Router) Handle(ctx context.Context, msg chat.Message) bool {
	cmd, ok := ParseCommand(msg.Author, msg.Text, r.prefix)
	if !ok {
		return false
	}
	ctx = services.WithRequestID(ctx, uuid.NewString())
	ctx = services.WithInvoker(ctx, msg.Author)
	logger := logging.WithContext(ctx, r.logger)

	switch cmd.Verb {
	case "ping":
		r.reply(ctx, msg, ReplyPong)
		r.deps.Metrics.IncCommand(cmd.Verb, "ok")
	case "quit":
		if cmd.Invoker != r.owner {
			logger.Info("quit denied")
			r.reply(ctx, msg, ReplyNoPermission)
			r.deps.Metrics.IncCommand(cmd.Verb, "denied")
			return false
		}
		logger.Info("quit requested")
		r.say(ctx, msg, ReplyShuttingDown)
		r.deps.Metrics.IncCommand(cmd.Verb, "ok")
		return true
	case "bsr":
		outcome := r.requestMap(ctx, msg, cmd.Args)
		r.deps.Metrics.IncCommand(cmd.Verb, outcome)
	default:
		logger.Debug("ignoring unknown command", logging.String("verb", cmd.Verb))
	}
	return false
}

func (r *Router) requestMap(ctx context.Context, msg chat.Message, args []string) string {
	logger := logging.WithContext(ctx, r.logger)
	if len(args) != 1 {
		r.reply(ctx, msg, ReplyUsage)
		return "usage"
	}

	id, err := ParseIdentifier(args[0])
	switch {
	case errors.Is(err, ErrInvalidURL):
		r.reply(ctx, msg, ReplyInvalidURL)
		return "invalid_url"
	case err != nil:
		r.reply(ctx, msg, ReplyInvalidID)
		return "invalid_id"
	}

	info, err := r.resolve(services.WithStage(ctx, "resolve"), id)
	if err != nil {
		logging.ErrorWithContext(logger, "map lookup failed", "map_resolve",
			logging.String("map_id", id),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check beatsaver.base_url and network access"),
		)
		r.reply(ctx, msg, ReplyResolveFailed)
		return "resolve_failed"
	}

	r.say(ctx, msg, fmt.Sprintf("@%s requested %s (%s)", msg.Author, info.Name, info.URL))

	if err := r.deliver(ctx, info); err != nil {
		logging.ErrorWithContext(logger, "map delivery failed", "map_delivery",
			logging.String("map_id", id),
			logging.String("hash", info.Hash),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the headset connection and scratch directory"),
		)
		r.reply(ctx, msg, fmt.Sprintf("Failed to deliver %s to the headset.", info.Name))
		return "delivery_failed"
	}
	logger.Info("map delivered",
		logging.String("map_id", id),
		logging.String("hash", info.Hash),
		logging.String("song_name", info.Name),
	)
	return "delivered"
}

type resolveResult struct {
	info beatsaver.MapInfo
	err  error
}

// resolve runs the catalog lookup on its own goroutine and waits for it.
func (r *Router) resolve(ctx context.Context, id string) (beatsaver.MapInfo, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	done := make(chan resolveResult, 1)
	go func() {
		info, err := r.deps.Resolver.Resolve(ctx, id)
		done <- resolveResult{info: info, err: err}
	}()

	select {
	case res := <-done:
		r.deps.Metrics.ObserveStage("resolve", time.Since(start).Seconds())
		return res.info, res.err
	case <-ctx.Done():
		return beatsaver.MapInfo{}, ctx.Err()
	}
}

func (r *Router) deliver(ctx context.Context, info beatsaver.MapInfo) error {
	archive, err := r.timed(ctx, "download", func(ctx context.Context) (string, error) {
		return r.deps.Fetcher.Fetch(ctx, info.URL, info.Hash)
	})
	if err != nil {
		return err
	}
	if _, err := r.timed(ctx, "unpack", func(context.Context) (string, error) {
		return r.deps.Unpacker.Unpack(archive, info.Hash)
	}); err != nil {
		return err
	}
	_, err = r.timed(ctx, "push", func(ctx context.Context) (string, error) {
		return "", r.deps.Device.PushMap(ctx, info.Hash, info.Name)
	})
	return err
}

func (r *Router) timed(ctx context.Context, stage string, fn func(context.Context) (string, error)) (string, error) {
	start := time.Now()
	out, err := fn(services.WithStage(ctx, stage))
	r.deps.Metrics.ObserveStage(stage, time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("%s: %w", stage, err)
	}
	return out, nil
}

func (r *Router) reply(ctx context.Context, msg chat.Message, text string) {
	if err := r.deps.Sink.Reply(ctx, msg, text); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "chat reply failed", "chat_write",
			logging.Error(err),
			logging.String(logging.FieldImpact, "user did not see the response"),
		)
	}
}

func (r *Router) say(ctx context.Context, msg chat.Message, text string) {
	if err := r.deps.Sink.Say(ctx, msg, text); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "chat message failed", "chat_write",
			logging.Error(err),
			logging.String(logging.FieldImpact, "channel did not see the message"),
		)
	}
}
