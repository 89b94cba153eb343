package chat

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"bsrbot/internal/config"
	"bsrbot/internal/logging"
	"bsrbot/internal/services"
)

// Twitch drops messages longer than 500 bytes.
const maxMessageBytes = 500

// Credentials identify the bot account and the channel it joins. Address is
// host:port; TLS selects an encrypted connection.
type Credentials struct {
	Address  string
	TLS      bool
	Username string
	Token    string
	Channel  string
}

// CredentialsFromConfig extracts chat credentials from configuration. The
// configured URL uses ircs:// for TLS and irc:// for plain text.
func CredentialsFromConfig(cfg *config.Config) Credentials {
	creds := Credentials{
		Username: cfg.Twitch.Username,
		Token:    cfg.Twitch.OAuthToken,
		Channel:  cfg.Twitch.Channel,
		TLS:      true,
	}
	if parsed, err := url.Parse(cfg.Twitch.URL); err == nil && parsed.Host != "" {
		creds.Address = parsed.Host
		creds.TLS = parsed.Scheme != "irc"
	}
	return creds
}

// conn is the subset of the go-twitch-irc client a session drives.
type conn interface {
	OnConnect(func())
	OnPrivateMessage(func(twitch.PrivateMessage))
	OnReconnectMessage(func(twitch.ReconnectMessage))
	Join(channels ...string)
	Connect() error
	Disconnect() error
	Say(channel, text string)
	Reply(channel, parentMsgID, text string)
}

// Option configures a Client.
type Option func(*Client)

// WithBuffer sets the capacity of the Messages channel. Inbound messages
// beyond it wait in an unbounded queue, so a slow consumer never stalls the
// connection's reader or its keep-alive replies.
func WithBuffer(size int) Option {
	return func(c *Client) {
		if size >= 0 {
			c.buffer = size
		}
	}
}

func withConn(cn conn) Option {
	return func(c *Client) {
		c.conn = cn
	}
}

// Client is a single Twitch chat session. Keep-alives and server-requested
// reconnects are handled by the underlying IRC client.
type Client struct {
	creds  Credentials
	conn   conn
	buffer int
	logger *slog.Logger

	connected chan struct{}
	done      chan error
	started   bool

	mu       sync.Mutex
	pending  []Message
	notify   chan struct{}
	messages chan Message

	closeOnce sync.Once
}

// New constructs an unconnected client.
func New(creds Credentials, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		creds:     creds,
		buffer:    16,
		logger:    logging.NewComponentLogger(logger, "chat"),
		connected: make(chan struct{}),
		done:      make(chan error, 1),
		notify:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.conn == nil {
		irc := twitch.NewClient(creds.Username, "oauth:"+creds.Token)
		if creds.Address != "" {
			irc.IrcAddress = creds.Address
		}
		irc.TLS = creds.TLS
		c.conn = irc
	}
	c.messages = make(chan Message, c.buffer)
	return c
}

// Connect logs in and joins the channel. It returns once Twitch has
// acknowledged the login.
func (c *Client) Connect(ctx context.Context) error {
	if c.started {
		return errors.New("chat client already connected")
	}
	c.started = true

	var once sync.Once
	c.conn.OnConnect(func() {
		once.Do(func() { close(c.connected) })
	})
	c.conn.OnPrivateMessage(func(pm twitch.PrivateMessage) {
		if msg, ok := messageFromPrivate(pm); ok {
			c.enqueue(msg)
		}
	})
	c.conn.OnReconnectMessage(func(twitch.ReconnectMessage) {
		c.logger.Info("twitch requested reconnect")
	})
	c.conn.Join(c.creds.Channel)

	go func() {
		c.done <- c.conn.Connect()
	}()

	select {
	case <-c.connected:
		c.logger.Info("joined chat",
			logging.String("channel", c.creds.Channel),
			logging.String("username", c.creds.Username),
		)
		return nil
	case err := <-c.done:
		c.done <- err
		return classifyConnectError(err)
	case <-ctx.Done():
		c.Close()
		return ctx.Err()
	}
}

func classifyConnectError(err error) error {
	switch {
	case errors.Is(err, twitch.ErrLoginAuthenticationFailed):
		return services.Wrap(services.ErrConfiguration, "chat", "login", "authentication failed", err)
	case err == nil, errors.Is(err, twitch.ErrClientDisconnected):
		return services.Wrap(services.ErrTransient, "chat", "login", "connection closed before login", nil)
	default:
		return services.Wrap(services.ErrTransient, "chat", "connect", "", err)
	}
}

// Messages delivers chat messages in arrival order. The channel is closed
// when Run returns.
func (c *Client) Messages() <-chan Message {
	return c.messages
}

// Run delivers messages until ctx ends or the connection fails for good.
// Cancellation and Close return nil.
func (c *Client) Run(ctx context.Context) error {
	pumpCtx, stopPump := context.WithCancel(ctx)
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		c.pump(pumpCtx)
	}()
	defer func() {
		stopPump()
		<-pumpDone
		close(c.messages)
	}()

	if !c.started {
		return errors.New("chat client not connected")
	}

	select {
	case <-ctx.Done():
		c.Close()
		<-c.done
		return nil
	case err := <-c.done:
		if err == nil || errors.Is(err, twitch.ErrClientDisconnected) {
			return nil
		}
		return services.Wrap(services.ErrTransient, "chat", "read", "", err)
	}
}

func (c *Client) enqueue(msg Message) {
	c.mu.Lock()
	c.pending = append(c.pending, msg)
	c.mu.Unlock()
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *Client) next() (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return Message{}, false
	}
	msg := c.pending[0]
	c.pending = c.pending[1:]
	return msg, true
}

// pump moves queued messages onto the Messages channel.
func (c *Client) pump(ctx context.Context) {
	for {
		for {
			msg, ok := c.next()
			if !ok {
				break
			}
			select {
			case c.messages <- msg:
			case <-ctx.Done():
				return
			}
		}
		select {
		case <-c.notify:
		case <-ctx.Done():
			return
		}
	}
}

// Reply answers msg in its thread.
func (c *Client) Reply(ctx context.Context, msg Message, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text = sanitizeText(text)
	if text == "" {
		return nil
	}
	if msg.ID == "" {
		c.conn.Say(c.channelFor(msg), text)
		return nil
	}
	c.conn.Reply(c.channelFor(msg), msg.ID, text)
	return nil
}

// Say posts text to the channel msg arrived on.
func (c *Client) Say(ctx context.Context, msg Message, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if text = sanitizeText(text); text != "" {
		c.conn.Say(c.channelFor(msg), text)
	}
	return nil
}

// Close disconnects. It is safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		if !c.started {
			return
		}
		if err := c.conn.Disconnect(); err != nil {
			c.logger.Debug("chat disconnect", logging.Error(err))
		}
	})
}

func (c *Client) channelFor(msg Message) string {
	if msg.Channel != "" {
		return msg.Channel
	}
	return c.creds.Channel
}

// sanitizeText folds newlines and truncates to the Twitch message limit on a
// rune boundary.
func sanitizeText(text string) string {
	text = strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(text))
	if len(text) <= maxMessageBytes {
		return text
	}
	cut := maxMessageBytes
	for cut > 0 && text[cut]&0xC0 == 0x80 {
		cut--
	}
	return text[:cut]
}
