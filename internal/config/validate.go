package config

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBeatSaver(); err != nil {
		return err
	}
	if err := c.validateADB(); err != nil {
		return err
	}
	if err := c.validateMetrics(); err != nil {
		return err
	}
	return c.validateLogging()
}

// ValidateChat ensures chat credentials are present. Only the run command
// needs them, so it is not part of Validate.
func (c *Config) ValidateChat() error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	switch {
	case c.Twitch.Username == "":
		return fmt.Errorf("twitch.username is required. Set BOT_USERNAME env var or edit %s", defaultPath)
	case c.Twitch.OAuthToken == "":
		return fmt.Errorf("twitch.oauth_token is required. Set OAUTH_TOKEN env var or edit %s", defaultPath)
	case c.Twitch.Channel == "":
		return fmt.Errorf("twitch.channel is required. Set CHANNEL_NAME env var or edit %s", defaultPath)
	case c.Bot.Owner == "":
		return fmt.Errorf("bot.owner is required. Set BSRBOT_OWNER env var or edit %s", defaultPath)
	}
	parsed, err := url.Parse(c.Twitch.URL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "irc" && parsed.Scheme != "ircs") {
		return fmt.Errorf("twitch.url must be an irc:// or ircs:// URL, got %q", c.Twitch.URL)
	}
	return nil
}

func (c *Config) validateBeatSaver() error {
	parsed, err := url.Parse(c.BeatSaver.BaseURL)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("beatsaver.base_url must be an absolute URL, got %q", c.BeatSaver.BaseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("beatsaver.base_url must use http or https, got %q", parsed.Scheme)
	}
	return nil
}

func (c *Config) validateADB() error {
	if c.ADB.Port <= 0 || c.ADB.Port > 65535 {
		return fmt.Errorf("adb.port must be between 1 and 65535, got %d", c.ADB.Port)
	}
	if strings.ContainsAny(c.ADB.Interface, " \t/") {
		return fmt.Errorf("adb.interface %q is not a valid interface name", c.ADB.Interface)
	}
	if !path.IsAbs(c.ADB.PlaylistPath) {
		return errors.New("adb.playlist_path must be an absolute device path")
	}
	if !path.IsAbs(c.ADB.ModsDir) {
		return errors.New("adb.mods_dir must be an absolute device path")
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if !c.Metrics.Enabled {
		return nil
	}
	if !strings.Contains(c.Metrics.Bind, ":") {
		return fmt.Errorf("metrics.bind must be host:port, got %q", c.Metrics.Bind)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}
