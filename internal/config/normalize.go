package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTwitch()
	c.normalizeBot()
	c.normalizeBeatSaver()
	c.normalizeADB()
	c.normalizeMetrics()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = defaultScratchDir
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTwitch() {
	c.Twitch.Username = envFallback(c.Twitch.Username, "BOT_USERNAME")
	c.Twitch.OAuthToken = envFallback(c.Twitch.OAuthToken, "OAUTH_TOKEN")
	c.Twitch.Channel = envFallback(c.Twitch.Channel, "CHANNEL_NAME")
	c.Twitch.Username = strings.ToLower(c.Twitch.Username)
	c.Twitch.Channel = strings.ToLower(strings.TrimPrefix(c.Twitch.Channel, "#"))
	c.Twitch.OAuthToken = strings.TrimPrefix(c.Twitch.OAuthToken, "oauth:")
	c.Twitch.URL = strings.TrimSpace(c.Twitch.URL)
	if c.Twitch.URL == "" {
		c.Twitch.URL = defaultTwitchURL
	}
}

func (c *Config) normalizeBot() {
	c.Bot.Owner = strings.ToLower(envFallback(c.Bot.Owner, "BSRBOT_OWNER"))
	c.Bot.Prefix = strings.TrimSpace(c.Bot.Prefix)
	if c.Bot.Prefix == "" {
		c.Bot.Prefix = defaultPrefix
	}
}

func (c *Config) normalizeBeatSaver() {
	c.BeatSaver.BaseURL = strings.TrimRight(strings.TrimSpace(c.BeatSaver.BaseURL), "/")
	if c.BeatSaver.BaseURL == "" {
		c.BeatSaver.BaseURL = defaultBeatSaverURL
	}
	if c.BeatSaver.RequestTimeout < 0 {
		c.BeatSaver.RequestTimeout = 0
	}
}

func (c *Config) normalizeADB() {
	c.ADB.Binary = envFallback(c.ADB.Binary, "ADB_BINARY")
	if c.ADB.Binary == "" {
		c.ADB.Binary = defaultADBBinary
	}
	c.ADB.PlaylistPath = envFallback(c.ADB.PlaylistPath, "SONGREQ_PATH")
	if c.ADB.PlaylistPath == "" {
		c.ADB.PlaylistPath = defaultPlaylistPath
	}
	c.ADB.Interface = strings.TrimSpace(c.ADB.Interface)
	if c.ADB.Interface == "" {
		c.ADB.Interface = defaultADBInterface
	}
	if c.ADB.Port == 0 {
		c.ADB.Port = defaultADBPort
	}
	c.ADB.ModsDir = strings.TrimRight(strings.TrimSpace(c.ADB.ModsDir), "/")
	if c.ADB.ModsDir == "" {
		c.ADB.ModsDir = defaultModsDir
	}
}

func (c *Config) normalizeMetrics() {
	c.Metrics.Bind = strings.TrimSpace(c.Metrics.Bind)
	if c.Metrics.Bind == "" {
		c.Metrics.Bind = defaultMetricsBind
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// envFallback returns the trimmed value, or the named environment variable
// when the value is empty.
func envFallback(value, key string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	if env, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(env)
	}
	return ""
}
