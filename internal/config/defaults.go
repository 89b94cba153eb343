package config

const (
	defaultConfigPath     = "~/.config/bsrbot/config.toml"
	defaultScratchDir     = "~/.local/share/bsrbot/tmp"
	defaultLogDir         = "~/.local/share/bsrbot/logs"
	defaultTwitchURL      = "ircs://irc.chat.twitch.tv:443"
	defaultPrefix         = "!"
	defaultBeatSaverURL   = "https://api.beatsaver.com"
	defaultRequestTimeout = 0
	defaultADBBinary      = "adb"
	defaultADBInterface   = "wlan0"
	defaultADBPort        = 5555
	defaultModsDir        = "/sdcard/ModData/com.beatgames.beatsaber/Mods/SongLoader/CustomLevels"
	defaultPlaylistPath   = "/sdcard/ModData/com.beatgames.beatsaber/Mods/PlaylistManager/Playlists/songreq.json"
	defaultMetricsBind    = "127.0.0.1:9464"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScratchDir: defaultScratchDir,
			LogDir:     defaultLogDir,
		},
		Twitch: Twitch{
			URL: defaultTwitchURL,
		},
		Bot: Bot{
			Prefix: defaultPrefix,
		},
		BeatSaver: BeatSaver{
			BaseURL:        defaultBeatSaverURL,
			RequestTimeout: defaultRequestTimeout,
		},
		ADB: ADB{
			Binary:       defaultADBBinary,
			Interface:    defaultADBInterface,
			Port:         defaultADBPort,
			PlaylistPath: defaultPlaylistPath,
			ModsDir:      defaultModsDir,
		},
		Metrics: Metrics{
			Bind: defaultMetricsBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
