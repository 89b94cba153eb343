// Package config loads, normalizes, and validates bsrbot configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the environment variables the bot
// has always been driven by (OAUTH_TOKEN, BOT_USERNAME, CHANNEL_NAME,
// ADB_BINARY, SONGREQ_PATH). The Config type centralizes every knob the bot
// and CLI need so chat credentials, device paths, and scratch storage are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
