// Package config loads yt-webdl configuration from a TOML file, an optional
// .env file and YTWEBDL_* environment variables.
//
// Precedence, lowest first: built-in defaults, config file, environment.
// Load always returns a normalized and validated Config.
package config
