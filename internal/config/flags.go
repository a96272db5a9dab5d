// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OnlineModeVerify Contributors

package config

import (
	"github.com/knadh/koanf/providers/posflag"
	"github.com/spf13/pflag"
)

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"listen-addr":    "server.listen-addr",
	"metrics-addr":   "server.metrics-addr",
	"log-format":     "log.format",
	"log-level":      "log.level",
	"session-url":    "mojang.session-url",
	"mojang-timeout": "mojang.timeout",
	"cache-expiry":   "verify.cache-expiry",
	"coalesce":       "verify.coalesce",
}

// RegisterServeFlags adds the flags that override serve configuration.
// Defaults shown in help match the built-in configuration; a flag only
// takes effect when set explicitly.
func RegisterServeFlags(fs *pflag.FlagSet) {
	fs.String("listen-addr", "127.0.0.1:25580", "pre-login hook listen address")
	fs.String("metrics-addr", "127.0.0.1:9100", "metrics/health HTTP address (empty = disabled)")
	RegisterClientFlags(fs)
}

// RegisterClientFlags adds the flags shared by every command that resolves
// players.
func RegisterClientFlags(fs *pflag.FlagSet) {
	fs.String("log-format", "json", "log format (json or text)")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("session-url", "https://sessionserver.mojang.com", "Mojang session server base URL")
	fs.Duration("mojang-timeout", 0, "session server request timeout (default from config)")
	fs.Duration("cache-expiry", 0, "forget outcomes after this long without access (default from config)")
	fs.Bool("coalesce", true, "share concurrent lookups of the same account")
}

func flagToKey(fs *pflag.FlagSet) func(f *pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	}
}
