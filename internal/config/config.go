// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OnlineModeVerify Contributors

// Package config loads onlinemodeverify configuration.
//
// Values are layered: built-in defaults, then the YAML config file, then
// command-line flags that were set explicitly.
package config

import (
	_ "embed"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/mcsunnyside/onlinemodeverify/internal/logging"
	"github.com/mcsunnyside/onlinemodeverify/internal/xdg"
)

// CodeInvalid marks configuration errors.
const CodeInvalid = "CONFIG_INVALID"

//go:embed defaults.yaml
var defaultYAML []byte

// DefaultYAML returns the commented default configuration file.
func DefaultYAML() []byte {
	return append([]byte(nil), defaultYAML...)
}

// Config is the complete configuration.
type Config struct {
	Messages Messages `koanf:"messages"`
	Verify   Verify   `koanf:"verify"`
	Mojang   Mojang   `koanf:"mojang"`
	Server   Server   `koanf:"server"`
	Log      Log      `koanf:"log"`
}

// Messages are the kick messages shown to players.
type Messages struct {
	NotPremiumPlayer string `koanf:"not-premium-player" jsonschema:"description=Kick message for accounts that are not premium. '&' colour codes are translated."`
	MojangAPIDown    string `koanf:"mojang-api-down" jsonschema:"description=Kick message when the session server gives no answer. '&' colour codes are translated."`
}

// Verify configures the verification cache and gate.
type Verify struct {
	CacheExpiry time.Duration `koanf:"cache-expiry" jsonschema:"description=Forget an outcome after this long without a login for the account."`
	Coalesce    bool          `koanf:"coalesce" jsonschema:"description=Share one session server lookup between simultaneous logins of one account."`
}

// Mojang configures the session server client.
type Mojang struct {
	SessionURL string        `koanf:"session-url" jsonschema:"description=Session server base URL."`
	Timeout    time.Duration `koanf:"timeout" jsonschema:"description=Upper bound on one profile lookup."`
	Rate       float64       `koanf:"rate" jsonschema:"description=Outbound lookups per second."`
	Burst      int           `koanf:"burst" jsonschema:"description=Outbound lookups allowed back to back."`
}

// Server configures the listening endpoints.
type Server struct {
	ListenAddr  string `koanf:"listen-addr" jsonschema:"description=Pre-login hook listen address."`
	MetricsAddr string `koanf:"metrics-addr" jsonschema:"description=Metrics and health listen address. Empty disables it."`
}

// Log configures logging.
type Log struct {
	Format string `koanf:"format" jsonschema:"description=Log format: json or text."`
	Level  string `koanf:"level" jsonschema:"description=Log level: debug or info or warn or error."`
}

// bytesProvider feeds an in-memory document to koanf.
type bytesProvider []byte

func (b bytesProvider) ReadBytes() ([]byte, error) { return b, nil }

func (b bytesProvider) Read() (map[string]any, error) {
	return nil, errors.New("bytesProvider does not support Read")
}

// Load builds the configuration from the defaults, the file at path (skipped
// when path is empty) and the flags in fs that map to configuration keys.
// fs may be nil.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(bytesProvider(defaultYAML), yaml.Parser()); err != nil {
		return nil, oops.Code(CodeInvalid).Wrapf(err, "loading built-in defaults")
	}

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
		if err != nil {
			return nil, oops.Code(CodeInvalid).
				With("path", path).
				Wrapf(err, "reading config file")
		}
		if err := ValidateSchema(data); err != nil {
			return nil, oops.With("path", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code(CodeInvalid).
				With("path", path).
				Wrapf(err, "loading config file")
		}
	}

	if fs != nil {
		if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, flagToKey(fs)), nil); err != nil {
			return nil, oops.Code(CodeInvalid).Wrapf(err, "loading command-line flags")
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code(CodeInvalid).Wrapf(err, "decoding configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Messages.NotPremiumPlayer = TranslateColourCodes('&', cfg.Messages.NotPremiumPlayer)
	cfg.Messages.MojangAPIDown = TranslateColourCodes('&', cfg.Messages.MojangAPIDown)

	return &cfg, nil
}

// ResolvePath picks the config file to load. An explicit path is always
// used. Otherwise the XDG default is used when it exists, and "" (defaults
// only) when it does not.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	path, err := xdg.ConfigFile()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", oops.With("path", path).Wrapf(err, "checking config file")
	}
	return path, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	invalid := func(key string, format string, args ...any) error {
		return oops.Code(CodeInvalid).With("key", key).Errorf(format, args...)
	}

	switch {
	case c.Messages.NotPremiumPlayer == "":
		return invalid("messages.not-premium-player", "messages.not-premium-player must not be empty")
	case c.Messages.MojangAPIDown == "":
		return invalid("messages.mojang-api-down", "messages.mojang-api-down must not be empty")
	case c.Verify.CacheExpiry <= 0:
		return invalid("verify.cache-expiry", "verify.cache-expiry must be positive, got %s", c.Verify.CacheExpiry)
	case c.Mojang.SessionURL == "":
		return invalid("mojang.session-url", "mojang.session-url is required")
	case c.Mojang.Timeout <= 0:
		return invalid("mojang.timeout", "mojang.timeout must be positive, got %s", c.Mojang.Timeout)
	case c.Mojang.Rate <= 0:
		return invalid("mojang.rate", "mojang.rate must be positive, got %v", c.Mojang.Rate)
	case c.Mojang.Burst <= 0:
		return invalid("mojang.burst", "mojang.burst must be positive, got %d", c.Mojang.Burst)
	case c.Server.ListenAddr == "":
		return invalid("server.listen-addr", "server.listen-addr is required")
	case c.Log.Format != "json" && c.Log.Format != "text":
		return invalid("log.format", "log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return oops.With("key", "log.level").Wrap(err)
	}
	return nil
}

// Map returns the configuration as nested maps keyed like the config file,
// with durations rendered as strings.
func (c *Config) Map() map[string]any {
	return map[string]any{
		"messages": map[string]any{
			"not-premium-player": c.Messages.NotPremiumPlayer,
			"mojang-api-down":    c.Messages.MojangAPIDown,
		},
		"verify": map[string]any{
			"cache-expiry": c.Verify.CacheExpiry.String(),
			"coalesce":     c.Verify.Coalesce,
		},
		"mojang": map[string]any{
			"session-url": c.Mojang.SessionURL,
			"timeout":     c.Mojang.Timeout.String(),
			"rate":        c.Mojang.Rate,
			"burst":       c.Mojang.Burst,
		},
		"server": map[string]any{
			"listen-addr":  c.Server.ListenAddr,
			"metrics-addr": c.Server.MetricsAddr,
		},
		"log": map[string]any{
			"format": c.Log.Format,
			"level":  c.Log.Level,
		},
	}
}
