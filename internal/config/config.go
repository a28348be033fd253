// Package config loads certledger settings.
//
// Precedence, lowest to highest: defaults, YAML config file, CERTLEDGER_*
// environment variables, command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/certledger/internal/ir"
)

// Config is the full application configuration.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Store  StoreConfig  `mapstructure:"store"`
	Digest DigestConfig `mapstructure:"digest"`
	HTTP   HTTPConfig   `mapstructure:"http"`
	IDs    IDsConfig    `mapstructure:"ids"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug|info|warn|error
	Format string `mapstructure:"format"` // text|json
}

type StoreConfig struct {
	Backend string `mapstructure:"backend"` // memory|sqlite
}

type DigestConfig struct {
	Algorithm string `mapstructure:"algorithm"` // legacy32|sha256
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type IDsConfig struct {
	Prefix string `mapstructure:"prefix"`
}

// Defaults returns the built-in settings keyed by config path.
func Defaults() map[string]any {
	return map[string]any{
		"log.level":             "info",
		"log.format":            "text",
		"store.backend":         "memory",
		"digest.algorithm":      string(ir.AlgorithmLegacy32),
		"http.addr":             "127.0.0.1:8080",
		"http.shutdown_timeout": "5s",
		"ids.prefix":            "CERT-",
	}
}

// flagKeys maps config paths to the flag names that override them.
var flagKeys = map[string]string{
	"log.level":        "log-level",
	"log.format":       "log-format",
	"store.backend":    "backend",
	"digest.algorithm": "algorithm",
	"http.addr":        "addr",
	"ids.prefix":       "id-prefix",
}

// EnvPrefix prefixes every environment override, e.g. CERTLEDGER_HTTP_ADDR.
const EnvPrefix = "certledger"

// Load resolves configuration for cmd. configFile, when non-empty, must
// exist; otherwise certledger.yaml is looked up in the working directory
// and the user config directory, and its absence is not an error.
func Load(cmd *cobra.Command, configFile string) (Config, error) {
	var c Config
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("certledger")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "certledger"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return c, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		for key, name := range flagKeys {
			if f := cmd.Flags().Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return c, fmt.Errorf("bind flag %q: %w", name, err)
				}
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate rejects settings no component accepts.
func (c Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log.format %q", c.Log.Format)
	}
	switch c.Store.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("invalid store.backend %q", c.Store.Backend)
	}
	if _, err := ir.ParseAlgorithm(c.Digest.Algorithm); err != nil {
		return fmt.Errorf("invalid digest.algorithm: %w", err)
	}
	if c.HTTP.ShutdownTimeout < 0 {
		return fmt.Errorf("invalid http.shutdown_timeout %s", c.HTTP.ShutdownTimeout)
	}
	return nil
}

// Algorithm returns the parsed digest algorithm. Load has already
// validated it.
func (c Config) Algorithm() ir.Algorithm {
	a, _ := ir.ParseAlgorithm(c.Digest.Algorithm)
	return a
}
