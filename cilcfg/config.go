// Package cilcfg loads cilq's configuration from a YAML file, environment
// variables, and CLI flags, merged in that priority order (flags win).
package cilcfg

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "CILQ_"

// Config is the full set of settings cilq's store layer needs. Everything
// else about a run (which files to index, which query mode) is expressed
// as CLI arguments, not configuration.
type Config struct {
	StoreDSN         string        `koanf:"store.dsn"`
	StoreLockTimeout time.Duration `koanf:"store.lock_timeout"`
}

// DefaultConfig matches spec.md's default lock timeout of "on the order of
// an hour".
func DefaultConfig() Config {
	return Config{StoreLockTimeout: time.Hour}
}

// Load merges, in increasing priority: built-in defaults, the YAML file at
// path (or $CILQ_CONFIG, or ./cilq.yaml if path is ""; a missing file is
// not an error), CILQ_-prefixed environment variables, and flags already
// parsed onto fs.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"store.lock_timeout": DefaultConfig().StoreLockTimeout,
	}, "."), nil); err != nil {
		return Config{}, err
	}

	if path == "" {
		if fromEnv := os.Getenv("CILQ_CONFIG"); fromEnv != "" {
			path = fromEnv
		} else {
			path = "cilq.yaml"
		}
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, err
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.Replace(s, "_", ".", 1)
	}), nil); err != nil {
		return Config{}, err
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{FlatPaths: true}); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
