// Package config assembles otic's runtime configuration from defaults, an
// optional config.env file, OTIC_* environment variables and CLI flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/otic/internal/fingerprint"
	"github.com/jmylchreest/otic/internal/match"
)

const (
	AppName     = "otic"
	EnvFileName = "config.env"
	EnvPrefix   = "OTIC_"
)

// Environment variable names.
const (
	EnvDBPath         = EnvPrefix + "DB_PATH"
	EnvBins           = EnvPrefix + "BINS"
	EnvMaxSamples     = EnvPrefix + "MAX_SAMPLES"
	EnvAlphaThreshold = EnvPrefix + "ALPHA_THRESHOLD"
	EnvThreshold      = EnvPrefix + "THRESHOLD"
	EnvWorkers        = EnvPrefix + "WORKERS"
	EnvCompressTokens = EnvPrefix + "COMPRESS_TOKENS"
	EnvAllowPrivate   = EnvPrefix + "ALLOW_PRIVATE_URLS"
)

// Config is the full runtime configuration.
type Config struct {
	DBPath           string
	Fingerprint      fingerprint.Config
	Match            match.Config
	CompressTokens   bool
	AllowPrivateURLs bool
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		DBPath:         DefaultDBPath(),
		Fingerprint:    fingerprint.DefaultConfig(),
		Match:          match.DefaultConfig(),
		CompressTokens: true,
	}
}

// Dir returns otic's directory under the user config dir, or "" if the
// platform has none.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, AppName)
}

// DefaultDBPath returns the default database location.
func DefaultDBPath() string {
	if dir := Dir(); dir != "" {
		return filepath.Join(dir, "otic.db")
	}
	return "otic.db"
}

// LoadEnvFile loads variables from path into the process environment
// without overriding ones that are already set. A missing file is not an
// error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads the user's config.env, then the environment.
func Load() (Config, error) {
	if dir := Dir(); dir != "" {
		if err := LoadEnvFile(filepath.Join(dir, EnvFileName)); err != nil {
			return Config{}, err
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv overlays OTIC_* variables, read through lookup, onto Default.
// Values are parsed but not range-checked; see Validate.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup(EnvDBPath); ok && v != "" {
		cfg.DBPath = v
	}

	var err error
	if cfg.Fingerprint.Bins, err = envInt(lookup, EnvBins, cfg.Fingerprint.Bins); err != nil {
		return Config{}, err
	}
	if cfg.Fingerprint.MaxSamples, err = envInt(lookup, EnvMaxSamples, cfg.Fingerprint.MaxSamples); err != nil {
		return Config{}, err
	}
	if cfg.Fingerprint.AlphaThreshold, err = envInt(lookup, EnvAlphaThreshold, cfg.Fingerprint.AlphaThreshold); err != nil {
		return Config{}, err
	}

	if cfg.Match.Workers, err = envInt(lookup, EnvWorkers, cfg.Match.Workers); err != nil {
		return Config{}, err
	}
	if v, ok := lookup(EnvThreshold); ok && v != "" {
		if cfg.Match.Threshold, err = strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", EnvThreshold, err)
		}
	}
	if cfg.CompressTokens, err = envBool(lookup, EnvCompressTokens, cfg.CompressTokens); err != nil {
		return Config{}, err
	}
	if cfg.AllowPrivateURLs, err = envBool(lookup, EnvAllowPrivate, cfg.AllowPrivateURLs); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func envInt(lookup func(string) (string, bool), key string, def int) (int, error) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envBool(lookup func(string) (string, bool), key string, def bool) (bool, error) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// BindFlags registers flags that override cfg. Call after loading the
// environment so flag defaults reflect it.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the token database")
	fs.IntVar(&cfg.Fingerprint.Bins, "bins", cfg.Fingerprint.Bins, "Histogram bins per channel")
	fs.IntVar(&cfg.Fingerprint.MaxSamples, "max-samples", cfg.Fingerprint.MaxSamples, "Maximum pixels sampled per image")
	fs.IntVar(&cfg.Fingerprint.AlphaThreshold, "alpha-threshold", cfg.Fingerprint.AlphaThreshold, "Pixels with alpha at or below this are ignored")
	fs.Float64Var(&cfg.Match.Threshold, "threshold", cfg.Match.Threshold, "Minimum similarity for a match (0-1)")
	fs.IntVar(&cfg.Match.Workers, "workers", cfg.Match.Workers, "Concurrent comparisons")
	fs.BoolVar(&cfg.CompressTokens, "compress", cfg.CompressTokens, "Store tokens xz-compressed")
	fs.BoolVar(&cfg.AllowPrivateURLs, "allow-private-urls", cfg.AllowPrivateURLs, "Allow fetching images from local or private hosts")
}

// Validate checks every section.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("database path cannot be empty")
	}
	if err := c.Fingerprint.Validate(); err != nil {
		return err
	}
	return c.Match.Validate()
}
