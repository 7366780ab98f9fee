package config

import (
	"fmt"
	"os"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"mock-kv/internal/kv"
	"mock-kv/internal/logs"
	"mock-kv/internal/store"
)

// DefaultLogBuffer is the logger capacity used when log.buffer is absent.
const DefaultLogBuffer = 1000

// Config is the parsed fixture file.
type Config struct {
	Log LogConfig `yaml:"log"`

	// LegacyJSONKeys enables the key-name JSON heuristic on Get.
	LegacyJSONKeys bool `yaml:"legacy_json_keys"`

	Seed []SeedConfig `yaml:"seed"`
}

// LogConfig controls the namespace logger.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	// Empty defers to the DEBUG environment variable.
	Level string `yaml:"level"`

	// Buffer is how many entries the logger keeps in memory.
	Buffer int `yaml:"buffer"`
}

// SeedConfig is one raw record. Seeds bypass size validation.
type SeedConfig struct {
	Key string `yaml:"key"`

	// Value is any YAML scalar; it is stored as its string form.
	// Omitted means the record has no value at all.
	Value any `yaml:"value"`

	// ExpiresAt is an absolute instant in epoch milliseconds.
	ExpiresAt *int64 `yaml:"expires_at"`

	Metadata any `yaml:"metadata"`
}

// Load reads and parses the fixture at path.
// Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Log: LogConfig{Buffer: DefaultLogBuffer},
	}
}

func validate(cfg *Config) error {
	if cfg.Log.Level != "" {
		if _, err := logs.ParseLevel(cfg.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}
	if cfg.Log.Buffer <= 0 {
		return fmt.Errorf("log.buffer %d must be positive", cfg.Log.Buffer)
	}

	seen := make(map[string]bool, len(cfg.Seed))
	for i, s := range cfg.Seed {
		if s.Key == "" {
			return fmt.Errorf("seed[%d]: key is required", i)
		}
		if seen[s.Key] {
			return fmt.Errorf("seed[%d]: duplicate key %q", i, s.Key)
		}
		seen[s.Key] = true

		if s.Value != nil {
			if _, err := cast.ToStringE(s.Value); err != nil {
				return fmt.Errorf("seed[%d] %q: value must be a scalar: %w", i, s.Key, err)
			}
		}
	}
	return nil
}

// Logger builds the logger described by the log section.
func (c *Config) Logger() *logs.Logger {
	level := logs.LevelFromEnv()
	if c.Log.Level != "" {
		// validated by Load
		level, _ = logs.ParseLevel(c.Log.Level)
	}
	return logs.NewLogger(c.Log.Buffer, level)
}

// Entries converts the seed section into namespace records, in file order.
func (c *Config) Entries() []kv.SeedEntry {
	out := make([]kv.SeedEntry, 0, len(c.Seed))
	for _, s := range c.Seed {
		entry := store.Entry{
			ExpiresAt: s.ExpiresAt,
			Metadata:  s.Metadata,
		}
		if s.Value != nil {
			v := cast.ToString(s.Value)
			entry.Value = &v
		}
		out = append(out, kv.SeedEntry{Key: s.Key, Entry: entry})
	}
	return out
}

// Options returns the namespace options this fixture describes.
func (c *Config) Options() []kv.Option {
	opts := []kv.Option{
		kv.WithLogger(c.Logger()),
		kv.WithSeed(c.Entries()...),
	}
	if c.LegacyJSONKeys {
		opts = append(opts, kv.WithLegacyJSONKeys())
	}
	return opts
}
