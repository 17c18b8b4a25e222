// Package config loads server settings from defaults, an optional config
// file, a .env file, ROADRAGE_* environment variables and command-line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "ROADRAGE"

type Config struct {
	Addr  string      `mapstructure:"addr"`
	Log   LogConfig   `mapstructure:"log"`
	Game  GameConfig  `mapstructure:"game"`
	Rooms RoomsConfig `mapstructure:"rooms"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type GameConfig struct {
	Countdown    time.Duration `mapstructure:"countdown"`
	DefaultTrack string        `mapstructure:"default_track"`
	DefaultBike  string        `mapstructure:"default_bike"`
}

type RoomsConfig struct {
	MaxPlayers    int           `mapstructure:"max_players"`
	Policy        string        `mapstructure:"policy"`
	CleanupPeriod time.Duration `mapstructure:"cleanup_period"`
}

func DefaultConfig() Config {
	return Config{
		Addr: ":5002",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Game: GameConfig{
			Countdown:    3 * time.Second,
			DefaultTrack: "track1",
			DefaultBike:  "default",
		},
		Rooms: RoomsConfig{
			MaxPlayers:    0,
			Policy:        "persist",
			CleanupPeriod: 30 * time.Second,
		},
	}
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"addr":                "addr",
	"log-level":           "log.level",
	"log-format":          "log.format",
	"countdown":           "game.countdown",
	"track":               "game.default_track",
	"bike":                "game.default_bike",
	"max-players":         "rooms.max_players",
	"room-policy":         "rooms.policy",
	"room-cleanup-period": "rooms.cleanup_period",
}

// RegisterFlags adds the overridable settings to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.String("addr", d.Addr, "listen address")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("log-format", d.Log.Format, "log format (text, json, logfmt)")
	fs.Duration("countdown", d.Game.Countdown, "race countdown")
	fs.String("track", d.Game.DefaultTrack, "default track for new rooms")
	fs.String("bike", d.Game.DefaultBike, "default bike for new players")
	fs.Int("max-players", d.Rooms.MaxPlayers, "players per room, 0 for unlimited")
	fs.String("room-policy", d.Rooms.Policy, "what happens to empty rooms (persist, reap)")
	fs.Duration("room-cleanup-period", d.Rooms.CleanupPeriod, "how often empty rooms are swept")
}

type LoadOptions struct {
	// ConfigFile is an optional yaml, json or toml file.
	ConfigFile string
	// EnvFile defaults to .env; a missing default file is not an error.
	EnvFile string
	Flags   *pflag.FlagSet
}

func Load(opts LoadOptions) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("addr", defaults.Addr)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("game.countdown", defaults.Game.Countdown)
	v.SetDefault("game.default_track", defaults.Game.DefaultTrack)
	v.SetDefault("game.default_bike", defaults.Game.DefaultBike)
	v.SetDefault("rooms.max_players", defaults.Rooms.MaxPlayers)
	v.SetDefault("rooms.policy", defaults.Rooms.Policy)
	v.SetDefault("rooms.cleanup_period", defaults.Rooms.CleanupPeriod)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			f := opts.Flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.Game.Countdown <= 0 {
		errs = append(errs, fmt.Errorf("game.countdown must be positive, got %s", c.Game.Countdown))
	}
	if c.Rooms.MaxPlayers < 0 {
		errs = append(errs, fmt.Errorf("rooms.max_players must not be negative, got %d", c.Rooms.MaxPlayers))
	}
	if c.Rooms.CleanupPeriod <= 0 {
		errs = append(errs, fmt.Errorf("rooms.cleanup_period must be positive, got %s", c.Rooms.CleanupPeriod))
	}
	switch c.Rooms.Policy {
	case "persist", "reap":
	default:
		errs = append(errs, fmt.Errorf("rooms.policy must be persist or reap, got %q", c.Rooms.Policy))
	}
	switch c.Log.Format {
	case "text", "json", "logfmt":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text, json or logfmt, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
