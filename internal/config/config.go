// Package config loads alarmclock settings from the config file, the
// environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Jondiko12/AlarmClock/internal/db"
)

// Keys understood in config.yaml. Each can also be set with an ALARMCLOCK_
// environment variable, e.g. ALARMCLOCK_SNOOZE=10m.
const (
	KeyDBPath       = "db_path"
	KeyLogPath      = "log_path"
	KeySnooze       = "snooze"
	KeyGradual      = "gradual"
	KeyTick         = "tick"
	KeyDefaultSound = "default_sound"
	KeyMute         = "mute"
	KeyMetricsAddr  = "metrics_addr"
)

// Bounds enforced by Validate.
const (
	MinSnooze = time.Minute
	MaxTick   = time.Second
)

// Config is the resolved application configuration.
type Config struct {
	DBPath       string
	LogPath      string
	Snooze       time.Duration
	Gradual      bool
	Tick         time.Duration
	DefaultSound string
	Mute         bool
	MetricsAddr  string
}

// Dir returns the directory holding the config file, database and log.
func Dir() string {
	return filepath.Dir(db.DefaultDBPath())
}

// New returns a viper instance with alarmclock's defaults and environment
// binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyDBPath, db.DefaultDBPath())
	v.SetDefault(KeyLogPath, filepath.Join(Dir(), "alarmclock.log"))
	v.SetDefault(KeySnooze, 5*time.Minute)
	v.SetDefault(KeyGradual, true)
	v.SetDefault(KeyTick, time.Second)
	v.SetDefault(KeyDefaultSound, "")
	v.SetDefault(KeyMute, false)
	v.SetDefault(KeyMetricsAddr, "")

	v.SetEnvPrefix("alarmclock")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads cfgFile, or config.yaml in Dir if cfgFile is empty, into v and
// returns the result. A missing default config file is not an error.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(Dir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		DBPath:       expandHome(v.GetString(KeyDBPath)),
		LogPath:      expandHome(v.GetString(KeyLogPath)),
		Snooze:       v.GetDuration(KeySnooze),
		Gradual:      v.GetBool(KeyGradual),
		Tick:         v.GetDuration(KeyTick),
		DefaultSound: expandHome(v.GetString(KeyDefaultSound)),
		Mute:         v.GetBool(KeyMute),
		MetricsAddr:  v.GetString(KeyMetricsAddr),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings the engine can't run with.
func (c Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path must not be empty"))
	}
	// Alarm times have minute resolution, so a shorter snooze would leave the
	// alarm in the minute it just rang in.
	switch {
	case c.Snooze <= 0:
		errs = append(errs, fmt.Errorf("snooze must be positive, got %v", c.Snooze))
	case c.Snooze < MinSnooze:
		errs = append(errs, fmt.Errorf("snooze must be at least %v, got %v", MinSnooze, c.Snooze))
	}
	switch {
	case c.Tick <= 0:
		errs = append(errs, fmt.Errorf("tick must be positive, got %v", c.Tick))
	case c.Tick > MaxTick:
		errs = append(errs, fmt.Errorf("tick must be at most %v, got %v", MaxTick, c.Tick))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
