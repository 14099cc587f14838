// Package config loads HabitPulse settings from .habitpulse.yaml,
// HABITPULSE_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/roach88/habitpulse/internal/reminder"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "HABITPULSE"

// Notifier kinds.
const (
	NotifierAuto    = "auto"    // command if found on PATH, else log
	NotifierCommand = "command" // always run the command
	NotifierLog     = "log"     // write notifications to the log
)

// NotifierConfig selects how notifications are delivered.
type NotifierConfig struct {
	Kind    string `mapstructure:"kind"`
	Command string `mapstructure:"command"`
}

// Config holds all runtime configuration.
// Values are populated from .habitpulse.yaml, HABITPULSE_* env vars, and CLI flags.
type Config struct {
	DBPath           string            `mapstructure:"db_path"`
	Verbose          bool              `mapstructure:"verbose"`
	LogFile          string            `mapstructure:"log_file"`
	Journal          bool              `mapstructure:"journal"`
	RolloverInterval time.Duration     `mapstructure:"rollover_interval"`
	WarningInterval  time.Duration     `mapstructure:"warning_interval"`
	WarningHour      int               `mapstructure:"warning_hour"`
	MetricsAddr      string            `mapstructure:"metrics_addr"`
	Notifier         NotifierConfig    `mapstructure:"notifier"`
	Reminders        reminder.Settings `mapstructure:"reminders"`
}

// New returns a viper instance with HabitPulse defaults and environment
// binding. When file is empty, .habitpulse.yaml is searched for in the working
// directory and then the home directory.
func New(file string) *viper.Viper {
	v := viper.New()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(".habitpulse")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	defaults := reminder.DefaultSettings()

	v.SetDefault("db_path", DefaultDBPath())
	v.SetDefault("verbose", false)
	v.SetDefault("log_file", "")
	v.SetDefault("journal", false)
	v.SetDefault("rollover_interval", time.Minute)
	v.SetDefault("warning_interval", 30*time.Minute)
	v.SetDefault("warning_hour", reminder.DefaultWarningHour)
	v.SetDefault("metrics_addr", "")
	v.SetDefault("notifier.kind", NotifierAuto)
	v.SetDefault("notifier.command", reminder.DefaultCommand)
	v.SetDefault("reminders.enabled", defaults.Enabled)
	v.SetDefault("reminders.daily_reminder", defaults.DailyReminder)
	v.SetDefault("reminders.streak_warning", defaults.StreakWarning)
	v.SetDefault("reminders.reminder_time", defaults.ReminderTime)
	v.SetDefault("reminders.sound", defaults.Sound)
	v.SetDefault("reminders.vibration", defaults.Vibration)
}

// DefaultDBPath is the database location when none is configured:
// habitpulse/habits.db under the user config directory.
func DefaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "habits.db"
	}
	return filepath.Join(dir, "habitpulse", "habits.db")
}

// Load reads the config file, if any, and decodes the result. A missing
// config file is not an error; an explicitly named one is.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at run time.
func (c Config) Validate() error {
	if err := c.Reminders.Validate(); err != nil {
		return fmt.Errorf("reminders: %w", err)
	}
	if c.WarningHour < 0 || c.WarningHour > 23 {
		return fmt.Errorf("warning_hour must be between 0 and 23, got %d", c.WarningHour)
	}
	if c.RolloverInterval <= 0 || c.WarningInterval <= 0 {
		return errors.New("rollover_interval and warning_interval must be positive")
	}
	switch c.Notifier.Kind {
	case NotifierAuto, NotifierCommand, NotifierLog:
	default:
		return fmt.Errorf("notifier.kind must be auto, command or log, got %q", c.Notifier.Kind)
	}
	return nil
}

// File returns the config file in use, or "" when none was found.
func File(v *viper.Viper) string {
	return v.ConfigFileUsed()
}
