// Package config provides Viper-based configuration loading for the duel simulator.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings for the champion catalog.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LogFileConfig controls the optional rotating log file.
type LogFileConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	// MaxSizeMB is the size at which the file is rotated.
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string        `mapstructure:"format"`
	File   LogFileConfig `mapstructure:"file"`
}

// SimulationConfig holds the defaults for a duel.
type SimulationConfig struct {
	// FirstActor is "a" or "b".
	FirstActor    string        `mapstructure:"first_actor"`
	ReactionDelay time.Duration `mapstructure:"reaction_delay"`
	MaxTicks      int           `mapstructure:"max_ticks"`
	// Seed seeds the crit source; 0 picks a random seed per invocation.
	Seed    uint64 `mapstructure:"seed"`
	Runs    int    `mapstructure:"runs"`
	Workers int    `mapstructure:"workers"`
}

// CatalogConfig selects where champion, item and effect definitions come from.
type CatalogConfig struct {
	// Source is "yaml" or "postgres". Items and effects always load from YAML.
	Source       string `mapstructure:"source"`
	ChampionsDir string `mapstructure:"champions_dir"`
	ItemsDir     string `mapstructure:"items_dir"`
	EffectsDir   string `mapstructure:"effects_dir"`
}

// ScriptingConfig controls the Lua event hooks.
type ScriptingConfig struct {
	// Script is the path to a Lua file; empty disables scripting.
	Script           string `mapstructure:"script"`
	InstructionLimit int    `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Scripting  ScriptingConfig  `mapstructure:"scripting"`
}

// Validate checks all configuration invariants. Database settings are only
// checked when the catalog source is postgres.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateCatalog(c.Catalog); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Catalog.Source == "postgres" {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateScripting(c.Scripting); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	var errs []string
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of [debug, info, warn, error], got %q", l.Level))
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		errs = append(errs, fmt.Sprintf("logging.format must be one of [json, console], got %q", l.Format))
	}
	if l.File.Enabled {
		if l.File.Path == "" {
			errs = append(errs, "logging.file.path must not be empty when logging.file.enabled is set")
		}
		if l.File.MaxSizeMB < 1 {
			errs = append(errs, fmt.Sprintf("logging.file.max_size_mb must be >= 1, got %d", l.File.MaxSizeMB))
		}
		if l.File.MaxBackups < 0 || l.File.MaxAgeDays < 0 {
			errs = append(errs, "logging.file.max_backups and logging.file.max_age_days must not be negative")
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	switch strings.ToLower(s.FirstActor) {
	case "a", "b":
	default:
		errs = append(errs, fmt.Sprintf("simulation.first_actor must be one of [a, b], got %q", s.FirstActor))
	}
	if s.ReactionDelay < 0 {
		errs = append(errs, "simulation.reaction_delay must not be negative")
	}
	if s.MaxTicks < 1 {
		errs = append(errs, fmt.Sprintf("simulation.max_ticks must be >= 1, got %d", s.MaxTicks))
	}
	if s.Runs < 1 {
		errs = append(errs, fmt.Sprintf("simulation.runs must be >= 1, got %d", s.Runs))
	}
	if s.Workers < 1 {
		errs = append(errs, fmt.Sprintf("simulation.workers must be >= 1, got %d", s.Workers))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCatalog(c CatalogConfig) error {
	var errs []string
	switch c.Source {
	case "yaml":
		if c.ChampionsDir == "" {
			errs = append(errs, "catalog.champions_dir must not be empty when catalog.source is yaml")
		}
	case "postgres":
	default:
		errs = append(errs, fmt.Sprintf("catalog.source must be one of [yaml, postgres], got %q", c.Source))
	}
	if c.ItemsDir == "" {
		errs = append(errs, "catalog.items_dir must not be empty")
	}
	if c.EffectsDir == "" {
		errs = append(errs, "catalog.effects_dir must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateScripting(s ScriptingConfig) error {
	if s.Script != "" && s.InstructionLimit < 1 {
		return errors.New("scripting.instruction_limit must be >= 1 when scripting.script is set")
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and
// environment variables only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with DUELSIM_ prefix
	v.SetEnvPrefix("DUELSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.enabled", false)
	v.SetDefault("logging.file.path", "logs/duelsim.log")
	v.SetDefault("logging.file.max_size_mb", 100)
	v.SetDefault("logging.file.max_backups", 3)
	v.SetDefault("logging.file.max_age_days", 28)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("simulation.first_actor", "a")
	v.SetDefault("simulation.reaction_delay", "0s")
	v.SetDefault("simulation.max_ticks", 18000)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.runs", 1)
	v.SetDefault("simulation.workers", 4)

	v.SetDefault("catalog.source", "yaml")
	v.SetDefault("catalog.champions_dir", "content/champions")
	v.SetDefault("catalog.items_dir", "content/items")
	v.SetDefault("catalog.effects_dir", "content/effects")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "duelsim")
	v.SetDefault("database.password", "duelsim")
	v.SetDefault("database.name", "duelsim")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("scripting.script", "")
	v.SetDefault("scripting.instruction_limit", 100000)
}
