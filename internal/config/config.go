// Package config provides Viper-based configuration loading for the tactics engine.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TACTICS_GAME_SEED.
const EnvPrefix = "TACTICS"

// GameConfig holds the rules that shape a campaign.
type GameConfig struct {
	// BoardSize is the side length of the square board.
	BoardSize int `mapstructure:"board_size"`
	// LevelCap is the last playable level; clearing it wins the game.
	LevelCap int `mapstructure:"level_cap"`
	// InitialSquadSize is the number of units per side on level 1.
	InitialSquadSize int `mapstructure:"initial_squad_size"`
	// Seed makes a game reproducible; 0 draws from crypto/rand.
	Seed uint64 `mapstructure:"seed"`
	// AIDomain is an HTN domain YAML path; empty uses the embedded skirmisher.
	AIDomain string `mapstructure:"ai_domain"`
	// AIScript is a Lua precondition script path; empty uses the embedded script.
	AIScript string `mapstructure:"ai_script"`
	// InstructionLimit is the Lua opcode budget per hook call; 0 uses the default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// StorageConfig selects where saved games go.
type StorageConfig struct {
	// Driver is "file" or "postgres".
	Driver string `mapstructure:"driver"`
	// Path is the JSON save file for the file driver.
	Path string `mapstructure:"path"`
	// Slot names the save row for the postgres driver.
	Slot string `mapstructure:"slot"`
}

// DatabaseConfig holds PostgreSQL connection settings.
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
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// File, when set, also writes JSON logs to a rotating file.
	File string `mapstructure:"file"`
	// MaxSizeMB is the size at which the log file rotates.
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files kept.
	MaxBackups int `mapstructure:"max_backups"`
	// MaxAgeDays is how long rotated files are kept.
	MaxAgeDays int `mapstructure:"max_age_days"`
	// Compress gzips rotated files.
	Compress bool `mapstructure:"compress"`
}

// Config is the top-level application configuration.
type Config struct {
	Game     GameConfig     `mapstructure:"game"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// Validate checks all configuration invariants. Database settings are only
// checked when the postgres storage driver is selected.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStorage(c.Storage); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Storage.Driver == "postgres" {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.BoardSize < 4 || g.BoardSize > 32 {
		errs = append(errs, fmt.Sprintf("game.board_size must be 4-32, got %d", g.BoardSize))
	}
	if g.LevelCap < 1 {
		errs = append(errs, fmt.Sprintf("game.level_cap must be >= 1, got %d", g.LevelCap))
	}
	if g.InitialSquadSize < 1 {
		errs = append(errs, fmt.Sprintf("game.initial_squad_size must be >= 1, got %d", g.InitialSquadSize))
	}
	if g.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("game.instruction_limit must be >= 0, got %d", g.InstructionLimit))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	switch s.Driver {
	case "file":
		if s.Path == "" {
			return errors.New("storage.path must not be empty for the file driver")
		}
	case "postgres":
		if s.Slot == "" {
			return errors.New("storage.slot must not be empty for the postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver must be one of [file, postgres], got %q", s.Driver)
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
		return errors.New(strings.Join(errs, "; "))
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
	if l.File != "" && l.MaxSizeMB < 1 {
		errs = append(errs, fmt.Sprintf("logging.max_size_mb must be >= 1 when logging.file is set, got %d", l.MaxSizeMB))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped; with no arguments ".env" is tried.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Load reads configuration from path (optional), applies TACTICS_ environment
// overrides and validates the result. An empty path uses defaults and the
// environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
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
	v.SetDefault("game.board_size", 8)
	v.SetDefault("game.level_cap", 4)
	v.SetDefault("game.initial_squad_size", 2)
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.ai_domain", "")
	v.SetDefault("game.ai_script", "")
	v.SetDefault("game.instruction_limit", 0)

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.path", "saves/tactics.json")
	v.SetDefault("storage.slot", "default")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "tactics")
	v.SetDefault("database.password", "tactics")
	v.SetDefault("database.name", "tactics")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
	v.SetDefault("logging.compress", false)
}
