// Package config loads and validates the bot configuration from config.json,
// with BOT_-prefixed environment variable overrides, and handles the durable
// write-back of the bot id after first-run bot creation.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var (
	// ErrConfigMissing indicates the config file or a required key is absent.
	ErrConfigMissing = errors.New("configuration missing")
	// ErrConfigMalformed indicates the config file could not be parsed or validated.
	ErrConfigMalformed = errors.New("configuration malformed")
)

// Config defines the application configuration. Values come from config.json
// and can be overridden via environment variables prefixed with BOT_
// (e.g. BOT_ACCESS_TOKEN).
type Config struct {
	AccessToken string `mapstructure:"access_token" validate:"required"`
	CallbackURL string `mapstructure:"callback_url" validate:"required,url"`

	// GroupID and BotID are optional on first run. BotID is written back to
	// the config file once the bot has been created on the platform.
	GroupID string `mapstructure:"group_id"`
	BotID   string `mapstructure:"bot_id"`
	BotName string `mapstructure:"bot_name"`

	ListenAddr   string `mapstructure:"listen_addr"`
	CommandsPath string `mapstructure:"commands_path"`

	// AdminUsername/AdminPassword enable the web command editor when both set.
	AdminUsername string `mapstructure:"admin_username"`
	AdminPassword string `mapstructure:"admin_password"`

	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogJSON  bool   `mapstructure:"log_json"`
}

// Load reads the config file at path, applies defaults and environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.SetDefault("bot_name", "MyBot")
	v.SetDefault("listen_addr", ":5000")
	v.SetDefault("commands_path", "commands.json")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigMissing, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigMalformed, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigMalformed, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		// A required key that is simply absent is a different operator
		// mistake than a key with a bad value.
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				if fe.Tag() == "required" {
					return nil, fmt.Errorf("%w: %v", ErrConfigMissing, err)
				}
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigMalformed, err)
	}

	slog.Info("configuration loaded",
		"path", path,
		"group_id", cfg.GroupID,
		"bot_id", cfg.BotID,
		"callback_url", cfg.CallbackURL,
		"access_token", redact(cfg.AccessToken))

	return cfg, nil
}

// AdminEnabled reports whether the web command editor should be served.
func (c *Config) AdminEnabled() bool {
	return c.AdminUsername != "" && c.AdminPassword != ""
}

// redact keeps the first four characters of a credential for log correlation.
func redact(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + strings.Repeat("*", len(s)-4)
}
