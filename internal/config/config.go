// Package config loads server settings from an optional config file and
// CLUB_* environment variables using Viper.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key when read from the environment,
// e.g. db_path -> CLUB_DB_PATH.
const EnvPrefix = "CLUB"

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreJSON   = "json"
)

// Config holds application configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `mapstructure:"addr" validate:"required"`
	// Env is development, test or production. Production requires csrf_key.
	Env string `mapstructure:"env" validate:"oneof=development test production"`

	// Store selects the member backend.
	Store    string `mapstructure:"store" validate:"oneof=sqlite json"`
	DBPath   string `mapstructure:"db_path" validate:"required_if=Store sqlite"`
	DataFile string `mapstructure:"data_file" validate:"required_if=Store json"`

	// StaticDir overrides the embedded assets when set.
	StaticDir    string `mapstructure:"static_dir"`
	ImageBaseURL string `mapstructure:"image_base_url" validate:"required,url"`

	// CSRFKey is 32 bytes, hex encoded.
	CSRFKey            string   `mapstructure:"csrf_key" validate:"required_if=Env production,omitempty,hexadecimal,len=64"`
	SecureCookies      bool     `mapstructure:"secure_cookies"`
	TrustedOrigins     []string `mapstructure:"trusted_origins"`
	RateLimitPerSecond int      `mapstructure:"rate_limit_per_second" validate:"min=1"`

	AdminUser string `mapstructure:"admin_user"`
	// AdminPasswordHash is a bcrypt hash; see the hash-password command.
	AdminPasswordHash string `mapstructure:"admin_password_hash" validate:"required_with=AdminUser"`

	ResendKey string   `mapstructure:"resend_key"`
	MailFrom  string   `mapstructure:"mail_from" validate:"required_with=ResendKey"`
	NotifyTo  []string `mapstructure:"notify_to" validate:"dive,email"`

	LogLevel      string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat     string `mapstructure:"log_format" validate:"oneof=text json"`
	SlowRequestMS int    `mapstructure:"slow_request_ms" validate:"min=0"`
	SlowQueryMS   int    `mapstructure:"slow_query_ms" validate:"min=0"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("env", "development")
	v.SetDefault("store", StoreSQLite)
	v.SetDefault("db_path", "club.db")
	v.SetDefault("data_file", "data/clubinfo.json")
	v.SetDefault("static_dir", "")
	v.SetDefault("image_base_url", "https://loremflickr.com/300/450/letter")
	v.SetDefault("csrf_key", "")
	v.SetDefault("secure_cookies", false)
	v.SetDefault("trusted_origins", []string{})
	v.SetDefault("rate_limit_per_second", 10)
	v.SetDefault("admin_user", "")
	v.SetDefault("admin_password_hash", "")
	v.SetDefault("resend_key", "")
	v.SetDefault("mail_from", "")
	v.SetDefault("notify_to", []string{})
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("slow_request_ms", 200)
	v.SetDefault("slow_query_ms", 100)
}

// Load reads the config file at path (or ./club.yaml when path is empty and
// the file exists), applies CLUB_* environment overrides and validates the
// result. Environment variables win over the file; the file wins over defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigName("club")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("config: read club config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.TrustedOrigins = splitList(cfg.TrustedOrigins)
	cfg.NotifyTo = splitList(cfg.NotifyTo)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// splitList flattens comma-separated entries and drops blanks, so a list can
// come from YAML or from a single environment variable.
func splitList(in []string) []string {
	out := []string{}
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

var configValidator = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("mapstructure")
	})
	return v
}()

// Validate checks every key and reports all failures at once.
func (c Config) Validate() error {
	err := configValidator.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
}

// IsProduction reports whether env is production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// SlowRequest returns the request duration logged at WARN.
func (c Config) SlowRequest() time.Duration {
	return time.Duration(c.SlowRequestMS) * time.Millisecond
}

// SlowQuery returns the query duration logged at WARN.
func (c Config) SlowQuery() time.Duration {
	return time.Duration(c.SlowQueryMS) * time.Millisecond
}
