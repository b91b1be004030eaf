package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	DataFilePath     string        `mapstructure:"DATA_FILE_PATH" validate:"required"`
	ShapeFilePath    string        `mapstructure:"SHAPE_FILE_PATH" validate:"required"`
	RecordIDColumn   string        `mapstructure:"RECORD_ID_COLUMN" validate:"required"`
	PolygonIDField   string        `mapstructure:"POLYGON_ID_FIELD" validate:"required"`
	PolygonTable     string        `mapstructure:"POLYGON_TABLE" validate:"required"`
	HexResolution    int           `mapstructure:"HEX_RESOLUTION" validate:"min=0,max=15"`
	DeduplicateCells bool          `mapstructure:"DEDUPLICATE_CELLS"`
	OutputPath       string        `mapstructure:"OUTPUT_PATH"`
	ServerAddress    string        `mapstructure:"SERVER_ADDRESS"`
	DBSource         string        `mapstructure:"DB_SOURCE"`
	RedisAddr        string        `mapstructure:"REDIS_ADDR"`
	RedisPassword    string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB          int           `mapstructure:"REDIS_DB" validate:"min=0"`
	CacheTTL         time.Duration `mapstructure:"CACHE_TTL"`
	LogLevel         string        `mapstructure:"LOG_LEVEL" validate:"omitempty,oneof=trace debug info warn error"`
	LogFormat        string        `mapstructure:"LOG_FORMAT" validate:"omitempty,oneof=console json"`
}

var defaults = map[string]any{
	"DATA_FILE_PATH":    "",
	"SHAPE_FILE_PATH":   "",
	"RECORD_ID_COLUMN":  "Pincode",
	"POLYGON_ID_FIELD":  "pincode",
	"POLYGON_TABLE":     "pincode_boundaries",
	"HEX_RESOLUTION":    6,
	"DEDUPLICATE_CELLS": false,
	"OUTPUT_PATH":       "/data/pincode_map.html",
	"SERVER_ADDRESS":    ":8080",
	"DB_SOURCE":         "",
	"REDIS_ADDR":        "",
	"REDIS_PASSWORD":    "",
	"REDIS_DB":          0,
	"CACHE_TTL":         "10m",
	"LOG_LEVEL":         "info",
	"LOG_FORMAT":        "console",
}

// ErrConfiguration matches every ConfigurationError.
var ErrConfiguration = errors.New("config: invalid configuration")

// ConfigurationError lists the settings that are unset or invalid.
type ConfigurationError struct {
	Keys []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config: missing or invalid settings: %s", strings.Join(e.Keys, ", "))
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("mapstructure")
	})
	return v
}

// LoadConfig reads configuration from app.env under path, a .env file in the
// working directory, and the process environment, in increasing priority,
// then validates it.
func LoadConfig(path string) (Config, error) {
	cfg, err := ReadConfig(path)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// ReadConfig is LoadConfig without validation, for tools that only need a
// subset of the settings.
func ReadConfig(path string) (Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the required location inputs are set and that the
// tunables are in range.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: validate: %w", err)
	}

	keys := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		keys = append(keys, fe.Field())
	}
	return &ConfigurationError{Keys: keys}
}
