// Package config provides environment-based configuration loading and validation.
//
// This package reads configuration from environment variables (and .env files)
// using struct tags, then validates the loaded configuration.
//
// Usage:
//
//	import "github.com/belugaiot/beluga/pkg/config"
//
//	type DeviceConfig struct {
//		Endpoint  string `env:"IOT_ENDPOINT" validate:"required"`
//		ThingName string `env:"IOT_THING_NAME" validate:"required"`
//	}
//
//	var cfg DeviceConfig
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
package config

import (
	"github.com/belugaiot/beluga/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// Load reads configuration from a .env file or environment variables and
// validates it. A missing .env file is not an error; environment variables
// alone are enough.
func Load[T any](cfg *T) error {
	if err := cleanenv.ReadConfig(".env", cfg); err != nil {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return errors.Wrap(err, "failed to read env config")
		}
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return errors.New(errors.CodeInvalidArgument, "config validation failed", err)
	}

	return nil
}

// Validate runs struct validation without loading from the environment. It is
// used by constructors that accept an already-populated config value.
func Validate(cfg any) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return errors.New(errors.CodeInvalidArgument, "config validation failed", err)
	}
	return nil
}
