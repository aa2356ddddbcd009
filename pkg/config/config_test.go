package config_test

import (
	"testing"

	"github.com/belugaiot/beluga/pkg/config"
	"github.com/belugaiot/beluga/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Endpoint  string `env:"TEST_IOT_ENDPOINT" validate:"required"`
	ThingName string `env:"TEST_IOT_THING_NAME" validate:"required"`
	Port      int    `env:"TEST_IOT_PORT" env-default:"8883"`
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TEST_IOT_ENDPOINT", "example.iot.us-east-1.amazonaws.com")
	t.Setenv("TEST_IOT_THING_NAME", "thing-1")

	var cfg testConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "example.iot.us-east-1.amazonaws.com", cfg.Endpoint)
	assert.Equal(t, "thing-1", cfg.ThingName)
	assert.Equal(t, 8883, cfg.Port)
}

func TestLoadRejectsMissingRequired(t *testing.T) {
	t.Setenv("TEST_IOT_ENDPOINT", "example.iot.us-east-1.amazonaws.com")

	var cfg testConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidArgument))
}

func TestValidate(t *testing.T) {
	err := config.Validate(&testConfig{Endpoint: "e", ThingName: "n"})
	require.NoError(t, err)

	err = config.Validate(&testConfig{Endpoint: "e"})
	require.Error(t, err)
}
