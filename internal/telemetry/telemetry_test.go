package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climatlas/climatlas/internal/telemetry"
)

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()

	provider, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "climatlas-test",
		ServiceVersion: "0.1.0",
		Environment:    "test",
		OTLPEndpoint:   "localhost:4317",
		Enabled:        false,
	})

	require.NoError(t, err)
	assert.NotNil(t, provider.Tracer)
	assert.NotNil(t, provider.Meter)
	assert.Nil(t, provider.TracerProvider)
	assert.Nil(t, provider.MeterProvider)

	assert.NoError(t, provider.Shutdown(ctx))
}

func TestShutdownWithNilProviders(t *testing.T) {
	provider := &telemetry.Provider{}
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestConfigFromEnvDefaults(t *testing.T) {
	cfg := telemetry.ConfigFromEnv("climatlas-api", "0.1.0")

	assert.Equal(t, "climatlas-api", cfg.ServiceName)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.Enabled)
}

func TestConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("TELEMETRY_ENABLED", "true")

	cfg := telemetry.ConfigFromEnv("climatlas-worker", "0.1.0")

	assert.Equal(t, "collector:4317", cfg.OTLPEndpoint)
	assert.Equal(t, "production", cfg.Environment)
	assert.True(t, cfg.Enabled)
}
