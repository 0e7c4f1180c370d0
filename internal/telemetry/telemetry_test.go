package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/BaSui01/colloquy/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap/zaptest"
)

// saveAndRestoreGlobalProviders snapshots the current global OTel providers
// and restores them via t.Cleanup so tests don't leak state.
func saveAndRestoreGlobalProviders(t *testing.T) {
	t.Helper()
	origTP := otel.GetTracerProvider()
	origMP := otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(origTP)
		otel.SetMeterProvider(origMP)
	})
}

func TestInit_Disabled(t *testing.T) {
	saveAndRestoreGlobalProviders(t)
	logger := zaptest.NewLogger(t)

	tel, err := Init(config.TelemetryConfig{Enabled: false}, logger)
	require.NoError(t, err)
	require.NotNil(t, tel)

	// Inert: no SDK providers were built
	assert.Nil(t, tel.traces, "trace provider should be nil when disabled")
	assert.Nil(t, tel.meters, "meter provider should be nil when disabled")
}

func TestInit_Enabled(t *testing.T) {
	saveAndRestoreGlobalProviders(t)
	logger := zaptest.NewLogger(t)

	cfg := config.TelemetryConfig{
		Enabled:      true,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "colloquy-test",
		SampleRate:   0.5,
	}

	tel, err := Init(cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, tel)

	assert.NotNil(t, tel.traces, "trace provider should be set when enabled")
	assert.NotNil(t, tel.meters, "meter provider should be set when enabled")

	// Global providers should be the SDK types (not noop)
	_, tpIsSDK := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	_, mpIsSDK := otel.GetMeterProvider().(*sdkmetric.MeterProvider)
	assert.True(t, tpIsSDK, "global TracerProvider should be *sdktrace.TracerProvider")
	assert.True(t, mpIsSDK, "global MeterProvider should be *sdkmetric.MeterProvider")

	// Cleanup: shutdown to release resources (short timeout — no collector running)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()
		_ = tel.Shutdown(ctx)
	})
}

func TestTracer(t *testing.T) {
	// Tracer works before any Init: it resolves via the global provider, so
	// spans are noop but never nil.
	tr := Tracer()
	require.NotNil(t, tr)

	_, span := tr.Start(context.Background(), "test.span")
	assert.NotPanics(t, func() { span.End() })
}

func TestShutdown_Nil(t *testing.T) {
	// A nil *Telemetry must not panic on Shutdown.
	var tel *Telemetry
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestShutdown_Disabled(t *testing.T) {
	saveAndRestoreGlobalProviders(t)
	logger := zaptest.NewLogger(t)

	tel, err := Init(config.TelemetryConfig{Enabled: false}, logger)
	require.NoError(t, err)

	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestShutdown_Real(t *testing.T) {
	saveAndRestoreGlobalProviders(t)
	logger := zaptest.NewLogger(t)

	cfg := config.TelemetryConfig{
		Enabled:      true,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "colloquy-shutdown-test",
		SampleRate:   1.0,
	}

	tel, err := Init(cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, tel.traces)
	require.NotNil(t, tel.meters)

	// Shutdown completes without panic. The exporter may return a
	// connection-refused error because no OTLP collector is running,
	// which is expected in a test environment — we only verify it
	// doesn't panic and finishes within the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	assert.NotPanics(t, func() {
		_ = tel.Shutdown(ctx)
	})
}

func TestBuildVersion(t *testing.T) {
	v := buildVersion()
	assert.NotEmpty(t, v, "buildVersion should return a non-empty string")
	// In test binaries, debug.ReadBuildInfo typically returns "(devel)",
	// so buildVersion falls back to "dev".
	assert.Equal(t, "dev", v)
}
