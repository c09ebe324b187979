package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/pfrederiksen/circle-catalog/internal/config"
)

func resetProvider(t *testing.T) {
	t.Helper()
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	otel.SetTracerProvider(noop.NewTracerProvider())
}

func TestInitTracing_Disabled(t *testing.T) {
	for _, exporter := range []string{"", "none"} {
		t.Run("exporter="+exporter, func(t *testing.T) {
			resetProvider(t)
			var buf bytes.Buffer

			shutdown, err := initTracing(context.Background(), config.TracingConfig{Exporter: exporter, ServiceName: "test"}, "dev", &buf)
			require.NoError(t, err)

			_, span := Tracer().Start(context.Background(), "stage")
			span.End()

			assert.NoError(t, shutdown(context.Background()))
			assert.Empty(t, buf.String())
		})
	}
}

func TestInitTracing_Stdout(t *testing.T) {
	resetProvider(t)
	var buf bytes.Buffer

	shutdown, err := initTracing(context.Background(), config.TracingConfig{
		Exporter:    "stdout",
		ServiceName: "circle-catalog-test",
		SampleRate:  1,
	}, "1.2.3", &buf)
	require.NoError(t, err)

	ctx, root := Tracer().Start(context.Background(), "run")
	_, child := Tracer().Start(ctx, "assemble")
	child.End()
	root.End()

	require.NoError(t, shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, `"Name": "assemble"`)
	assert.Contains(t, out, `"Name": "run"`)
	assert.Contains(t, out, "circle-catalog-test")
	assert.Contains(t, out, "1.2.3")
}

func TestInitTracing_NeverSample(t *testing.T) {
	resetProvider(t)
	var buf bytes.Buffer

	shutdown, err := initTracing(context.Background(), config.TracingConfig{
		Exporter:    "stdout",
		ServiceName: "test",
		SampleRate:  0,
	}, "dev", &buf)
	require.NoError(t, err)

	_, span := Tracer().Start(context.Background(), "run")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	assert.Empty(t, buf.String())
}

func TestInitTracing_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.TracingConfig
		wantErr string
	}{
		{"unknown exporter", config.TracingConfig{Exporter: "otlp", ServiceName: "x", SampleRate: 1}, "unsupported exporter"},
		{"bad sample rate", config.TracingConfig{Exporter: "stdout", ServiceName: "x", SampleRate: 2}, "invalid sample rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetProvider(t)
			_, err := initTracing(context.Background(), tt.cfg, "dev", &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
