package telemetry

import (
	"context"
	"testing"

	"github.com/phrazzld/balance-proxy/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInit_DisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), config.TelemetryConfig{Enabled: false}, "test", nil)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_RequiresServiceName(t *testing.T) {
	_, err := Init(context.Background(), config.TelemetryConfig{Enabled: true}, "test", nil)
	assert.Error(t, err)
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		raw          string
		wantEndpoint string
		wantInsecure bool
	}{
		{raw: "", wantEndpoint: "127.0.0.1:4318", wantInsecure: true},
		{raw: "http://collector:4318", wantEndpoint: "collector:4318", wantInsecure: true},
		{raw: "https://otlp.example.com", wantEndpoint: "otlp.example.com", wantInsecure: false},
		{raw: "collector:4318", wantEndpoint: "collector:4318", wantInsecure: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			endpoint, insecure, err := parseEndpoint(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantEndpoint, endpoint)
			assert.Equal(t, tt.wantInsecure, insecure)
		})
	}
}

func TestParseEndpoint_MissingHost(t *testing.T) {
	_, _, err := parseEndpoint("http://")
	assert.Error(t, err)
}

func TestNewTracerProvider_EmitsSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()

	tp, err := newTracerProvider(exp, "balance-proxy", "v0")
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "balance.get")
	span.End()

	require.NoError(t, tp.ForceFlush(context.Background()))
	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "balance.get", spans[0].Name)

	found := false
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == attribute.Key("service.name") {
			found = kv.Value.AsString() == "balance-proxy"
		}
	}
	assert.True(t, found, "resource carries service.name")

	require.NoError(t, tp.Shutdown(context.Background()))
}
