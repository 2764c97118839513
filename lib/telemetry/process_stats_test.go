package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestInstrumentProcessStats(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	previous := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	defer otel.SetMeterProvider(previous)

	registration, err := InstrumentProcessStats()
	if err != nil {
		t.Fatal(err)
	}
	defer registration.Unregister()

	var out metricdata.ResourceMetrics
	err = reader.Collect(context.Background(), &out)
	if err != nil {
		t.Fatal(err)
	}

	names := map[string]bool{}
	for _, scope := range out.ScopeMetrics {
		for _, m := range scope.Metrics {
			names[m.Name] = true
		}
	}
	require.True(t, names["process.memory.rss"])
	require.True(t, names["process.cpu.percent"])
}
