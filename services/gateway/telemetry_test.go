package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracer_InstallsGlobalProvider(t *testing.T) {
	tp, err := initTracer(context.Background(), Config{OTLPEndpoint: "localhost:4317", OTLPInsecure: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	assert.Same(t, tp, otel.GetTracerProvider())
}

func TestInitTracer_DefaultsEmptyEndpoint(t *testing.T) {
	tp, err := initTracer(context.Background(), Config{OTLPInsecure: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
}
