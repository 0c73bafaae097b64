package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpan_RecordsNameAndError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := StartSpan(context.Background(), "summons.gather.weather", attribute.String("category", "weather"))
	EndSpan(span, errors.New("geocoding failed"))

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "summons.gather.weather", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.String("category", "weather"))
}

func TestNewTracerProvider_RequiresEndpoint(t *testing.T) {
	_, err := NewTracerProvider(TracingOptions{ServiceName: "x"})
	assert.Error(t, err)
}

func TestNew_RecordsWithoutPanicking(t *testing.T) {
	o := New("summons-test", nil)
	ctx := context.Background()
	o.RecordJobProcessed(ctx, "summons-assist", "completed")
	o.RecordRun(ctx, "DONE", "")
	o.Shutdown()
}
