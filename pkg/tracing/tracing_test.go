package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// useRecorder 安装内存exporter,测试结束后恢复
func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func TestInitTracer_Disabled(t *testing.T) {
	shutdown, err := InitTracer(Config{Enabled: false, ServiceName: "poscart"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

// TestStartSpan_ParentChild 子span继承父span的TraceID
func TestStartSpan_ParentChild(t *testing.T) {
	rec := useRecorder(t)

	ctx, parent := StartSpan(context.Background(), "http", "PUT /price-lists/active")
	childCtx, child := StartSpan(ctx, "pricelist", "SwitchPriceList")
	assert.Equal(t, ExtractTraceID(ctx), ExtractTraceID(childCtx))
	child.End()
	parent.End()

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "SwitchPriceList", spans[0].Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
}

func TestRecordError(t *testing.T) {
	rec := useRecorder(t)

	_, span := StartSpan(context.Background(), "backend", "ListItemsWithStock")
	RecordError(span, nil)
	RecordError(span, errors.New("timeout"))
	span.End()

	got := rec.Ended()[0]
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Equal(t, "timeout", got.Status().Description)
}

func TestExtractTraceID_NoSpan(t *testing.T) {
	assert.Equal(t, "", ExtractTraceID(context.Background()))
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(0).Description())
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}
