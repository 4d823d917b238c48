package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInitMetrics 重复初始化不会重复注册(重复注册promauto会panic)
func TestInitMetrics(t *testing.T) {
	assert.NotPanics(t, func() {
		InitMetrics()
		InitMetrics()
	})
	assert.NotNil(t, HTTPRequestsTotal)
	assert.NotNil(t, CartOperationsTotal)
	assert.NotNil(t, RemoteCallDuration)
}

func TestIncCartOperation(t *testing.T) {
	before := counterValue(t, cartOps("add"))

	IncCartOperation("add")
	IncCartOperation("add")
	IncCartOperation("remove")

	assert.Equal(t, before+2, counterValue(t, cartOps("add")))
}

func TestObserveRemoteCall(t *testing.T) {
	InitMetrics()
	before := histogramCount(t, RemoteCallDuration.WithLabelValues("list_items").(prometheus.Histogram))

	ObserveRemoteCall("list_items", "success", 120*time.Millisecond)
	ObserveRemoteCall("list_items", "failure", 2*time.Second)

	assert.Equal(t, before+2, histogramCount(t, RemoteCallDuration.WithLabelValues("list_items").(prometheus.Histogram)))
	assert.Equal(t, 1.0, counterValue(t, RemoteCallsTotal.WithLabelValues("list_items", "failure")))
}

func TestGauges(t *testing.T) {
	SetActiveSessions(3)
	SetCatalogEntries(120)
	SetCircuitBreakerState("backend", 1)

	assert.Equal(t, 3.0, gaugeValue(t, ActiveSessions))
	assert.Equal(t, 120.0, gaugeValue(t, CatalogEntries))
	assert.Equal(t, 1.0, gaugeValue(t, CircuitBreakerState.WithLabelValues("backend")))
}

func TestObserveSagaAndMessage(t *testing.T) {
	ObserveSaga("switch_price_list", nil, time.Second)
	ObserveSaga("switch_price_list", errors.New("boom"), time.Second)
	ObserveMessage("poscart.stock", nil, time.Millisecond)

	assert.Equal(t, 1.0, counterValue(t, SagaExecutionsTotal.WithLabelValues("switch_price_list", "failure")))
	assert.Equal(t, 1.0, counterValue(t, MessagesConsumedTotal.WithLabelValues("poscart.stock", "success")))
}

// cartOps 按op取计数器
func cartOps(op string) prometheus.Counter {
	InitMetrics()
	return CartOperationsTotal.WithLabelValues(op)
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	var m dto.Metric
	require.NoError(t, c.Write(&m), "读取Counter失败")
	return m.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	var m dto.Metric
	require.NoError(t, g.Write(&m), "读取Gauge失败")
	return m.Gauge.GetValue()
}

func histogramCount(t *testing.T, h prometheus.Histogram) uint64 {
	var m dto.Metric
	require.NoError(t, h.Write(&m), "读取Histogram失败")
	return m.Histogram.GetSampleCount()
}
