// Package metrics Prometheus监控指标
//
// 指标分三类:
// 1. HTTP层: 请求数、耗时、并发数
// 2. 业务层: 购物车操作、价格表切换、折扣决策、库存更新、目录兜底
// 3. 基础设施: 远程调用、熔断器、Saga、消息消费
//
// 所有指标注册到默认Registry,由/metrics端点暴露。
// 记录函数内部会先调用InitMetrics,业务代码和测试不需要关心初始化顺序。
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "poscart"

var (
	once sync.Once

	// ========== HTTP ==========

	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
	HTTPRequestsInProgress prometheus.Gauge

	// ========== 业务 ==========

	// ActiveSessions 当前活跃的终端会话数
	ActiveSessions prometheus.Gauge

	// CatalogEntries 各会话目录条目数(最近一次加载)
	CatalogEntries prometheus.Gauge

	// CatalogFallbacksTotal 远程失败后使用本地兜底数据的次数
	CatalogFallbacksTotal *prometheus.CounterVec

	// CartOperationsTotal 购物车操作次数(op: add/merge/update/remove/clear/ignored_sold_out)
	CartOperationsTotal *prometheus.CounterVec

	// PriceListSwitchesTotal 价格表切换(result: success/failure)
	PriceListSwitchesTotal *prometheus.CounterVec

	// DiscountDecisionsTotal 折扣决策来源(source: none/auto/promo)
	DiscountDecisionsTotal *prometheus.CounterVec

	// PromoValidationsTotal 优惠码校验(result: valid/invalid/error)
	PromoValidationsTotal *prometheus.CounterVec

	// StockUpdatesTotal 库存更新(source: push/poll)
	StockUpdatesTotal *prometheus.CounterVec

	// ========== 基础设施 ==========

	RemoteCallsTotal    *prometheus.CounterVec
	RemoteCallDuration  *prometheus.HistogramVec
	CircuitBreakerState *prometheus.GaugeVec

	SagaExecutionsTotal    *prometheus.CounterVec
	SagaExecutionDuration  prometheus.Histogram
	SagaCompensationsTotal prometheus.Counter

	MessagesConsumedTotal     *prometheus.CounterVec
	MessageProcessingDuration prometheus.Histogram
)

// InitMetrics 初始化所有指标(幂等)
func InitMetrics() {
	once.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP请求耗时(秒)",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_progress",
		Help:      "正在处理的HTTP请求数",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "活跃终端会话数",
	})

	CatalogEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "catalog_entries",
		Help:      "最近一次加载的目录条目数",
	})

	CatalogFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_fallbacks_total",
			Help:      "远程失败后使用本地缓存的次数",
		},
		[]string{"resource"}, // catalog / price_lists / variants / options
	)

	CartOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_operations_total",
			Help:      "购物车操作次数",
		},
		[]string{"op"},
	)

	PriceListSwitchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_list_switches_total",
			Help:      "价格表切换次数",
		},
		[]string{"result"},
	)

	DiscountDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_decisions_total",
			Help:      "折扣决策次数(按来源)",
		},
		[]string{"source"},
	)

	PromoValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_validations_total",
			Help:      "优惠码校验次数",
		},
		[]string{"result"},
	)

	StockUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_updates_total",
			Help:      "库存更新次数",
		},
		[]string{"source"},
	)

	RemoteCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_calls_total",
			Help:      "远程服务调用次数",
		},
		[]string{"method", "result"}, // result: success/failure/rejected
	)

	RemoteCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_call_duration_seconds",
			Help:      "远程服务调用耗时(秒)",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "熔断器状态(0=CLOSED, 1=OPEN, 2=HALF_OPEN)",
		},
		[]string{"name"},
	)

	SagaExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saga_executions_total",
			Help:      "Saga执行次数",
		},
		[]string{"saga", "result"},
	)

	SagaExecutionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "saga_execution_duration_seconds",
		Help:      "Saga执行耗时(秒)",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 10, 30},
	})

	SagaCompensationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "saga_compensations_total",
		Help:      "Saga补偿执行次数",
	})

	MessagesConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "消息消费次数",
		},
		[]string{"queue", "result"},
	)

	MessageProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "message_processing_duration_seconds",
		Help:      "消息处理耗时(秒)",
		Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
	})
}

// ========== 记录函数 ==========

// ObserveHTTPRequest 记录一次HTTP请求
func ObserveHTTPRequest(method, path, status string, elapsed time.Duration) {
	InitMetrics()
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObserveRemoteCall 记录一次远程调用
func ObserveRemoteCall(method, result string, elapsed time.Duration) {
	InitMetrics()
	RemoteCallsTotal.WithLabelValues(method, result).Inc()
	RemoteCallDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// SetCircuitBreakerState 更新熔断器状态
func SetCircuitBreakerState(name string, state int) {
	InitMetrics()
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// IncCartOperation 购物车操作计数
func IncCartOperation(op string) {
	InitMetrics()
	CartOperationsTotal.WithLabelValues(op).Inc()
}

// IncFallback 兜底计数
func IncFallback(resource string) {
	InitMetrics()
	CatalogFallbacksTotal.WithLabelValues(resource).Inc()
}

// IncPriceListSwitch 价格表切换计数
func IncPriceListSwitch(result string) {
	InitMetrics()
	PriceListSwitchesTotal.WithLabelValues(result).Inc()
}

// IncDiscountDecision 折扣决策计数
func IncDiscountDecision(source string) {
	InitMetrics()
	DiscountDecisionsTotal.WithLabelValues(source).Inc()
}

// IncPromoValidation 优惠码校验计数
func IncPromoValidation(result string) {
	InitMetrics()
	PromoValidationsTotal.WithLabelValues(result).Inc()
}

// IncStockUpdate 库存更新计数
func IncStockUpdate(source string, n int) {
	InitMetrics()
	StockUpdatesTotal.WithLabelValues(source).Add(float64(n))
}

// SetCatalogEntries 目录条目数
func SetCatalogEntries(n int) {
	InitMetrics()
	CatalogEntries.Set(float64(n))
}

// SetActiveSessions 活跃会话数
func SetActiveSessions(n int) {
	InitMetrics()
	ActiveSessions.Set(float64(n))
}

// ObserveSaga 记录一次Saga执行
func ObserveSaga(name string, err error, elapsed time.Duration) {
	InitMetrics()
	result := "success"
	if err != nil {
		result = "failure"
	}
	SagaExecutionsTotal.WithLabelValues(name, result).Inc()
	SagaExecutionDuration.Observe(elapsed.Seconds())
}

// IncSagaCompensation Saga补偿计数
func IncSagaCompensation() {
	InitMetrics()
	SagaCompensationsTotal.Inc()
}

// ObserveMessage 记录一次消息消费
func ObserveMessage(queue string, err error, elapsed time.Duration) {
	InitMetrics()
	result := "success"
	if err != nil {
		result = "failure"
	}
	MessagesConsumedTotal.WithLabelValues(queue, result).Inc()
	MessageProcessingDuration.Observe(elapsed.Seconds())
}
