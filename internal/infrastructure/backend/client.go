// Package backend 远程ERP服务(目录/定价/规格/促销)的HTTP JSON客户端
//
// 所有接口都是 POST {base_url}/api/method/{method},请求体为JSON,
// 成功响应包在 {"message": ...} 里;失败时返回非2xx和 {"exc_type","message"}。
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xiebiao/poscart/internal/infrastructure/config"
	"github.com/xiebiao/poscart/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/poscart/pkg/errors"
	"github.com/xiebiao/poscart/pkg/metrics"
	"github.com/xiebiao/poscart/pkg/tracing"
)

const tracerName = "backend"

// 远程方法名
const (
	methodListItems     = "poscart.api.list_items_with_stock"
	methodListVariants  = "poscart.api.list_variants_for_template"
	methodPriceLists    = "poscart.api.list_allowed_price_lists"
	methodItemOptions   = "poscart.api.get_item_options"
	methodValidatePromo = "poscart.api.validate_promo_code"
)

// maxErrorBody 错误响应最多读取的字节数
const maxErrorBody = 4 << 10

// Client 远程服务客户端
// 设计说明:
// 1. 同一个客户端实现 catalog.Gateway / pricing.Gateway / pricing.OptionsGateway / discount.PromoValidator
// 2. 所有调用共用一个熔断器,后端整体不可用时快速失败,调用方走本地兜底
// 3. 每次调用带独立超时,并把trace上下文注入请求头
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewClient 创建远程服务客户端
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	bc := cfg.Backend
	breaker := circuitbreaker.NewCircuitBreaker("backend", circuitbreaker.Config{
		MaxRequests:      1,
		Interval:         bc.BreakerInterval,
		Timeout:          bc.BreakerOpenTimeout,
		FailureThreshold: bc.BreakerFailures,
		IsSuccessful:     isSuccessful,
	})
	breaker.SetStateChangeCallback(func(name string, from, to circuitbreaker.State) {
		metrics.SetCircuitBreakerState(name, int(to))
		logger.Warn("circuit breaker state changed",
			zap.String("name", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	})

	return &Client{
		baseURL:    strings.TrimRight(bc.BaseURL, "/"),
		apiKey:     bc.APIKey,
		apiSecret:  bc.APISecret,
		timeout:    bc.Timeout,
		httpClient: &http.Client{},
		breaker:    breaker,
		logger:     logger,
	}
}

// isSuccessful 4xx业务拒绝说明后端是健康的,不计入熔断
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	var se *statusError
	return errors.As(err, &se) && se.status >= 400 && se.status < 500
}

// statusError 非2xx响应
type statusError struct {
	status  int
	excType string
	message string
}

func (e *statusError) Error() string {
	if e.excType != "" {
		return fmt.Sprintf("backend status %d (%s): %s", e.status, e.excType, e.message)
	}
	return fmt.Sprintf("backend status %d: %s", e.status, e.message)
}

// envelope 响应外层结构
type envelope struct {
	Message json.RawMessage `json:"message"`
	ExcType string          `json:"exc_type"`
}

// call 执行一次远程调用并把message解码到out
// 步骤:
// 1. 创建span,设置超时
// 2. 经熔断器发送请求
// 3. 记录指标,把错误转换成AppError
func (c *Client) call(ctx context.Context, method string, payload, out interface{}) error {
	ctx, span := tracing.StartSpan(ctx, tracerName, method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("rpc.method", method)),
	)
	defer span.End()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	err := c.breaker.ExecuteContext(ctx, func(ctx context.Context) error {
		return c.do(ctx, method, payload, out)
	})
	metrics.ObserveRemoteCall(method, callResult(err), time.Since(start))

	if err != nil {
		tracing.RecordError(span, err)
		c.logger.Warn("backend call failed",
			zap.String("method", method),
			zap.String("trace_id", tracing.ExtractTraceID(ctx)),
			zap.Error(err),
		)
		return translate(err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/method/"+method, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "token "+c.apiKey+":"+c.apiSecret)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		se := &statusError{status: resp.StatusCode, message: strings.TrimSpace(string(raw))}
		var env envelope
		if json.Unmarshal(raw, &env) == nil {
			se.excType = env.ExcType
			var msg string
			if json.Unmarshal(env.Message, &msg) == nil && msg != "" {
				se.message = msg
			}
		}
		return se
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if out == nil || len(env.Message) == 0 || string(env.Message) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Message, out); err != nil {
		return fmt.Errorf("decode %s message: %w", method, err)
	}
	return nil
}

func callResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, circuitbreaker.ErrOpenState), errors.Is(err, circuitbreaker.ErrTooManyRequests):
		return "rejected"
	default:
		return "error"
	}
}

// translate 转换为AppError(已经是AppError的保持不变)
func translate(err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, circuitbreaker.ErrOpenState) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		return apperrors.ErrRemoteOpen.WithErr(err)
	}
	return apperrors.ErrRemoteError.WithErr(err)
}
