package checkout

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appcart "github.com/xiebiao/poscart/internal/application/cart"
	"github.com/xiebiao/poscart/internal/application/session"
	"github.com/xiebiao/poscart/internal/domain/discount"
	"github.com/xiebiao/poscart/pkg/metrics"
)

// 优惠码状态提示(随结算结果返回,不阻塞结算)
const (
	PromoStatusApplied   = "优惠码已应用"
	PromoStatusInvalid   = "优惠码无效或已过期"
	PromoStatusPending   = "购物车为空,加购后自动校验优惠码"
	PromoStatusUnchecked = "优惠码暂时无法校验,稍后自动重试"
)

// Calculator 结算计算
// 设计说明:
// 1. 优惠码校验结果绑定购物车标识,购物车变化后在下一次结算前自动重新校验
// 2. 校验失败(无效或远程不可用)一律按"无优惠码"结算,只更新状态提示
// 3. 折扣仲裁是纯函数,每次结算重新计算,不缓存结果
type Calculator struct {
	validator discount.PromoValidator
	arbiter   *discount.Arbiter
	taxRate   decimal.Decimal
	logger    *zap.Logger
}

// NewCalculator 创建结算计算器
func NewCalculator(validator discount.PromoValidator, arbiter *discount.Arbiter, taxRate decimal.Decimal, logger *zap.Logger) *Calculator {
	return &Calculator{
		validator: validator,
		arbiter:   arbiter,
		taxRate:   taxRate,
		logger:    logger,
	}
}

// Validate 按当前购物车校验优惠码,结果写入会话
// 购物车为空时不调用远程,优惠码保留为待校验
func (c *Calculator) Validate(ctx context.Context, st *session.State, code string) {
	code = discount.NormalizeCode(code)
	st.Promo = nil
	st.PendingPromo = code
	if code == "" {
		st.PromoStatus = ""
		return
	}
	if st.Ledger.IsEmpty() {
		st.PromoStatus = PromoStatusPending
		return
	}

	result, err := c.validator.ValidatePromoCode(ctx, promoRequest(st, code))
	switch {
	case err == nil:
		result.Fingerprint = st.Ledger.Fingerprint()
		st.Promo = result
		st.PendingPromo = ""
		st.PromoStatus = PromoStatusApplied
		metrics.IncPromoValidation("valid")
	case errors.Is(err, discount.ErrPromoInvalid):
		st.PendingPromo = ""
		st.PromoStatus = PromoStatusInvalid
		metrics.IncPromoValidation("invalid")
	default:
		st.PromoStatus = PromoStatusUnchecked
		metrics.IncPromoValidation("error")
		c.logger.Warn("validate promo code failed",
			zap.String("token", st.Token),
			zap.String("code", code),
			zap.Error(err),
		)
	}
}

// Revalidate 优惠码过期或待校验时重新校验
func (c *Calculator) Revalidate(ctx context.Context, st *session.State) {
	switch {
	case st.Promo != nil && st.Promo.IsStale(st.Ledger.Fingerprint()):
		c.Validate(ctx, st, st.Promo.Code)
	case st.Promo == nil && st.PendingPromo != "" && !st.Ledger.IsEmpty():
		c.Validate(ctx, st, st.PendingPromo)
	}
}

// Quote 计算结算金额
func (c *Calculator) Quote(st *session.State) *QuoteResponse {
	dec := c.arbiter.Evaluate(discount.Summary{
		Subtotal: st.Ledger.Subtotal(),
		TotalQty: st.Ledger.TotalQty(),
	}, c.taxRate, st.Promo)
	metrics.IncDiscountDecision(string(dec.Source))

	return &QuoteResponse{
		Cart: appcart.NewCartView(st),
		Discount: DiscountView{
			Source:      string(dec.Source),
			Amount:      dec.Amount,
			Percent:     dec.Percent,
			Label:       dec.Label,
			Description: dec.Description,
		},
		Subtotal:    dec.Subtotal,
		TaxRate:     c.taxRate,
		Tax:         dec.Tax,
		Gross:       dec.Gross,
		Total:       dec.Total,
		PromoCode:   st.PromoCode(),
		PromoStatus: st.PromoStatus,
		Notices:     st.DrainNotices(),
	}
}

func promoRequest(st *session.State, code string) discount.PromoRequest {
	lines := st.Ledger.Lines()
	req := discount.PromoRequest{
		Code:      code,
		PriceList: st.PriceList.Name,
		Subtotal:  st.Ledger.Subtotal(),
		TotalQty:  st.Ledger.TotalQty(),
		Items:     make([]discount.PromoItem, 0, len(lines)),
	}
	for _, line := range lines {
		req.Items = append(req.Items, discount.PromoItem{
			ItemCode: line.ItemCode,
			Qty:      line.Qty,
			Amount:   line.Amount,
		})
	}
	return req
}
