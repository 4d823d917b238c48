package checkout

import (
	"context"

	"github.com/shopspring/decimal"

	appcart "github.com/xiebiao/poscart/internal/application/cart"
	"github.com/xiebiao/poscart/internal/application/session"
	"github.com/xiebiao/poscart/pkg/tracing"
)

// DiscountView 折扣决策
type DiscountView struct {
	Source      string          `json:"source"`
	Amount      decimal.Decimal `json:"amount"`
	Percent     decimal.Decimal `json:"percent"`
	Label       string          `json:"label,omitempty"`
	Description string          `json:"description,omitempty"`
}

// QuoteResponse 结算金额
type QuoteResponse struct {
	Cart        appcart.CartView `json:"cart"`
	Discount    DiscountView     `json:"discount"`
	Subtotal    decimal.Decimal  `json:"subtotal"`
	TaxRate     decimal.Decimal  `json:"tax_rate"`
	Tax         decimal.Decimal  `json:"tax"`
	Gross       decimal.Decimal  `json:"gross"`
	Total       decimal.Decimal  `json:"total"`
	PromoCode   string           `json:"promo_code,omitempty"`
	PromoStatus string           `json:"promo_status,omitempty"`
	Notices     []string         `json:"-"`
}

// QuoteUseCase 查询结算金额
type QuoteUseCase struct {
	sessions   *session.Manager
	calculator *Calculator
}

// NewQuoteUseCase 创建结算查询用例
func NewQuoteUseCase(sessions *session.Manager, calculator *Calculator) *QuoteUseCase {
	return &QuoteUseCase{sessions: sessions, calculator: calculator}
}

// Execute 执行结算查询
// 1. 优惠码过期(购物车已变化)或待校验时先重新校验
// 2. 在自动折扣与优惠码之间仲裁
func (uc *QuoteUseCase) Execute(ctx context.Context, token string) (*QuoteResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "checkout", "Quote")
	defer span.End()

	var resp *QuoteResponse
	err := uc.sessions.With(ctx, token, func(st *session.State) error {
		uc.calculator.Revalidate(ctx, st)
		resp = uc.calculator.Quote(st)
		return nil
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return resp, nil
}
