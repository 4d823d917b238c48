package checkout

import (
	"context"

	"github.com/xiebiao/poscart/internal/application/session"
	"github.com/xiebiao/poscart/internal/domain/discount"
)

// ApplyPromoUseCase 应用优惠码
// 无效码或远程失败都不返回错误,按无优惠码结算并在PromoStatus里提示
type ApplyPromoUseCase struct {
	sessions   *session.Manager
	calculator *Calculator
}

// NewApplyPromoUseCase 创建应用优惠码用例
func NewApplyPromoUseCase(sessions *session.Manager, calculator *Calculator) *ApplyPromoUseCase {
	return &ApplyPromoUseCase{sessions: sessions, calculator: calculator}
}

// ApplyPromoRequest 应用优惠码请求
type ApplyPromoRequest struct {
	Token string
	Code  string
}

// Execute 执行应用优惠码
func (uc *ApplyPromoUseCase) Execute(ctx context.Context, req ApplyPromoRequest) (*QuoteResponse, error) {
	code := discount.NormalizeCode(req.Code)
	if code == "" {
		return nil, discount.ErrPromoEmpty.WithField("code")
	}

	var resp *QuoteResponse
	err := uc.sessions.With(ctx, req.Token, func(st *session.State) error {
		uc.calculator.Validate(ctx, st, code)
		resp = uc.calculator.Quote(st)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// RemovePromoUseCase 移除优惠码
type RemovePromoUseCase struct {
	sessions   *session.Manager
	calculator *Calculator
}

// NewRemovePromoUseCase 创建移除优惠码用例
func NewRemovePromoUseCase(sessions *session.Manager, calculator *Calculator) *RemovePromoUseCase {
	return &RemovePromoUseCase{sessions: sessions, calculator: calculator}
}

// Execute 执行移除
func (uc *RemovePromoUseCase) Execute(ctx context.Context, token string) (*QuoteResponse, error) {
	var resp *QuoteResponse
	err := uc.sessions.With(ctx, token, func(st *session.State) error {
		st.Promo = nil
		st.PendingPromo = ""
		st.PromoStatus = ""
		resp = uc.calculator.Quote(st)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
