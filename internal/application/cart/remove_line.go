package cart

import (
	"context"

	"github.com/xiebiao/poscart/internal/application/session"
	"github.com/xiebiao/poscart/pkg/metrics"
)

// RemoveLineUseCase 删除购物车行
type RemoveLineUseCase struct {
	sessions *session.Manager
}

// NewRemoveLineUseCase 创建删行用例
func NewRemoveLineUseCase(sessions *session.Manager) *RemoveLineUseCase {
	return &RemoveLineUseCase{sessions: sessions}
}

// Execute 执行删行
func (uc *RemoveLineUseCase) Execute(ctx context.Context, token string, index int) (*CartView, error) {
	var view CartView
	err := uc.sessions.With(ctx, token, func(st *session.State) error {
		if err := st.Ledger.RemoveLine(index); err != nil {
			return err
		}
		metrics.IncCartOperation("remove")
		view = NewCartView(st)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// ClearCartUseCase 清空购物车
// 已应用的优惠码一并清除(空购物车没有可校验的金额)
type ClearCartUseCase struct {
	sessions *session.Manager
}

// NewClearCartUseCase 创建清空用例
func NewClearCartUseCase(sessions *session.Manager) *ClearCartUseCase {
	return &ClearCartUseCase{sessions: sessions}
}

// Execute 执行清空
func (uc *ClearCartUseCase) Execute(ctx context.Context, token string) (*CartView, error) {
	var view CartView
	err := uc.sessions.With(ctx, token, func(st *session.State) error {
		st.Ledger.Clear()
		st.Promo = nil
		st.PendingPromo = ""
		st.PromoStatus = ""
		metrics.IncCartOperation("clear")
		view = NewCartView(st)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// GetCartUseCase 查询购物车
type GetCartUseCase struct {
	sessions *session.Manager
}

// NewGetCartUseCase 创建购物车查询用例
func NewGetCartUseCase(sessions *session.Manager) *GetCartUseCase {
	return &GetCartUseCase{sessions: sessions}
}

// Execute 执行查询
func (uc *GetCartUseCase) Execute(ctx context.Context, token string) (*CartView, error) {
	var view CartView
	err := uc.sessions.With(ctx, token, func(st *session.State) error {
		view = NewCartView(st)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}
