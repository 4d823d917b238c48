package cart

import (
	"context"

	"github.com/xiebiao/poscart/internal/application/session"
	"github.com/xiebiao/poscart/internal/domain/cart"
	apperrors "github.com/xiebiao/poscart/pkg/errors"
	"github.com/xiebiao/poscart/pkg/metrics"
)

// UpdateLineUseCase 修改购物车行(数量、增减、备注)
type UpdateLineUseCase struct {
	sessions *session.Manager
}

// NewUpdateLineUseCase 创建改行用例
func NewUpdateLineUseCase(sessions *session.Manager) *UpdateLineUseCase {
	return &UpdateLineUseCase{sessions: sessions}
}

// UpdateLineRequest 改行请求
// Qty与Delta同时提供时以Qty为准;Notes为nil表示不修改备注
type UpdateLineRequest struct {
	Token string
	Index int
	Qty   *int
	Delta int
	Notes *string
}

// UpdateLineResponse 改行响应
// Removed为true表示数量减到0,该行已删除
type UpdateLineResponse struct {
	Removed bool      `json:"removed"`
	Line    *LineView `json:"line,omitempty"`
	Cart    CartView  `json:"cart"`
}

// Execute 执行改行
// 先改备注再改数量,行被删除时备注修改一并丢弃
func (uc *UpdateLineUseCase) Execute(ctx context.Context, req UpdateLineRequest) (*UpdateLineResponse, error) {
	if req.Qty == nil && req.Delta == 0 && req.Notes == nil {
		return nil, apperrors.ErrInvalidParams
	}

	var resp *UpdateLineResponse
	err := uc.sessions.With(ctx, req.Token, func(st *session.State) error {
		var (
			line *cart.Line
			err  error
		)
		if req.Notes != nil {
			if line, err = st.Ledger.SetNotes(req.Index, *req.Notes); err != nil {
				return err
			}
			metrics.IncCartOperation("notes")
		}

		switch {
		case req.Qty != nil:
			line, err = st.Ledger.SetQuantity(req.Index, *req.Qty)
			metrics.IncCartOperation("set_qty")
		case req.Delta != 0:
			line, err = st.Ledger.ChangeQuantity(req.Index, req.Delta)
			metrics.IncCartOperation("change_qty")
		}
		if err != nil {
			return err
		}

		resp = &UpdateLineResponse{Removed: line == nil}
		if line != nil {
			view := NewLineView(req.Index, line)
			resp.Line = &view
		}
		resp.Cart = NewCartView(st)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
