package pricelist

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/poscart/internal/application/session"
)

// ListPriceListsUseCase 查询可用价格表
type ListPriceListsUseCase struct {
	sessions *session.Manager
	provider *Provider
}

// NewListPriceListsUseCase 创建价格表查询用例
func NewListPriceListsUseCase(sessions *session.Manager, provider *Provider) *ListPriceListsUseCase {
	return &ListPriceListsUseCase{sessions: sessions, provider: provider}
}

// PriceListView 价格表
type PriceListView struct {
	Name       string          `json:"name"`
	Label      string          `json:"label"`
	Currency   string          `json:"currency"`
	Adjustment decimal.Decimal `json:"adjustment"`
	Active     bool            `json:"active"`
}

// ListPriceListsResponse 价格表查询响应
type ListPriceListsResponse struct {
	Active     string          `json:"active"`
	Default    string          `json:"default"`
	PriceLists []PriceListView `json:"price_lists"`
	Notices    []string        `json:"-"`
}

// Execute 执行查询
func (uc *ListPriceListsUseCase) Execute(ctx context.Context, token string) (*ListPriceListsResponse, error) {
	var resp *ListPriceListsResponse
	err := uc.sessions.With(ctx, token, func(st *session.State) error {
		uc.provider.Ensure(ctx, st)
		resp = newListResponse(st)
		resp.Notices = st.DrainNotices()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func newListResponse(st *session.State) *ListPriceListsResponse {
	resp := &ListPriceListsResponse{
		Active:     st.PriceList.Name,
		PriceLists: make([]PriceListView, 0),
	}
	if st.PriceLists == nil {
		return resp
	}
	if def, ok := st.PriceLists.DefaultList(); ok {
		resp.Default = def.Name
	}
	for _, pl := range st.PriceLists.Lists {
		resp.PriceLists = append(resp.PriceLists, PriceListView{
			Name:       pl.Name,
			Label:      pl.DisplayLabel(),
			Currency:   pl.Currency,
			Adjustment: pl.Adjustment,
			Active:     pl.Name == st.PriceList.Name,
		})
	}
	return resp
}
