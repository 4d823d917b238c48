package cart

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/poscart/internal/application/session"
	"github.com/xiebiao/poscart/internal/domain/cart"
)

// ChoiceView 已选规格项
type ChoiceView struct {
	Group           string          `json:"group"`
	Value           string          `json:"value"`
	Label           string          `json:"label,omitempty"`
	AdditionalPrice decimal.Decimal `json:"additional_price"`
}

// LineView 购物车行
type LineView struct {
	Index          int             `json:"index"`
	ID             string          `json:"id"`
	ItemCode       string          `json:"item_code"`
	ItemName       string          `json:"item_name"`
	Qty            int             `json:"qty"`
	BaseRate       decimal.Decimal `json:"base_rate"`
	ExtraRate      decimal.Decimal `json:"extra_rate"`
	Rate           decimal.Decimal `json:"rate"`
	Amount         decimal.Decimal `json:"amount"`
	Notes          string          `json:"notes"`
	Options        []ChoiceView    `json:"options"`
	KitchenStation string          `json:"kitchen_station,omitempty"`
}

// CartView 购物车
type CartView struct {
	PriceList string          `json:"price_list"`
	PromoCode string          `json:"promo_code,omitempty"`
	Lines     []LineView      `json:"lines"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	TotalQty  int             `json:"total_qty"`
}

// NewLineView 行 → 视图
// 规格项按分组名、选项值排序输出
func NewLineView(index int, line *cart.Line) LineView {
	v := LineView{
		Index:          index,
		ID:             line.ID.String(),
		ItemCode:       line.ItemCode,
		ItemName:       line.ItemName,
		Qty:            line.Qty,
		BaseRate:       line.BaseRate,
		ExtraRate:      line.ExtraRate,
		Rate:           line.Rate,
		Amount:         line.Amount,
		Notes:          line.Notes,
		Options:        make([]ChoiceView, 0),
		KitchenStation: line.KitchenStation,
	}
	for _, name := range sortedGroups(line) {
		for _, c := range line.Options[name] {
			v.Options = append(v.Options, ChoiceView{
				Group:           name,
				Value:           c.Value,
				Label:           c.Label,
				AdditionalPrice: c.AdditionalPrice,
			})
		}
	}
	return v
}

// NewCartView 会话 → 购物车视图
func NewCartView(st *session.State) CartView {
	lines := st.Ledger.Lines()
	v := CartView{
		PriceList: st.PriceList.Name,
		PromoCode: st.PromoCode(),
		Lines:     make([]LineView, 0, len(lines)),
		Subtotal:  st.Ledger.Subtotal(),
		TotalQty:  st.Ledger.TotalQty(),
	}
	for i, line := range lines {
		v.Lines = append(v.Lines, NewLineView(i, line))
	}
	return v
}

func sortedGroups(line *cart.Line) []string {
	names := make([]string, 0, len(line.Options))
	for name := range line.Options {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
