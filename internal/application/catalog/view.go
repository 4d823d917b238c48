package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/xiebiao/poscart/internal/domain/catalog"
)

// ItemView 目录网格中的一项
type ItemView struct {
	ItemCode       string          `json:"item_code"`
	ItemName       string          `json:"item_name"`
	ItemGroup      string          `json:"item_group,omitempty"`
	Image          string          `json:"image,omitempty"`
	UOM            string          `json:"uom,omitempty"`
	Rate           decimal.Decimal `json:"rate"`
	HasVariants    bool            `json:"has_variants"`
	VariantOf      string          `json:"variant_of,omitempty"`
	SoldOut        bool            `json:"sold_out"`
	StockQty       *float64        `json:"stock_qty"`
	KitchenStation string          `json:"kitchen_station,omitempty"`
}

// NewItemView 条目 → 视图
func NewItemView(e *catalog.Entry) ItemView {
	return ItemView{
		ItemCode:       e.ItemCode,
		ItemName:       e.Label(),
		ItemGroup:      e.ItemGroup,
		Image:          e.Image,
		UOM:            e.UOM,
		Rate:           e.DisplayRate,
		HasVariants:    e.HasVariants,
		VariantOf:      e.TemplateRef(),
		SoldOut:        e.SoldOut,
		StockQty:       e.StockQty,
		KitchenStation: e.KitchenStation,
	}
}
