package backend

import (
	"bytes"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/poscart/internal/domain/catalog"
	"github.com/xiebiao/poscart/internal/domain/pricing"
)

// Flag ERP布尔字段,可能是 true/false、0/1 或 "0"/"1"
// 其余数字按非零为真;目录接口和库存推送共用
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	switch s {
	case "", "null", "0", "false":
		*f = false
		return nil
	case "1", "true":
		*f = true
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = n != 0
	return nil
}

// itemRecord 目录记录
type itemRecord struct {
	ItemCode         string              `json:"item_code"`
	ItemName         string              `json:"item_name"`
	ItemGroup        string              `json:"item_group"`
	Image            string              `json:"image"`
	StockUOM         string              `json:"stock_uom"`
	HasVariants      Flag                `json:"has_variants"`
	VariantOf        string              `json:"variant_of"`
	TemplateItemCode string              `json:"template_item_code"`
	ParentItem       string              `json:"parent_item"`
	Rate             decimal.NullDecimal `json:"rate"`
	PriceListRate    decimal.NullDecimal `json:"price_list_rate"`
	HasExplicitRate  Flag                `json:"has_explicit_rate"`
	ActualQty        *float64            `json:"actual_qty"`
	IsStockShortage  Flag                `json:"is_stock_shortage"`
	KitchenStation   string              `json:"kitchen_station"`
}

func (r *itemRecord) toEntry() *catalog.Entry {
	e := &catalog.Entry{
		ItemCode:         r.ItemCode,
		ItemName:         r.ItemName,
		ItemGroup:        r.ItemGroup,
		Image:            r.Image,
		UOM:              r.StockUOM,
		HasVariants:      bool(r.HasVariants),
		VariantOf:        r.VariantOf,
		TemplateItemCode: r.TemplateItemCode,
		ParentItem:       r.ParentItem,
		HasExplicitRate:  bool(r.HasExplicitRate),
		Shortage:         bool(r.IsStockShortage),
		KitchenStation:   r.KitchenStation,
	}
	if r.Rate.Valid {
		e.Rate = r.Rate.Decimal
	}
	// 只有后端标记了专属价时price_list_rate才有意义
	if bool(r.HasExplicitRate) && r.PriceListRate.Valid {
		e.PriceListRate = r.PriceListRate
	}
	if r.ActualQty != nil {
		e.StockQty = catalog.Qty(*r.ActualQty)
	}
	return e
}

func toEntries(records []itemRecord) []*catalog.Entry {
	out := make([]*catalog.Entry, 0, len(records))
	for i := range records {
		if records[i].ItemCode == "" {
			continue
		}
		out = append(out, records[i].toEntry())
	}
	return out
}

// variantsMessage 变体查询结果
type variantsMessage struct {
	Variants   []itemRecord `json:"variants"`
	Attributes []struct {
		Attribute string   `json:"attribute"`
		Values    []string `json:"values"`
	} `json:"attributes"`
}

func (m *variantsMessage) toVariantSet() *catalog.VariantSet {
	set := &catalog.VariantSet{Variants: toEntries(m.Variants)}
	for _, a := range m.Attributes {
		set.Attributes = append(set.Attributes, catalog.Attribute{Name: a.Attribute, Values: a.Values})
	}
	return set
}

// priceListsMessage 价格表查询结果
type priceListsMessage struct {
	PriceLists []struct {
		Name       string              `json:"name"`
		Label      string              `json:"label"`
		Currency   string              `json:"currency"`
		Adjustment decimal.NullDecimal `json:"adjustment"`
	} `json:"price_lists"`
	DefaultPriceList string `json:"default_price_list"`
}

func (m *priceListsMessage) toSet() *pricing.PriceListSet {
	set := &pricing.PriceListSet{Default: m.DefaultPriceList}
	for _, pl := range m.PriceLists {
		if pl.Name == "" {
			continue
		}
		set.Lists = append(set.Lists, pricing.PriceList{
			Name:       pl.Name,
			Label:      pl.Label,
			Currency:   pl.Currency,
			Adjustment: pl.Adjustment.Decimal,
		})
	}
	return set
}

// optionsMessage 规格定义
type optionsMessage struct {
	ItemCode string `json:"item_code"`
	Groups   []struct {
		Name    string `json:"name"`
		Label   string `json:"label"`
		Type    string `json:"type"`
		Choices []struct {
			Value      string              `json:"value"`
			Label      string              `json:"label"`
			Price      decimal.NullDecimal `json:"price"`
			Default    Flag                `json:"default"`
			LinkedItem string              `json:"linked_item"`
		} `json:"choices"`
	} `json:"groups"`
}

func (m *optionsMessage) toItemOptions(itemCode string) *pricing.ItemOptions {
	opts := &pricing.ItemOptions{ItemCode: m.ItemCode}
	if opts.ItemCode == "" {
		opts.ItemCode = itemCode
	}
	for _, g := range m.Groups {
		if g.Name == "" {
			continue
		}
		group := pricing.OptionGroup{Name: g.Name, Label: g.Label, Kind: groupKind(g.Name, g.Type)}
		for _, c := range g.Choices {
			price := c.Price.Decimal
			if price.IsNegative() {
				price = decimal.Zero
			}
			group.Choices = append(group.Choices, pricing.OptionChoice{
				Value:           c.Value,
				Label:           c.Label,
				LinkedItem:      c.LinkedItem,
				AdditionalPrice: price,
				IsDefault:       bool(c.Default),
			})
		}
		opts.Groups = append(opts.Groups, group)
	}
	return opts
}

// groupKind 未声明类型时:加料为多选,其他为可选单选
func groupKind(name, typ string) pricing.GroupKind {
	switch pricing.GroupKind(typ) {
	case pricing.KindSingle, pricing.KindRequired, pricing.KindMulti:
		return pricing.GroupKind(typ)
	}
	if name == pricing.GroupTopping {
		return pricing.KindMulti
	}
	return pricing.KindSingle
}
