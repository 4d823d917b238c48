package catalog

// IsSoldOut 判断条目当前是否不可下单
// 业务规则:
// 1. 独立商品/变体: Shortage为true,或库存是已知数值且<=0,判定售罄
//    库存为nil(无数据)视为可售,不能在没有数据的情况下拦截下单
// 2. 模板商品(有已缓存变体):
//    - 任一非缺货变体库存>0 → 可售
//    - 所有非缺货变体库存均已知且<=0 → 售罄
//    - 其余情况(信号混杂/不确定) → 可售
// 3. 模板尚未缓存变体时视为可售
//    模板行的库存通常记在变体上,自身的actual_qty=0不代表售罄
func IsSoldOut(e *Entry, variants []*Entry) bool {
	if e == nil {
		return false
	}
	if e.IsTemplate() {
		if len(variants) == 0 {
			return false
		}
		return templateSoldOut(variants)
	}
	return entrySoldOut(e)
}

func entrySoldOut(e *Entry) bool {
	if e.Shortage {
		return true
	}
	return e.StockQty != nil && *e.StockQty <= 0
}

func templateSoldOut(variants []*Entry) bool {
	for _, v := range variants {
		if v.Shortage {
			continue
		}
		// 缺少库存数据的变体: 不确定,不能判定售罄
		if v.StockQty == nil {
			return false
		}
		if *v.StockQty > 0 {
			return false
		}
	}
	return true
}

// IsSoldOut 按索引中已缓存的变体判断
func (idx *Index) IsSoldOut(e *Entry) bool {
	if e == nil {
		return false
	}
	if e.IsTemplate() {
		return IsSoldOut(e, idx.VariantsFor(e))
	}
	return IsSoldOut(e, nil)
}

// RefreshAvailability 重新计算全部条目的售罄标记
// 先算变体再算模板(模板依赖变体结果)
func (idx *Index) RefreshAvailability() {
	for _, e := range idx.Entries() {
		if !e.IsTemplate() {
			e.SoldOut = idx.IsSoldOut(e)
		}
	}
	for _, e := range idx.Entries() {
		if e.IsTemplate() {
			e.SoldOut = idx.IsSoldOut(e)
		}
	}
}

// StockUpdate 单个商品的库存变化(定时刷新或消息推送)
type StockUpdate struct {
	ItemCode string
	Qty      *float64
	Shortage bool
}

// ApplyStockUpdate 应用库存变化
// 步骤:
// 1. 更新条目自身的库存与售罄标记
// 2. 若条目是变体,同时刷新所属模板的汇总结果
// 返回受影响的条目编码;未知商品返回nil
func (idx *Index) ApplyStockUpdate(u StockUpdate) []string {
	e := idx.Get(u.ItemCode)
	if e == nil {
		return nil
	}

	e.SetStock(u.Qty, u.Shortage)
	e.SoldOut = idx.IsSoldOut(e)
	touched := []string{e.ItemCode}

	if e.IsVariant() {
		if t := idx.TemplateOf(e); t != nil {
			t.SoldOut = idx.IsSoldOut(t)
			touched = append(touched, t.ItemCode)
		}
	}
	return touched
}
