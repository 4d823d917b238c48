package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/xiebiao/poscart/internal/domain/catalog"
)

// CaptureBaseline 捕获价格基线(每个条目只捕获一次)
// 业务规则:
// 1. DefaultRate取目录服务下发的原始Rate
// 2. 仅当目录标记了专属价(HasExplicitRate)且确实带了价格表价时才记录ExplicitRate
// 3. 已捕获的基线不再改写,StandardRate是派生值,绝不回写基线
func CaptureBaseline(e *catalog.Entry) {
	if e == nil || e.Baseline.Captured {
		return
	}
	e.Baseline = catalog.Baseline{
		Captured:    true,
		DefaultRate: e.Rate,
	}
	if e.HasExplicitRate && e.PriceListRate.Valid {
		e.Baseline.ExplicitRate = e.PriceListRate
	}
}

// ResolveBaseRate 解析基础价
// 规则(严格按顺序):
// 1. 有专属价 → 原样返回(价格表调整不作用于专属价)
// 2. 否则 → DefaultRate + adjustment,结果小于0时取0
// 纯函数:相同输入永远得到相同结果,不修改任何字段(首次调用时捕获基线除外)
func ResolveBaseRate(e *catalog.Entry, adjustment decimal.Decimal) decimal.Decimal {
	if e == nil {
		return decimal.Zero
	}
	CaptureBaseline(e)

	if e.Baseline.ExplicitRate.Valid {
		return e.Baseline.ExplicitRate.Decimal
	}

	rate := e.Baseline.DefaultRate.Add(adjustment)
	if rate.IsNegative() {
		return decimal.Zero
	}
	return rate
}

// ApplyPriceList 按调整值更新条目的StandardRate并返回
func ApplyPriceList(e *catalog.Entry, adjustment decimal.Decimal) decimal.Decimal {
	rate := ResolveBaseRate(e, adjustment)
	if e != nil {
		e.StandardRate = rate
	}
	return rate
}

// ResolveDisplayRate 模板在目录网格中的展示价
// 取已缓存变体中最低的正价;没有正价时取全部变体最低价;没有变体时为0
// 变体价格取其StandardRate,调用前应先对变体执行ApplyPriceList
func ResolveDisplayRate(variants []*catalog.Entry) decimal.Decimal {
	if len(variants) == 0 {
		return decimal.Zero
	}

	var (
		minPositive decimal.Decimal
		hasPositive bool
		minAll      = variants[0].StandardRate
	)
	for _, v := range variants {
		r := v.StandardRate
		if r.LessThan(minAll) {
			minAll = r
		}
		if r.IsPositive() && (!hasPositive || r.LessThan(minPositive)) {
			minPositive = r
			hasPositive = true
		}
	}

	if hasPositive {
		return minPositive
	}
	return minAll
}

// ResolveOptionExtra 规格加价合计(多选分组的每一项都计入)
func ResolveOptionExtra(opts SelectedOptions) decimal.Decimal {
	total := decimal.Zero
	for _, choices := range opts {
		for _, c := range choices {
			if c.AdditionalPrice.IsPositive() {
				total = total.Add(c.AdditionalPrice)
			}
		}
	}
	return total
}

// LineRate 行单价拆分(基础价+规格加价)
// 购物车保存拆分后的两个值,改数量时按拆分值重算,避免精度漂移
type LineRate struct {
	Base  decimal.Decimal
	Extra decimal.Decimal
}

// Rate 合计单价
func (r LineRate) Rate() decimal.Decimal {
	return r.Base.Add(r.Extra)
}

// ResolveLineRate 加购时的行单价
func ResolveLineRate(e *catalog.Entry, adjustment decimal.Decimal, opts SelectedOptions) LineRate {
	return LineRate{
		Base:  ResolveBaseRate(e, adjustment),
		Extra: ResolveOptionExtra(opts),
	}
}

// Resolver 绑定了当前价格表调整值的解析器
// 购物车通过它取价,自身不计算价格
type Resolver struct {
	Adjustment decimal.Decimal
}

// NewResolver 按价格表创建解析器
func NewResolver(pl PriceList) Resolver {
	return Resolver{Adjustment: pl.Adjustment}
}

// LineRate 实现cart.Pricer
func (r Resolver) LineRate(e *catalog.Entry, opts SelectedOptions) LineRate {
	return ResolveLineRate(e, r.Adjustment, opts)
}

// Reprice 按调整值重新解析整个目录
// 步骤:
// 1. 非模板条目(含变体): StandardRate=解析价,DisplayRate同值
// 2. 模板条目: 有缓存变体时展示价取变体最低价,否则取自身解析价
// 只改派生字段,基线保持不变,因此价格表来回切换结果完全一致
func Reprice(idx *catalog.Index, adjustment decimal.Decimal) {
	if idx == nil {
		return
	}

	for _, e := range idx.Entries() {
		if e.IsTemplate() {
			continue
		}
		e.DisplayRate = ApplyPriceList(e, adjustment)
	}

	for _, e := range idx.Entries() {
		if !e.IsTemplate() {
			continue
		}
		ApplyPriceList(e, adjustment)
		if variants := idx.VariantsFor(e); len(variants) > 0 {
			e.DisplayRate = ResolveDisplayRate(variants)
		} else {
			e.DisplayRate = e.StandardRate
		}
	}
}
