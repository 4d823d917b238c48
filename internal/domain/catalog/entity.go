package catalog

import (
	"github.com/shopspring/decimal"
)

// Entry 目录条目(独立商品、模板商品或规格变体)
// 设计说明:
// 1. ItemCode是稳定主键,整个会话内不变
// 2. 上游记录对"模板-变体"关系使用的字段并不统一,
//    VariantOf/TemplateItemCode/ParentItem都可能指向模板,索引时全部视为别名
// 3. 价格基线(Baseline)在首次解析时捕获一次,之后只更新派生字段StandardRate
// 4. StockQty为nil表示没有库存数据(不能据此判定售罄)
type Entry struct {
	ItemCode  string
	ItemName  string
	ItemGroup string
	Image     string
	UOM       string

	HasVariants      bool
	VariantOf        string // 变体指向模板
	TemplateItemCode string // 部分记录使用的模板编码别名
	ParentItem       string // 部分记录使用的父商品字段

	// 目录服务返回的原始价格字段(加载时写入,不再修改)
	Rate            decimal.Decimal     // 出厂价(未调整)
	PriceListRate   decimal.NullDecimal // 价格表专属价(若有)
	HasExplicitRate bool                // 目录服务标记该价格来自价格表专属查询

	Baseline     Baseline
	StandardRate decimal.Decimal // 当前价格表下的派生价格
	DisplayRate  decimal.Decimal // 目录网格展示价(模板取最低变体价)

	StockQty *float64
	Shortage bool
	SoldOut  bool // 库存评估结果缓存

	KitchenStation string // 出品路由(厨房/吧台)
}

// Baseline 价格基线
// 业务规则:基线只从原始字段捕获,绝不从已调整过的StandardRate反推
// (反推会导致价格表调整被重复叠加)
type Baseline struct {
	Captured     bool
	DefaultRate  decimal.Decimal
	ExplicitRate decimal.NullDecimal
}

// IsTemplate 是否为模板商品(本身不可直接下单)
func (e *Entry) IsTemplate() bool {
	return e.HasVariants
}

// IsVariant 是否为规格变体
func (e *Entry) IsVariant() bool {
	return e.TemplateRef() != ""
}

// TemplateRef 返回变体指向的模板标识(按字段优先级取第一个非空值)
func (e *Entry) TemplateRef() string {
	switch {
	case e.VariantOf != "":
		return e.VariantOf
	case e.TemplateItemCode != "":
		return e.TemplateItemCode
	default:
		return e.ParentItem
	}
}

// Label 展示名称
func (e *Entry) Label() string {
	if e.ItemName != "" {
		return e.ItemName
	}
	return e.ItemCode
}

// SetStock 更新库存数据(库存推送/定时刷新)
func (e *Entry) SetStock(qty *float64, shortage bool) {
	if qty != nil {
		v := *qty
		qty = &v
	}
	e.StockQty = qty
	e.Shortage = shortage
}

// Clone 深拷贝(价格表切换失败时用于回滚)
func (e *Entry) Clone() *Entry {
	cp := *e
	if e.StockQty != nil {
		v := *e.StockQty
		cp.StockQty = &v
	}
	return &cp
}

// Qty 便于构造测试数据与远程记录转换
func Qty(v float64) *float64 {
	return &v
}
