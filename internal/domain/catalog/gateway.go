package catalog

import (
	"context"
)

// Gateway 远程目录服务接口
// 设计说明:
// 1. 由domain层定义接口,infrastructure/backend实现(HTTP JSON)
// 2. 用例只依赖接口,测试时使用内存fake,不需要真实后端
type Gateway interface {
	// ListItemsWithStock 拉取目录(模板、变体、独立商品)及库存
	// priceList为空时不返回价格表专属价
	ListItemsWithStock(ctx context.Context, warehouse, priceList string, limit int) ([]*Entry, error)

	// ListVariantsForTemplate 拉取模板的全部变体及其规格属性
	ListVariantsForTemplate(ctx context.Context, templateID, priceList string) (*VariantSet, error)
}

// VariantSet 模板变体查询结果
type VariantSet struct {
	Variants   []*Entry
	Attributes []Attribute
}

// Attribute 变体规格属性(如 尺寸: 大/中/小)
type Attribute struct {
	Name   string
	Values []string
}

// CacheRepository 目录本地缓存(远程失败时的兜底数据)
// 按 仓库+价格表 维度整体保存与读取
type CacheRepository interface {
	// Replace 整体替换该维度下的缓存(事务内先删后插)
	Replace(ctx context.Context, warehouse, priceList string, entries []*Entry) error

	// Load 读取缓存,没有数据时返回空切片
	Load(ctx context.Context, warehouse, priceList string) ([]*Entry, error)
}
