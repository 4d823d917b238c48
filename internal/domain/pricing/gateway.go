package pricing

import (
	"context"
)

// Gateway 远程定价服务接口
type Gateway interface {
	// ListAllowedPriceLists 查询终端配置允许使用的价格表
	ListAllowedPriceLists(ctx context.Context, posProfile string) (*PriceListSet, error)
}

// OptionsGateway 远程规格服务接口
type OptionsGateway interface {
	// GetItemOptions 查询商品的规格分组与可选项
	GetItemOptions(ctx context.Context, itemCode string) (*ItemOptions, error)
}

// PriceListRepository 价格表本地缓存(远程失败时兜底)
type PriceListRepository interface {
	Save(ctx context.Context, posProfile string, set *PriceListSet) error
	Load(ctx context.Context, posProfile string) (*PriceListSet, error)
}
