package dto

// OpenSessionRequest HTTP开启会话请求
// PriceList为空时使用POS配置的默认价格表
type OpenSessionRequest struct {
	PriceList string `json:"price_list" binding:"max=140" example:"Member"`
}

// AddLineRequest HTTP加购请求
// Options按分组名提交选项值,单选和必选分组只能提交一个值,提交多个返回40903
type AddLineRequest struct {
	ItemCode string              `json:"item_code" binding:"required,max=140" example:"TEA"`
	Options  map[string][]string `json:"options"`
	Notes    string              `json:"notes" binding:"max=500" example:"少冰"`
}

// UpdateLineRequest HTTP改行请求
// qty与delta同时提供时以qty为准,notes为null表示不修改备注
type UpdateLineRequest struct {
	Qty   *int    `json:"qty" binding:"omitempty,min=0,max=9999" example:"3"`
	Delta int     `json:"delta" binding:"min=-9999,max=9999" example:"-1"`
	Notes *string `json:"notes" binding:"omitempty,max=500" example:"去葱"`
}

// ApplyPromoRequest HTTP应用优惠码请求
type ApplyPromoRequest struct {
	Code string `json:"code" binding:"required,max=64" example:"HEMAT10"`
}

// SwitchPriceListRequest HTTP切换价格表请求
type SwitchPriceListRequest struct {
	Name string `json:"name" binding:"required,max=140" example:"Member"`
}

// CatalogQuery 目录查询参数
type CatalogQuery struct {
	Group  string `form:"group" example:"Drinks"`
	Search string `form:"search" example:"tea"`
}
