package discount

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind 优惠码类型
type Kind string

const (
	KindPercent Kind = "percent" // 按比例
	KindFixed   Kind = "fixed"   // 固定金额
)

// PromoResult 优惠码校验结果
// Fingerprint记录校验时的购物车标识,购物车内容变化后结果视为过期,需要重新校验
type PromoResult struct {
	Code        string          `json:"code"`
	Kind        Kind            `json:"kind"`
	Magnitude   decimal.Decimal `json:"magnitude"`
	Label       string          `json:"label,omitempty"`
	Description string          `json:"description,omitempty"`
	Fingerprint string          `json:"fingerprint,omitempty"`
}

// IsStale 购物车标识变化后校验结果过期
func (p *PromoResult) IsStale(fingerprint string) bool {
	return p != nil && p.Fingerprint != fingerprint
}

// NormalizeCode 优惠码规范化(去空白、转大写)
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// PromoItem 校验请求中的购物车行
type PromoItem struct {
	ItemCode string          `json:"item_code"`
	Qty      int             `json:"qty"`
	Amount   decimal.Decimal `json:"amount"`
}

// PromoRequest 优惠码校验请求
type PromoRequest struct {
	Code      string          `json:"code"`
	PriceList string          `json:"price_list,omitempty"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	TotalQty  int             `json:"total_qty"`
	Items     []PromoItem     `json:"items"`
}

// PromoValidator 远程优惠码校验服务
// 码无效/过期返回ErrPromoInvalid;远程失败返回其他错误
// 调用方两种情况都按"无优惠码"处理,不阻塞结算
type PromoValidator interface {
	ValidatePromoCode(ctx context.Context, req PromoRequest) (*PromoResult, error)
}
