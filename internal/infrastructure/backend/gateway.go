package backend

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/poscart/internal/domain/catalog"
	"github.com/xiebiao/poscart/internal/domain/discount"
	"github.com/xiebiao/poscart/internal/domain/pricing"
)

var (
	_ catalog.Gateway         = (*Client)(nil)
	_ pricing.Gateway         = (*Client)(nil)
	_ pricing.OptionsGateway  = (*Client)(nil)
	_ discount.PromoValidator = (*Client)(nil)
)

// ListItemsWithStock 拉取目录及库存
func (c *Client) ListItemsWithStock(ctx context.Context, warehouse, priceList string, limit int) ([]*catalog.Entry, error) {
	payload := map[string]interface{}{
		"warehouse": warehouse,
		"limit":     limit,
	}
	if priceList != "" {
		payload["price_list"] = priceList
	}

	var records []itemRecord
	if err := c.call(ctx, methodListItems, payload, &records); err != nil {
		return nil, err
	}
	return toEntries(records), nil
}

// ListVariantsForTemplate 拉取模板的变体
func (c *Client) ListVariantsForTemplate(ctx context.Context, templateID, priceList string) (*catalog.VariantSet, error) {
	payload := map[string]interface{}{"template": templateID}
	if priceList != "" {
		payload["price_list"] = priceList
	}

	var msg variantsMessage
	if err := c.call(ctx, methodListVariants, payload, &msg); err != nil {
		return nil, err
	}
	return msg.toVariantSet(), nil
}

// ListAllowedPriceLists 查询终端可用的价格表
func (c *Client) ListAllowedPriceLists(ctx context.Context, posProfile string) (*pricing.PriceListSet, error) {
	var msg priceListsMessage
	if err := c.call(ctx, methodPriceLists, map[string]string{"pos_profile": posProfile}, &msg); err != nil {
		return nil, err
	}
	return msg.toSet(), nil
}

// GetItemOptions 查询商品规格
func (c *Client) GetItemOptions(ctx context.Context, itemCode string) (*pricing.ItemOptions, error) {
	var msg optionsMessage
	if err := c.call(ctx, methodItemOptions, map[string]string{"item_code": itemCode}, &msg); err != nil {
		return nil, err
	}
	return msg.toItemOptions(itemCode), nil
}

// promoMessage 优惠码校验结果
type promoMessage struct {
	Valid        Flag                `json:"valid"`
	Code         string              `json:"code"`
	DiscountType string              `json:"discount_type"`
	Percent      decimal.NullDecimal `json:"percent"`
	Amount       decimal.NullDecimal `json:"amount"`
	Label        string              `json:"label"`
	Description  string              `json:"description"`
	Message      string              `json:"message"`
}

// ValidatePromoCode 校验优惠码
// 后端返回valid=false、类型未知或优惠值不为正时统一视为无效码
func (c *Client) ValidatePromoCode(ctx context.Context, req discount.PromoRequest) (*discount.PromoResult, error) {
	req.Code = discount.NormalizeCode(req.Code)
	if req.Code == "" {
		return nil, discount.ErrPromoEmpty
	}

	var msg promoMessage
	err := c.call(ctx, methodValidatePromo, req, &msg)
	if err != nil {
		return nil, err
	}
	if !msg.Valid {
		c.logger.Debug("promo code rejected",
			zap.String("code", req.Code),
			zap.String("reason", msg.Message),
		)
		return nil, discount.ErrPromoInvalid.WithField("promo_code")
	}

	result := &discount.PromoResult{
		Code:        discount.NormalizeCode(msg.Code),
		Label:       msg.Label,
		Description: msg.Description,
	}
	if result.Code == "" {
		result.Code = req.Code
	}

	switch strings.ToLower(msg.DiscountType) {
	case "percent", "percentage":
		result.Kind = discount.KindPercent
		result.Magnitude = msg.Percent.Decimal
	case "fixed", "amount", "fixed_amount":
		result.Kind = discount.KindFixed
		result.Magnitude = msg.Amount.Decimal
	default:
		return nil, discount.ErrPromoInvalid
	}
	if !result.Magnitude.IsPositive() {
		return nil, discount.ErrPromoInvalid
	}
	return result, nil
}
