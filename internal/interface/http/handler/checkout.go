package handler

import (
	"github.com/gin-gonic/gin"

	appcheckout "github.com/xiebiao/poscart/internal/application/checkout"
	"github.com/xiebiao/poscart/internal/interface/http/dto"
	"github.com/xiebiao/poscart/internal/interface/http/middleware"
	"github.com/xiebiao/poscart/pkg/response"
)

// CheckoutHandler 结算HTTP处理器
type CheckoutHandler struct {
	quoteUseCase       *appcheckout.QuoteUseCase
	applyPromoUseCase  *appcheckout.ApplyPromoUseCase
	removePromoUseCase *appcheckout.RemovePromoUseCase
}

// NewCheckoutHandler 创建结算处理器
func NewCheckoutHandler(
	quoteUseCase *appcheckout.QuoteUseCase,
	applyPromoUseCase *appcheckout.ApplyPromoUseCase,
	removePromoUseCase *appcheckout.RemovePromoUseCase,
) *CheckoutHandler {
	return &CheckoutHandler{
		quoteUseCase:       quoteUseCase,
		applyPromoUseCase:  applyPromoUseCase,
		removePromoUseCase: removePromoUseCase,
	}
}

// Quote 结算金额
// @Summary      结算金额
// @Description  计算小计、折扣(优惠码与满件自动折扣取较大者)、税额和应收
// @Tags         结算
// @Produce      json
// @Param        X-Session-Token header string true "会话标识"
// @Success      200 {object} response.Response{data=appcheckout.QuoteResponse}
// @Router       /api/v1/cart/quote [get]
func (h *CheckoutHandler) Quote(c *gin.Context) {
	result, err := h.quoteUseCase.Execute(c.Request.Context(), middleware.MustGetSessionToken(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithNotices(c, result, result.Notices)
}

// ApplyPromo 应用优惠码
// @Summary      应用优惠码
// @Description  向促销服务校验优惠码;服务不可用时暂存,下次结算自动重试
// @Tags         结算
// @Accept       json
// @Produce      json
// @Param        X-Session-Token header string true "会话标识"
// @Param        request body dto.ApplyPromoRequest true "优惠码"
// @Success      200 {object} response.Response{data=appcheckout.QuoteResponse}
// @Router       /api/v1/cart/promo [post]
func (h *CheckoutHandler) ApplyPromo(c *gin.Context) {
	// 1. 参数绑定与验证
	var req dto.ApplyPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	// 2. 调用应用层用例
	result, err := h.applyPromoUseCase.Execute(c.Request.Context(), appcheckout.ApplyPromoRequest{
		Token: middleware.MustGetSessionToken(c),
		Code:  req.Code,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithNotices(c, result, result.Notices)
}

// RemovePromo 移除优惠码
// @Summary      移除优惠码
// @Tags         结算
// @Produce      json
// @Param        X-Session-Token header string true "会话标识"
// @Success      200 {object} response.Response{data=appcheckout.QuoteResponse}
// @Router       /api/v1/cart/promo [delete]
func (h *CheckoutHandler) RemovePromo(c *gin.Context) {
	result, err := h.removePromoUseCase.Execute(c.Request.Context(), middleware.MustGetSessionToken(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithNotices(c, result, result.Notices)
}
