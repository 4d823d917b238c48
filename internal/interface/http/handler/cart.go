package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appcart "github.com/xiebiao/poscart/internal/application/cart"
	"github.com/xiebiao/poscart/internal/interface/http/dto"
	"github.com/xiebiao/poscart/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/poscart/pkg/errors"
	"github.com/xiebiao/poscart/pkg/response"
)

// CartHandler 购物车HTTP处理器
type CartHandler struct {
	getCartUseCase    *appcart.GetCartUseCase
	addToCartUseCase  *appcart.AddToCartUseCase
	updateLineUseCase *appcart.UpdateLineUseCase
	removeLineUseCase *appcart.RemoveLineUseCase
	clearCartUseCase  *appcart.ClearCartUseCase
}

// NewCartHandler 创建购物车处理器
func NewCartHandler(
	getCartUseCase *appcart.GetCartUseCase,
	addToCartUseCase *appcart.AddToCartUseCase,
	updateLineUseCase *appcart.UpdateLineUseCase,
	removeLineUseCase *appcart.RemoveLineUseCase,
	clearCartUseCase *appcart.ClearCartUseCase,
) *CartHandler {
	return &CartHandler{
		getCartUseCase:    getCartUseCase,
		addToCartUseCase:  addToCartUseCase,
		updateLineUseCase: updateLineUseCase,
		removeLineUseCase: removeLineUseCase,
		clearCartUseCase:  clearCartUseCase,
	}
}

// GetCart 查询购物车
// @Summary      购物车
// @Tags         购物车
// @Produce      json
// @Param        X-Session-Token header string true "会话标识"
// @Success      200 {object} response.Response{data=appcart.CartView}
// @Router       /api/v1/cart [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	result, err := h.getCartUseCase.Execute(c.Request.Context(), middleware.MustGetSessionToken(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// AddLine 加购
// @Summary      加购
// @Description  按商品编码和规格选项加购,同商品同规格同备注的行合并数量;售罄商品直接忽略(added=false)
// @Tags         购物车
// @Accept       json
// @Produce      json
// @Param        X-Session-Token header string true "会话标识"
// @Param        request body dto.AddLineRequest true "加购信息"
// @Success      200 {object} response.Response{data=appcart.AddToCartResponse}
// @Failure      200 {object} response.Response "40401商品不存在 / 40002需选择规格 / 40902必选规格未选择"
// @Router       /api/v1/cart/lines [post]
func (h *CartHandler) AddLine(c *gin.Context) {
	// 1. 参数绑定与验证
	var req dto.AddLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	// 2. 调用应用层用例
	result, err := h.addToCartUseCase.Execute(c.Request.Context(), appcart.AddToCartRequest{
		Token:    middleware.MustGetSessionToken(c),
		ItemCode: req.ItemCode,
		Options:  req.Options,
		Notes:    req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithNotices(c, result, result.Notices)
}

// UpdateLine 修改购物车行
// @Summary      改行
// @Description  设置数量(qty)或增减数量(delta),数量减到0时删除该行;可同时修改备注
// @Tags         购物车
// @Accept       json
// @Produce      json
// @Param        X-Session-Token header string true "会话标识"
// @Param        index path int true "行号(从0开始)"
// @Param        request body dto.UpdateLineRequest true "修改内容"
// @Success      200 {object} response.Response{data=appcart.UpdateLineResponse}
// @Failure      200 {object} response.Response "40402行不存在 / 40904数量不合法"
// @Router       /api/v1/cart/lines/{index} [patch]
func (h *CartHandler) UpdateLine(c *gin.Context) {
	// 1. 参数绑定与验证
	index, ok := lineIndexParam(c)
	if !ok {
		return
	}
	var req dto.UpdateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	// 2. 调用应用层用例
	result, err := h.updateLineUseCase.Execute(c.Request.Context(), appcart.UpdateLineRequest{
		Token: middleware.MustGetSessionToken(c),
		Index: index,
		Qty:   req.Qty,
		Delta: req.Delta,
		Notes: req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// RemoveLine 删除购物车行
// @Summary      删行
// @Tags         购物车
// @Produce      json
// @Param        X-Session-Token header string true "会话标识"
// @Param        index path int true "行号(从0开始)"
// @Success      200 {object} response.Response{data=appcart.CartView}
// @Failure      200 {object} response.Response "40402行不存在"
// @Router       /api/v1/cart/lines/{index} [delete]
func (h *CartHandler) RemoveLine(c *gin.Context) {
	index, ok := lineIndexParam(c)
	if !ok {
		return
	}
	result, err := h.removeLineUseCase.Execute(c.Request.Context(), middleware.MustGetSessionToken(c), index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ClearCart 清空购物车
// @Summary      清空购物车
// @Description  删除全部行,同时清除优惠码
// @Tags         购物车
// @Produce      json
// @Param        X-Session-Token header string true "会话标识"
// @Success      200 {object} response.Response{data=appcart.CartView}
// @Router       /api/v1/cart [delete]
func (h *CartHandler) ClearCart(c *gin.Context) {
	result, err := h.clearCartUseCase.Execute(c.Request.Context(), middleware.MustGetSessionToken(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// lineIndexParam 解析路径中的行号,失败时直接写错误响应
func lineIndexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		response.Error(c, apperrors.ErrInvalidParams.WithField("index"))
		return 0, false
	}
	return index, true
}
