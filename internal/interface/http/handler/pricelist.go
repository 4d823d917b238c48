package handler

import (
	"github.com/gin-gonic/gin"

	apppricelist "github.com/xiebiao/poscart/internal/application/pricelist"
	"github.com/xiebiao/poscart/internal/interface/http/dto"
	"github.com/xiebiao/poscart/internal/interface/http/middleware"
	"github.com/xiebiao/poscart/pkg/response"
)

// PriceListHandler 价格表HTTP处理器
type PriceListHandler struct {
	listPriceListsUseCase  *apppricelist.ListPriceListsUseCase
	switchPriceListUseCase *apppricelist.SwitchPriceListUseCase
}

// NewPriceListHandler 创建价格表处理器
func NewPriceListHandler(
	listPriceListsUseCase *apppricelist.ListPriceListsUseCase,
	switchPriceListUseCase *apppricelist.SwitchPriceListUseCase,
) *PriceListHandler {
	return &PriceListHandler{
		listPriceListsUseCase:  listPriceListsUseCase,
		switchPriceListUseCase: switchPriceListUseCase,
	}
}

// ListPriceLists 可用价格表
// @Summary      价格表列表
// @Tags         价格表
// @Produce      json
// @Param        X-Session-Token header string true "会话标识"
// @Success      200 {object} response.Response{data=apppricelist.ListPriceListsResponse}
// @Router       /api/v1/price-lists [get]
func (h *PriceListHandler) ListPriceLists(c *gin.Context) {
	result, err := h.listPriceListsUseCase.Execute(c.Request.Context(), middleware.MustGetSessionToken(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithNotices(c, result, result.Notices)
}

// SwitchPriceList 切换价格表
// @Summary      切换价格表
// @Description  重新拉取目标价格表下的目录并重算购物车单价,任一步失败整体回滚
// @Tags         价格表
// @Accept       json
// @Produce      json
// @Param        X-Session-Token header string true "会话标识"
// @Param        request body dto.SwitchPriceListRequest true "目标价格表"
// @Success      200 {object} response.Response{data=apppricelist.ListPriceListsResponse}
// @Failure      200 {object} response.Response "40403价格表不存在 / 40004切换失败"
// @Router       /api/v1/price-lists/active [put]
func (h *PriceListHandler) SwitchPriceList(c *gin.Context) {
	// 1. 参数绑定与验证
	var req dto.SwitchPriceListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	// 2. 调用应用层用例
	result, err := h.switchPriceListUseCase.Execute(c.Request.Context(), apppricelist.SwitchPriceListRequest{
		Token: middleware.MustGetSessionToken(c),
		Name:  req.Name,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithNotices(c, result, result.Notices)
}
