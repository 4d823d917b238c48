package handler

import (
	"github.com/gin-gonic/gin"

	appcatalog "github.com/xiebiao/poscart/internal/application/catalog"
	"github.com/xiebiao/poscart/internal/interface/http/dto"
	"github.com/xiebiao/poscart/internal/interface/http/middleware"
	"github.com/xiebiao/poscart/pkg/response"
)

// CatalogHandler 商品目录HTTP处理器
type CatalogHandler struct {
	listCatalogUseCase   *appcatalog.ListCatalogUseCase
	reloadCatalogUseCase *appcatalog.ReloadCatalogUseCase
	getVariantsUseCase   *appcatalog.GetVariantsUseCase
	getOptionsUseCase    *appcatalog.GetOptionsUseCase
}

// NewCatalogHandler 创建目录处理器
func NewCatalogHandler(
	listCatalogUseCase *appcatalog.ListCatalogUseCase,
	reloadCatalogUseCase *appcatalog.ReloadCatalogUseCase,
	getVariantsUseCase *appcatalog.GetVariantsUseCase,
	getOptionsUseCase *appcatalog.GetOptionsUseCase,
) *CatalogHandler {
	return &CatalogHandler{
		listCatalogUseCase:   listCatalogUseCase,
		reloadCatalogUseCase: reloadCatalogUseCase,
		getVariantsUseCase:   getVariantsUseCase,
		getOptionsUseCase:    getOptionsUseCase,
	}
}

// ListCatalog 商品目录
// @Summary      商品目录
// @Description  返回当前价格表下的目录网格(变体不单独展示,模板显示最低变体价)
// @Tags         目录
// @Produce      json
// @Param        X-Session-Token header string true "会话标识"
// @Param        group query string false "商品分组"
// @Param        search query string false "编码或名称关键字"
// @Success      200 {object} response.Response{data=appcatalog.ListCatalogResponse}
// @Router       /api/v1/catalog [get]
func (h *CatalogHandler) ListCatalog(c *gin.Context) {
	var query dto.CatalogQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.listCatalogUseCase.Execute(c.Request.Context(), appcatalog.ListCatalogRequest{
		Token:  middleware.MustGetSessionToken(c),
		Group:  query.Group,
		Search: query.Search,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithNotices(c, result, result.Notices)
}

// ReloadCatalog 重新加载目录
// @Summary      重载目录
// @Description  从目录服务重新拉取商品并重建索引,远程不可用时使用本地缓存
// @Tags         目录
// @Produce      json
// @Param        X-Session-Token header string true "会话标识"
// @Success      200 {object} response.Response{data=appcatalog.ReloadCatalogResponse}
// @Router       /api/v1/catalog/reload [post]
func (h *CatalogHandler) ReloadCatalog(c *gin.Context) {
	result, err := h.reloadCatalogUseCase.Execute(c.Request.Context(), middleware.MustGetSessionToken(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithNotices(c, result, result.Notices)
}

// GetVariants 模板变体
// @Summary      模板变体
// @Description  返回模板商品的全部规格变体及属性(首次查询时从目录服务拉取并缓存)
// @Tags         目录
// @Produce      json
// @Param        X-Session-Token header string true "会话标识"
// @Param        code path string true "模板编码或名称"
// @Success      200 {object} response.Response{data=appcatalog.GetVariantsResponse}
// @Failure      200 {object} response.Response "40401商品不存在"
// @Router       /api/v1/catalog/{code}/variants [get]
func (h *CatalogHandler) GetVariants(c *gin.Context) {
	result, err := h.getVariantsUseCase.Execute(c.Request.Context(), appcatalog.GetVariantsRequest{
		Token:    middleware.MustGetSessionToken(c),
		ItemCode: c.Param("code"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithNotices(c, result, result.Notices)
}

// GetOptions 商品规格选项
// @Summary      规格选项
// @Description  返回商品的规格分组、可选项及默认选择
// @Tags         目录
// @Produce      json
// @Param        X-Session-Token header string true "会话标识"
// @Param        code path string true "商品编码"
// @Success      200 {object} response.Response{data=appcatalog.GetOptionsResponse}
// @Failure      200 {object} response.Response "40401商品不存在"
// @Router       /api/v1/catalog/{code}/options [get]
func (h *CatalogHandler) GetOptions(c *gin.Context) {
	result, err := h.getOptionsUseCase.Execute(c.Request.Context(), appcatalog.GetOptionsRequest{
		Token:    middleware.MustGetSessionToken(c),
		ItemCode: c.Param("code"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithNotices(c, result, result.Notices)
}
