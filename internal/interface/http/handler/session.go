package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	appcart "github.com/xiebiao/poscart/internal/application/cart"
	"github.com/xiebiao/poscart/internal/interface/http/dto"
	"github.com/xiebiao/poscart/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/poscart/pkg/errors"
	"github.com/xiebiao/poscart/pkg/response"
)

// SessionHandler 收银会话HTTP处理器
type SessionHandler struct {
	openSessionUseCase *appcart.OpenSessionUseCase
	getSessionUseCase  *appcart.GetSessionUseCase
}

// NewSessionHandler 创建会话处理器
func NewSessionHandler(
	openSessionUseCase *appcart.OpenSessionUseCase,
	getSessionUseCase *appcart.GetSessionUseCase,
) *SessionHandler {
	return &SessionHandler{
		openSessionUseCase: openSessionUseCase,
		getSessionUseCase:  getSessionUseCase,
	}
}

// OpenSession 开启收银会话
// @Summary      开启会话
// @Description  创建新的收银会话,加载价格表和商品目录,返回会话标识
// @Tags         会话
// @Accept       json
// @Produce      json
// @Param        request body dto.OpenSessionRequest false "初始价格表"
// @Success      200 {object} response.Response{data=appcart.SessionResponse}
// @Failure      200 {object} response.Response "40403价格表不存在"
// @Router       /api/v1/sessions [post]
func (h *SessionHandler) OpenSession(c *gin.Context) {
	// 1. 参数绑定(请求体可以为空)
	var req dto.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(c, err)
		return
	}

	// 2. 调用应用层用例
	result, err := h.openSessionUseCase.Execute(c.Request.Context(), appcart.OpenSessionRequest{
		PriceList: req.PriceList,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	// 3. 回写会话标识头,终端后续请求携带
	c.Header(middleware.HeaderSessionToken, result.Token)
	response.SuccessWithNotices(c, result, result.Notices)
}

// GetSession 查询当前会话
// @Summary      当前会话
// @Description  按会话标识查询会话(进程重启后从快照恢复购物车)
// @Tags         会话
// @Produce      json
// @Param        X-Session-Token header string true "会话标识"
// @Success      200 {object} response.Response{data=appcart.SessionResponse}
// @Failure      200 {object} response.Response "40101会话不存在"
// @Router       /api/v1/sessions/current [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	result, err := h.getSessionUseCase.Execute(c.Request.Context(), middleware.MustGetSessionToken(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithNotices(c, result, result.Notices)
}

// bindError 参数绑定失败
func bindError(c *gin.Context, err error) {
	response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
}
