package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/poscart/pkg/errors"
	"github.com/xiebiao/poscart/pkg/response"
)

// HeaderSessionToken 会话标识头(开启会话时由服务端下发)
const HeaderSessionToken = "X-Session-Token"

const sessionTokenKey = "session_token"

// SessionRequired 会话中间件
// 流程:
// 1. 从请求头读取会话标识
// 2. 缺失时直接返回40100,不进入处理器
// 3. 写入Context供后续处理器读取
// 会话是否存在由应用层判断(可能需要从快照恢复)
func SessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(HeaderSessionToken))
		if token == "" {
			response.Error(c, apperrors.ErrSessionRequired)
			c.Abort()
			return
		}
		c.Set(sessionTokenKey, token)
		c.Next()
	}
}

// GetSessionToken 从Context获取会话标识
func GetSessionToken(c *gin.Context) (string, bool) {
	token, ok := c.Get(sessionTokenKey)
	if !ok {
		return "", false
	}
	s, ok := token.(string)
	return s, ok
}

// MustGetSessionToken 获取会话标识(必须在SessionRequired之后调用)
func MustGetSessionToken(c *gin.Context) string {
	token, ok := GetSessionToken(c)
	if !ok {
		panic("session token not found in context")
	}
	return token
}
