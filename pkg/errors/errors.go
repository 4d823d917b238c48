package errors

import (
	"errors"
	"fmt"
)

// AppError 自定义应用错误
// 设计说明：
// 1. Code用于终端判断错误类型（不直接暴露HTTP状态码）
// 2. Message是可以直接展示给收银员/顾客的提示
// 3. Field用于字段级校验错误（如必选规格未选择），为空表示非字段错误
// 4. Err是内部错误，仅记录到日志，不返回给客户端
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较
// 预定义错误经过WithField/WithErr派生后仍然能被errors.Is识别
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// WithField 派生一个带字段名的错误（不修改预定义错误本身）
func (e *AppError) WithField(field string) *AppError {
	cp := *e
	cp.Field = field
	return &cp
}

// WithErr 派生一个携带内部错误的副本
func (e *AppError) WithErr(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装系统错误（如数据库错误、远程调用错误）
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// Wrapf 格式化包装错误
func Wrapf(err error, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// =========================================
// 错误码定义
// =========================================
// 规范：
// - 4xxxx: 客户端错误（参数错误、业务规则校验失败）
// - 5xxxx: 服务端错误（缓存、数据库、远程服务异常）

const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal      = 50000 // 内部错误
	ErrCodeDatabaseError = 50001 // 数据库错误
	ErrCodeRedisError    = 50002 // Redis错误
	ErrCodeRemoteError   = 50003 // 远程服务（目录/价格/促销）调用失败
	ErrCodeRemoteOpen    = 50004 // 远程服务熔断中

	// 会话错误（40100-40199）
	ErrCodeSessionRequired = 40100 // 缺少会话标识
	ErrCodeSessionNotFound = 40101 // 会话不存在或已过期

	// 资源错误（40400-40499）
	ErrCodeNotFound          = 40400 // 资源不存在(通用)
	ErrCodeItemNotFound      = 40401 // 商品不存在
	ErrCodeLineNotFound      = 40402 // 购物车行不存在
	ErrCodePriceListNotFound = 40403 // 价格表不存在

	// 业务规则错误（40000-40099）
	ErrCodeBusinessError = 40000 // 业务错误(通用)
	ErrCodeSoldOut       = 40001 // 已售罄
	ErrCodeTemplateItem  = 40002 // 模板商品需先选择规格
	ErrCodePromoInvalid  = 40003 // 优惠码无效或已过期
	ErrCodeSwitchFailed  = 40004 // 价格表切换失败(已回滚)

	// 参数错误（40900-40999）
	ErrCodeInvalidParams   = 40900 // 参数错误
	ErrCodeBindError       = 40901 // 参数绑定失败
	ErrCodeOptionRequired  = 40902 // 必选规格未选择
	ErrCodeOptionInvalid   = 40903 // 规格选项不合法
	ErrCodeInvalidQuantity = 40904 // 数量不合法
)

// =========================================
// 预定义错误（避免每次都New）
// =========================================

var (
	// 系统错误
	ErrInternal      = New(ErrCodeInternal, "系统内部错误")
	ErrDatabaseError = New(ErrCodeDatabaseError, "数据库错误")
	ErrRedisError    = New(ErrCodeRedisError, "缓存服务错误")
	ErrRemoteError   = New(ErrCodeRemoteError, "远程服务暂不可用")
	ErrRemoteOpen    = New(ErrCodeRemoteOpen, "远程服务熔断中，请稍后重试")

	// 会话
	ErrSessionRequired = New(ErrCodeSessionRequired, "缺少会话标识")
	ErrSessionNotFound = New(ErrCodeSessionNotFound, "会话不存在或已过期")

	// 参数错误
	ErrInvalidParams = New(ErrCodeInvalidParams, "参数错误")
	ErrBindError     = New(ErrCodeBindError, "参数格式错误")
)

// =========================================
// 辅助函数
// =========================================

// IsAppError 判断是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "系统内部错误")
}

// HasCode 判断错误链中是否存在指定错误码
func HasCode(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
