package cart

import (
	apperrors "github.com/xiebiao/poscart/pkg/errors"
)

// 购物车领域错误定义
var (
	// ErrLineNotFound 购物车行不存在
	ErrLineNotFound = apperrors.New(apperrors.ErrCodeLineNotFound, "购物车行不存在")

	// ErrInvalidQuantity 数量不合法
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidQuantity, "数量不合法")
)
