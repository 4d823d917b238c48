package discount

import (
	apperrors "github.com/xiebiao/poscart/pkg/errors"
)

// 优惠领域错误定义
var (
	// ErrPromoInvalid 优惠码无效或已过期
	ErrPromoInvalid = apperrors.New(apperrors.ErrCodePromoInvalid, "优惠码无效或已过期")

	// ErrPromoEmpty 优惠码为空
	ErrPromoEmpty = apperrors.New(apperrors.ErrCodeInvalidParams, "请输入优惠码")
)
