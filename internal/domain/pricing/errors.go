package pricing

import (
	apperrors "github.com/xiebiao/poscart/pkg/errors"
)

// 定价领域错误定义
var (
	// ErrPriceListNotFound 价格表不存在或不允许当前终端使用
	ErrPriceListNotFound = apperrors.New(apperrors.ErrCodePriceListNotFound, "价格表不存在")

	// ErrSwitchFailed 价格表切换失败,已恢复原价格表
	ErrSwitchFailed = apperrors.New(apperrors.ErrCodeSwitchFailed, "价格表切换失败，已恢复原价格表")

	// ErrOptionRequired 必选规格未选择(配合WithField指出具体分组)
	ErrOptionRequired = apperrors.New(apperrors.ErrCodeOptionRequired, "请选择必选规格")

	// ErrOptionInvalid 规格选项不合法
	ErrOptionInvalid = apperrors.New(apperrors.ErrCodeOptionInvalid, "规格选项不合法")
)
