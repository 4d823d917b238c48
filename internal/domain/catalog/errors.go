package catalog

import (
	apperrors "github.com/xiebiao/poscart/pkg/errors"
)

// 目录领域错误定义
var (
	// ErrItemNotFound 商品不存在
	ErrItemNotFound = apperrors.New(apperrors.ErrCodeItemNotFound, "商品不存在")

	// ErrSoldOut 商品已售罄
	ErrSoldOut = apperrors.New(apperrors.ErrCodeSoldOut, "商品已售罄")

	// ErrTemplateItem 模板商品不能直接下单
	ErrTemplateItem = apperrors.New(apperrors.ErrCodeTemplateItem, "请先选择商品规格")

	// ErrCatalogUnavailable 目录服务不可用且无本地缓存
	ErrCatalogUnavailable = apperrors.New(apperrors.ErrCodeRemoteError, "商品目录暂不可用")
)
