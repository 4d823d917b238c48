package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/poscart/internal/domain/pricing"
	apperrors "github.com/xiebiao/poscart/pkg/errors"
)

// priceListRepository 价格表缓存仓储实现
type priceListRepository struct {
	db *gorm.DB
	tx *TxManager
}

// NewPriceListRepository 创建价格表缓存仓储
func NewPriceListRepository(db *gorm.DB, tx *TxManager) pricing.PriceListRepository {
	return &priceListRepository{db: db, tx: tx}
}

// Save 整体替换终端配置下的价格表
func (r *priceListRepository) Save(ctx context.Context, posProfile string, set *pricing.PriceListSet) error {
	if set == nil {
		return nil
	}

	models := make([]*PriceListModel, 0, len(set.Lists))
	for i, pl := range set.Lists {
		models = append(models, &PriceListModel{
			POSProfile: posProfile,
			Position:   i,
			Name:       pl.Name,
			Label:      pl.Label,
			Currency:   pl.Currency,
			Adjustment: pl.Adjustment,
			IsDefault:  pl.Name == set.Default,
		})
	}

	err := r.tx.Transaction(ctx, func(ctx context.Context) error {
		db := dbFrom(ctx, r.db)
		if err := db.Where("pos_profile = ?", posProfile).Delete(&PriceListModel{}).Error; err != nil {
			return err
		}
		if len(models) == 0 {
			return nil
		}
		return db.Create(models).Error
	})
	if err != nil {
		return apperrors.ErrDatabaseError.WithErr(err)
	}
	return nil
}

// Load 读取缓存,没有数据时返回空集合
func (r *priceListRepository) Load(ctx context.Context, posProfile string) (*pricing.PriceListSet, error) {
	var models []PriceListModel
	if err := dbFrom(ctx, r.db).
		Where("pos_profile = ?", posProfile).
		Order("position ASC").
		Find(&models).Error; err != nil {
		return nil, apperrors.ErrDatabaseError.WithErr(err)
	}

	set := &pricing.PriceListSet{Lists: make([]pricing.PriceList, 0, len(models))}
	for _, m := range models {
		set.Lists = append(set.Lists, pricing.PriceList{
			Name:       m.Name,
			Label:      m.Label,
			Currency:   m.Currency,
			Adjustment: m.Adjustment,
		})
		if m.IsDefault {
			set.Default = m.Name
		}
	}
	return set, nil
}
