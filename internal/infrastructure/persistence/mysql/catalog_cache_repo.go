package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/poscart/internal/domain/catalog"
	apperrors "github.com/xiebiao/poscart/pkg/errors"
)

// catalogCacheRepository 目录缓存仓储实现
type catalogCacheRepository struct {
	db *gorm.DB
	tx *TxManager
}

// NewCatalogCacheRepository 创建目录缓存仓储
func NewCatalogCacheRepository(db *gorm.DB, tx *TxManager) catalog.CacheRepository {
	return &catalogCacheRepository{db: db, tx: tx}
}

// Replace 整体替换 仓库+价格表 维度的缓存
// 事务内先删后插,读方永远看不到一半新一半旧的目录
func (r *catalogCacheRepository) Replace(ctx context.Context, warehouse, priceList string, entries []*catalog.Entry) error {
	models := make([]*CatalogEntryModel, 0, len(entries))
	for i, e := range entries {
		if e == nil || e.ItemCode == "" {
			continue
		}
		models = append(models, toCatalogEntryModel(warehouse, priceList, i, e))
	}

	err := r.tx.Transaction(ctx, func(ctx context.Context) error {
		db := dbFrom(ctx, r.db)
		if err := db.Where("warehouse = ? AND price_list = ?", warehouse, priceList).
			Delete(&CatalogEntryModel{}).Error; err != nil {
			return err
		}
		if len(models) == 0 {
			return nil
		}
		return db.CreateInBatches(models, 200).Error
	})
	if err != nil {
		return apperrors.ErrDatabaseError.WithErr(err)
	}
	return nil
}

// Load 读取缓存(按Position排序)
func (r *catalogCacheRepository) Load(ctx context.Context, warehouse, priceList string) ([]*catalog.Entry, error) {
	var models []CatalogEntryModel
	err := dbFrom(ctx, r.db).
		Where("warehouse = ? AND price_list = ?", warehouse, priceList).
		Order("position ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.ErrDatabaseError.WithErr(err)
	}

	entries := make([]*catalog.Entry, 0, len(models))
	for i := range models {
		entries = append(entries, toCatalogEntry(&models[i]))
	}
	return entries, nil
}

func toCatalogEntryModel(warehouse, priceList string, pos int, e *catalog.Entry) *CatalogEntryModel {
	var qty *float64
	if e.StockQty != nil {
		v := *e.StockQty
		qty = &v
	}
	return &CatalogEntryModel{
		Warehouse:        warehouse,
		PriceList:        priceList,
		Position:         pos,
		ItemCode:         e.ItemCode,
		ItemName:         e.ItemName,
		ItemGroup:        e.ItemGroup,
		Image:            e.Image,
		UOM:              e.UOM,
		HasVariants:      e.HasVariants,
		VariantOf:        e.VariantOf,
		TemplateItemCode: e.TemplateItemCode,
		ParentItem:       e.ParentItem,
		Rate:             e.Rate,
		PriceListRate:    e.PriceListRate,
		HasExplicitRate:  e.HasExplicitRate,
		StockQty:         qty,
		Shortage:         e.Shortage,
		KitchenStation:   e.KitchenStation,
	}
}

// toCatalogEntry Model → Entity(只还原原始字段,派生字段由加载流程重新计算)
func toCatalogEntry(m *CatalogEntryModel) *catalog.Entry {
	return &catalog.Entry{
		ItemCode:         m.ItemCode,
		ItemName:         m.ItemName,
		ItemGroup:        m.ItemGroup,
		Image:            m.Image,
		UOM:              m.UOM,
		HasVariants:      m.HasVariants,
		VariantOf:        m.VariantOf,
		TemplateItemCode: m.TemplateItemCode,
		ParentItem:       m.ParentItem,
		Rate:             m.Rate,
		PriceListRate:    m.PriceListRate,
		HasExplicitRate:  m.HasExplicitRate,
		StockQty:         m.StockQty,
		Shortage:         m.Shortage,
		KitchenStation:   m.KitchenStation,
	}
}
