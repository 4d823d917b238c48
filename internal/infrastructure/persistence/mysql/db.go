package mysql

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/poscart/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 数据库只保存远程目录/价格表的最近一次成功结果,远程失败时兜底
// 2. 门店服务器用MySQL;单机终端可配置sqlite(driver=sqlite,dbname为文件路径)
// 3. 开发环境开启SQL日志，生产环境关闭
func NewDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	// 1. 选择驱动
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.DSN())
	case "", "mysql":
		dialector = mysql.Open(cfg.Database.DSN())
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Database.Driver)
	}

	// 2. 配置GORM日志
	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}

	// 3. 连接数据库
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.Default.LogMode(logLevel),
		NowFunc: time.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 4. 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	if cfg.Database.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	if cfg.Database.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	}

	// 5. 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}
	log.Info("database connected", zap.String("driver", cfg.Database.Driver))

	// 6. 自动迁移
	if cfg.Database.AutoMigrate {
		if err := AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	return db, nil
}

// AutoMigrate 自动迁移表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&CatalogEntryModel{},
		&PriceListModel{},
	)
}

// CatalogEntryModel 目录缓存模型
// 设计说明:
// 1. 按 仓库+价格表 维度整体替换,Position保留远程返回的顺序
// 2. 只保存远程下发的原始字段;价格基线、展示价、售罄标记都是加载后重新计算的
// 3. 金额用decimal列,避免浮点误差
type CatalogEntryModel struct {
	ID               uint                `gorm:"primaryKey"`
	Warehouse        string              `gorm:"index:idx_catalog_scope;size:140;not null;comment:仓库"`
	PriceList        string              `gorm:"index:idx_catalog_scope;size:140;not null;default:'';comment:价格表"`
	Position         int                 `gorm:"not null;comment:目录顺序"`
	ItemCode         string              `gorm:"size:140;not null;comment:商品编码"`
	ItemName         string              `gorm:"size:255;comment:商品名称"`
	ItemGroup        string              `gorm:"size:140;comment:商品分组"`
	Image            string              `gorm:"size:500;comment:图片"`
	UOM              string              `gorm:"size:40;comment:单位"`
	HasVariants      bool                `gorm:"comment:是否模板"`
	VariantOf        string              `gorm:"size:140;comment:所属模板"`
	TemplateItemCode string              `gorm:"size:140;comment:模板编码别名"`
	ParentItem       string              `gorm:"size:140;comment:父商品"`
	Rate             decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0;comment:出厂价"`
	PriceListRate    decimal.NullDecimal `gorm:"type:decimal(18,4);comment:价格表专属价"`
	HasExplicitRate  bool                `gorm:"comment:是否价格表专属价"`
	StockQty         *float64            `gorm:"comment:库存(空表示无数据)"`
	Shortage         bool                `gorm:"comment:缺货标记"`
	KitchenStation   string              `gorm:"size:40;comment:出品位置"`
	UpdatedAt        time.Time           `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (CatalogEntryModel) TableName() string {
	return "pos_catalog_cache"
}

// PriceListModel 价格表缓存模型
type PriceListModel struct {
	ID         uint            `gorm:"primaryKey"`
	POSProfile string          `gorm:"index;size:140;not null;comment:终端配置"`
	Position   int             `gorm:"not null;comment:顺序"`
	Name       string          `gorm:"size:140;not null;comment:价格表名称"`
	Label      string          `gorm:"size:255;comment:展示名称"`
	Currency   string          `gorm:"size:10;comment:币种"`
	Adjustment decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0;comment:统一调整值"`
	IsDefault  bool            `gorm:"comment:是否默认"`
	UpdatedAt  time.Time       `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (PriceListModel) TableName() string {
	return "pos_price_list_cache"
}
