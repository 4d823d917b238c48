package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config 全局配置结构
// 设计说明：使用Viper管理配置，支持YAML文件、环境变量覆盖(前缀POSCART_)
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	GRPC     GRPCConfig     `mapstructure:"grpc"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Terminal TerminalConfig `mapstructure:"terminal"`
	MQ       MQConfig       `mapstructure:"mq"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"` // debug | release | test
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// GRPCConfig 健康检查gRPC端口(负载均衡探活用)
type GRPCConfig struct {
	Port int `mapstructure:"port"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // mysql | sqlite
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	Charset         string        `mapstructure:"charset"`
	ParseTime       bool          `mapstructure:"parse_time"`
	Loc             string        `mapstructure:"loc"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN 生成MySQL连接字符串
// 格式：user:password@tcp(host:port)/dbname?charset=utf8mb4&parseTime=True&loc=Local
// sqlite驱动时DBName就是文件路径
func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.DBName
	}
	loc := url.QueryEscape(d.Loc)
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.Charset, d.ParseTime, loc)
}

type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr 返回Redis地址
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type LogConfig struct {
	Level        string `mapstructure:"level"`  // debug | info | warn | error
	Format       string `mapstructure:"format"` // console | json
	Output       string `mapstructure:"output"` // stdout | stderr | /path/to/file
	EnableCaller bool   `mapstructure:"enable_caller"`
}

// BackendConfig 门店ERP(目录/定价/促销/规格服务)
type BackendConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	APISecret string        `mapstructure:"api_secret"`
	Timeout   time.Duration `mapstructure:"timeout"`

	// 熔断器
	BreakerFailures    uint32        `mapstructure:"breaker_failures"`
	BreakerOpenTimeout time.Duration `mapstructure:"breaker_open_timeout"`
	BreakerInterval    time.Duration `mapstructure:"breaker_interval"`
}

// TerminalConfig 终端业务参数
type TerminalConfig struct {
	Warehouse            string        `mapstructure:"warehouse"`
	POSProfile           string        `mapstructure:"pos_profile"`
	TaxRate              string        `mapstructure:"tax_rate"` // 字符串避免浮点误差,如 "0.11"
	CatalogLimit         int           `mapstructure:"catalog_limit"`
	StockRefreshInterval time.Duration `mapstructure:"stock_refresh_interval"`
	SessionTTL           time.Duration `mapstructure:"session_ttl"`
	SwitchTimeout        time.Duration `mapstructure:"switch_timeout"`
	AutoDiscountMinQty   int           `mapstructure:"auto_discount_min_qty"`
	AutoDiscountPercent  string        `mapstructure:"auto_discount_percent"`
}

// Tax 税率
func (t TerminalConfig) Tax() decimal.Decimal {
	d, err := decimal.NewFromString(t.TaxRate)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// AutoPercent 自动折扣百分比
func (t TerminalConfig) AutoPercent() decimal.Decimal {
	d, err := decimal.NewFromString(t.AutoDiscountPercent)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// MQConfig 库存推送消息
type MQConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	URL         string   `mapstructure:"url"`
	Exchange    string   `mapstructure:"exchange"`
	Queue       string   `mapstructure:"queue"`
	RoutingKeys []string `mapstructure:"routing_keys"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Load 加载配置文件
// 支持：
// 1. 默认加载config/config.yaml
// 2. 通过环境变量POSCART_ENV指定环境（如config.prod.yaml）
// 3. 环境变量覆盖（如POSCART_BACKEND_API_SECRET → backend.api_secret）
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	if env := v.GetString("env"); env != "" {
		v.SetConfigName("config." + env)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return decode(v)
}

// LoadFile 从指定文件加载(测试与命令行 -config 参数使用)
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("POSCART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("grpc.port", 9090)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parse_time", true)
	v.SetDefault("database.loc", "Local")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("backend.api_key", "")
	v.SetDefault("backend.api_secret", "")
	v.SetDefault("backend.timeout", 8*time.Second)
	v.SetDefault("backend.breaker_failures", 5)
	v.SetDefault("backend.breaker_open_timeout", 30*time.Second)
	v.SetDefault("backend.breaker_interval", time.Minute)

	v.SetDefault("terminal.tax_rate", "0")
	v.SetDefault("terminal.catalog_limit", 2000)
	v.SetDefault("terminal.stock_refresh_interval", time.Minute)
	v.SetDefault("terminal.session_ttl", 12*time.Hour)
	v.SetDefault("terminal.switch_timeout", 15*time.Second)
	v.SetDefault("terminal.auto_discount_min_qty", 5)
	v.SetDefault("terminal.auto_discount_percent", "10")

	v.SetDefault("mq.exchange", "erp.events")
	v.SetDefault("mq.queue", "poscart.stock")
	v.SetDefault("mq.routing_keys", []string{"stock.updated"})

	v.SetDefault("tracing.service_name", "poscart")
	v.SetDefault("tracing.endpoint", "localhost:4317")
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate 配置校验
func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("无效的服务端口: %d", cfg.Server.Port)
	}
	if cfg.GRPC.Port < 0 || cfg.GRPC.Port > 65535 {
		return fmt.Errorf("无效的gRPC端口: %d", cfg.GRPC.Port)
	}
	if cfg.Backend.BaseURL == "" {
		return fmt.Errorf("必须配置backend.base_url")
	}
	if cfg.Terminal.Warehouse == "" {
		return fmt.Errorf("必须配置terminal.warehouse")
	}

	tax, err := decimal.NewFromString(cfg.Terminal.TaxRate)
	if err != nil || tax.IsNegative() || tax.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("无效的税率: %q", cfg.Terminal.TaxRate)
	}

	pct, err := decimal.NewFromString(cfg.Terminal.AutoDiscountPercent)
	if err != nil || !pct.IsPositive() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("无效的自动折扣比例: %q", cfg.Terminal.AutoDiscountPercent)
	}
	if cfg.Terminal.AutoDiscountMinQty <= 0 {
		return fmt.Errorf("自动折扣最少件数必须大于0")
	}
	if cfg.Terminal.StockRefreshInterval <= 0 {
		return fmt.Errorf("库存刷新间隔必须大于0")
	}

	if cfg.MQ.Enabled && cfg.MQ.URL == "" {
		return fmt.Errorf("启用库存推送时必须配置mq.url")
	}
	return nil
}
