package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/xiebiao/poscart/internal/interface/http/handler"
	"github.com/xiebiao/poscart/internal/interface/http/middleware"
)

// Handlers 全部HTTP处理器
type Handlers struct {
	Session   *handler.SessionHandler
	Catalog   *handler.CatalogHandler
	PriceList *handler.PriceListHandler
	Cart      *handler.CartHandler
	Checkout  *handler.CheckoutHandler
}

// Options 路由选项
type Options struct {
	Mode        string // debug/release/test
	ServiceName string // 追踪span的tracer名
	Swagger     bool   // 生产环境建议关闭
}

// New 创建Gin引擎并注册路由
// 中间件顺序: Recovery → RequestID → Tracing → Metrics → Logger
// RequestID最先执行,后续日志和错误响应都能带上request_id
func New(h Handlers, opts Options, logger *zap.Logger) *gin.Engine {
	switch opts.Mode {
	case gin.ReleaseMode, gin.TestMode, gin.DebugMode:
		gin.SetMode(opts.Mode)
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Tracing(opts.ServiceName),
		middleware.Metrics(),
		middleware.Logger(logger),
	)

	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// Prometheus抓取
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 访问 /swagger/index.html 查看API文档
	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	{
		// 开启会话不需要会话标识
		v1.POST("/sessions", h.Session.OpenSession)

		// 其余接口都在会话内操作
		scoped := v1.Group("")
		scoped.Use(middleware.SessionRequired())
		{
			scoped.GET("/sessions/current", h.Session.GetSession)

			catalog := scoped.Group("/catalog")
			{
				catalog.GET("", h.Catalog.ListCatalog)
				catalog.POST("/reload", h.Catalog.ReloadCatalog)
				catalog.GET("/:code/variants", h.Catalog.GetVariants)
				catalog.GET("/:code/options", h.Catalog.GetOptions)
			}

			priceLists := scoped.Group("/price-lists")
			{
				priceLists.GET("", h.PriceList.ListPriceLists)
				priceLists.PUT("/active", h.PriceList.SwitchPriceList)
			}

			cart := scoped.Group("/cart")
			{
				cart.GET("", h.Cart.GetCart)
				cart.DELETE("", h.Cart.ClearCart)
				cart.POST("/lines", h.Cart.AddLine)
				cart.PATCH("/lines/:index", h.Cart.UpdateLine)
				cart.DELETE("/lines/:index", h.Cart.RemoveLine)

				cart.GET("/quote", h.Checkout.Quote)
				cart.POST("/promo", h.Checkout.ApplyPromo)
				cart.DELETE("/promo", h.Checkout.RemovePromo)
			}
		}
	}

	return r
}
