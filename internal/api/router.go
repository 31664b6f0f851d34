package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/satushop/kaspisync/internal/api/handlers"
	"github.com/satushop/kaspisync/internal/api/middleware"
	"github.com/satushop/kaspisync/internal/config"
	"github.com/satushop/kaspisync/internal/repository"
	"github.com/satushop/kaspisync/internal/service"
)

// Services bundles the wired service layer for the HTTP surface
type Services struct {
	Tokens     *service.TokenStore
	Products   *service.ProductSyncer
	Orders     *service.OrderSyncer
	Deliveries *service.DeliveryService
	Pricer     *service.PriceOptimizer
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, repos *repository.Repositories, svcs Services, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	// Health check and metrics (no auth)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/v1")
	v1.Use(middleware.AdminAuth(cfg.API.AdminKeyHash, logger))
	{
		sellers := v1.Group("/sellers/:id")
		{
			sellers.POST("/token", handlers.HandleSaveToken(svcs.Tokens, logger))
			sellers.GET("/token/health", handlers.HandleTokenHealth(svcs.Tokens, logger))
			sellers.POST("/sync/products", handlers.HandleSyncProducts(svcs.Products, logger))
			sellers.POST("/sync/orders", handlers.HandleSyncOrders(svcs.Orders, cfg.Sync.OrderWindow, logger))
			sellers.POST("/pricer/run", handlers.HandleRunPricer(svcs.Pricer, logger))
			sellers.GET("/products", handlers.HandleListProducts(repos, logger))
			sellers.GET("/orders", handlers.HandleListOrders(repos, logger))
		}

		deliveries := v1.Group("/deliveries/:id")
		{
			deliveries.POST("/start", handlers.HandleStartDelivery(svcs.Deliveries, logger))
			deliveries.POST("/arrived", handlers.HandleArrived(svcs.Deliveries, logger))
			deliveries.POST("/code/request", handlers.HandleRequestCode(svcs.Deliveries, logger))
			deliveries.POST("/code/confirm", handlers.HandleConfirmCode(svcs.Deliveries, logger))
			deliveries.POST("/fail", handlers.HandleFailDelivery(svcs.Deliveries, logger))
			deliveries.GET("", handlers.HandleGetDelivery(svcs.Deliveries, logger))
			deliveries.GET("/history", handlers.HandleDeliveryHistory(svcs.Deliveries, logger))
		}
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
