package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satushop/kaspisync/internal/domain"
	"github.com/satushop/kaspisync/internal/repository"
	"github.com/satushop/kaspisync/internal/service"
)

// SaveTokenRequest represents the save token request
type SaveTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

func sellerID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid seller ID"})
		return uuid.Nil, false
	}
	return id, true
}

// HandleSaveToken handles POST /v1/sellers/:id/token
func HandleSaveToken(tokens *service.TokenStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := sellerID(c)
		if !ok {
			return
		}
		var req SaveTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
			return
		}

		if err := tokens.Save(c.Request.Context(), id, req.Token); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "saved"})
	}
}

// HandleTokenHealth handles GET /v1/sellers/:id/token/health
func HandleTokenHealth(tokens *service.TokenStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := sellerID(c)
		if !ok {
			return
		}
		if err := tokens.CheckAPIHealth(c.Request.Context(), id); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// HandleSyncProducts handles POST /v1/sellers/:id/sync/products
func HandleSyncProducts(products *service.ProductSyncer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := sellerID(c)
		if !ok {
			return
		}
		synced, err := products.Sync(c.Request.Context(), id)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"synced": len(synced)})
	}
}

// HandleSyncOrders handles POST /v1/sellers/:id/sync/orders. New orders
// are pulled and every pending one is routed through processing, same
// as a scheduled cycle would.
func HandleSyncOrders(orders *service.OrderSyncer, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := sellerID(c)
		if !ok {
			return
		}
		synced, err := orders.SyncNewOrders(c.Request.Context(), id, window)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		processed := 0
		for _, order := range synced {
			if order.Status != domain.OrderStatusPending {
				continue
			}
			if _, err := orders.ProcessOrder(c.Request.Context(), order); err != nil {
				logger.Warn("Order processing failed",
					zap.String("order", order.KaspiOrderID), zap.Error(err))
				continue
			}
			processed++
		}
		c.JSON(http.StatusOK, gin.H{"synced": len(synced), "processed": processed})
	}
}

// HandleRunPricer handles POST /v1/sellers/:id/pricer/run
func HandleRunPricer(pricer *service.PriceOptimizer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := sellerID(c)
		if !ok {
			return
		}
		changed, err := pricer.RunAutoDump(c.Request.Context(), id)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"changed": changed})
	}
}

// HandleListProducts handles GET /v1/sellers/:id/products
func HandleListProducts(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := sellerID(c)
		if !ok {
			return
		}
		products, err := repos.Products.ListBySeller(c.Request.Context(), id)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products})
	}
}

// HandleListOrders handles GET /v1/sellers/:id/orders
func HandleListOrders(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := sellerID(c)
		if !ok {
			return
		}
		orders, err := repos.Orders.ListBySeller(c.Request.Context(), id)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}
