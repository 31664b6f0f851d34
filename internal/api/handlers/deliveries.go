package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satushop/kaspisync/internal/service"
)

// CourierRequest identifies the acting courier
type CourierRequest struct {
	CourierID string `json:"courierId" binding:"required"`
}

// ArrivedRequest represents the arrival report with geolocation
type ArrivedRequest struct {
	CourierID string  `json:"courierId" binding:"required"`
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

// ConfirmCodeRequest represents the code confirmation request
type ConfirmCodeRequest struct {
	CourierID string `json:"courierId" binding:"required"`
	Code      string `json:"code" binding:"required"`
}

// FailDeliveryRequest represents the delivery failure report
type FailDeliveryRequest struct {
	CourierID string `json:"courierId" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
}

func deliveryID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid delivery ID"})
		return uuid.Nil, false
	}
	return id, true
}

// HandleStartDelivery handles POST /v1/deliveries/:id/start
func HandleStartDelivery(deliveries *service.DeliveryService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := deliveryID(c)
		if !ok {
			return
		}
		var req CourierRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "courierId is required"})
			return
		}

		if err := deliveries.StartDelivery(c.Request.Context(), id, req.CourierID); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "inTransit"})
	}
}

// HandleArrived handles POST /v1/deliveries/:id/arrived
func HandleArrived(deliveries *service.DeliveryService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := deliveryID(c)
		if !ok {
			return
		}
		var req ArrivedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "courierId, latitude and longitude are required"})
			return
		}

		if err := deliveries.ArriveAtCustomer(c.Request.Context(), id, req.CourierID, req.Latitude, req.Longitude); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "arrived"})
	}
}

// HandleRequestCode handles POST /v1/deliveries/:id/code/request
func HandleRequestCode(deliveries *service.DeliveryService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := deliveryID(c)
		if !ok {
			return
		}
		var req CourierRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "courierId is required"})
			return
		}

		if err := deliveries.RequestCode(c.Request.Context(), id, req.CourierID); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "awaitingCode"})
	}
}

// HandleConfirmCode handles POST /v1/deliveries/:id/code/confirm
func HandleConfirmCode(deliveries *service.DeliveryService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := deliveryID(c)
		if !ok {
			return
		}
		var req ConfirmCodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "courierId and code are required"})
			return
		}

		if err := deliveries.ConfirmWithCode(c.Request.Context(), id, req.CourierID, req.Code); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
	}
}

// HandleFailDelivery handles POST /v1/deliveries/:id/fail
func HandleFailDelivery(deliveries *service.DeliveryService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := deliveryID(c)
		if !ok {
			return
		}
		var req FailDeliveryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "courierId and reason are required"})
			return
		}

		if err := deliveries.MarkFailed(c.Request.Context(), id, req.CourierID, req.Reason); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "failed"})
	}
}

// HandleGetDelivery handles GET /v1/deliveries/:id
func HandleGetDelivery(deliveries *service.DeliveryService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := deliveryID(c)
		if !ok {
			return
		}
		delivery, err := deliveries.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"delivery": delivery})
	}
}

// HandleDeliveryHistory handles GET /v1/deliveries/:id/history
func HandleDeliveryHistory(deliveries *service.DeliveryService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := deliveryID(c)
		if !ok {
			return
		}
		history, err := deliveries.History(c.Request.Context(), id)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"history": history})
	}
}
