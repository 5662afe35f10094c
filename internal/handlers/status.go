package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"santa-video-backend/internal/models"
	"santa-video-backend/internal/store"
)

type StatusHandler struct {
	orders *store.OrderStore
}

func NewStatusHandler(orders *store.OrderStore) *StatusHandler {
	return &StatusHandler{
		orders: orders,
	}
}

// GetStatus returns the current state of an order for client polling.
func (h *StatusHandler) GetStatus(c *gin.Context) {
	order, ok := h.orders.Get(c.Param("session_id"))
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Order not found"})
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{
		Status:   string(order.Status),
		VideoURL: order.VideoURL,
		Error:    order.ErrorMessage,
	})
}
