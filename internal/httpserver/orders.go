package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

func (h *handler) listOrders(c *gin.Context) {
	orders, err := h.deps.OrderSvc.List(c.Request.Context())
	if err != nil {
		h.respondError(c, "list orders", err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *handler) getOrder(c *gin.Context) {
	o, err := h.deps.OrderSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "get order", err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *handler) createOrder(c *gin.Context) {
	var body domain.Order
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid order body")
		return
	}
	body.ID = ""
	o, err := h.deps.OrderSvc.Create(c.Request.Context(), body)
	if err != nil {
		h.respondError(c, "create order", err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *handler) replaceOrder(c *gin.Context) {
	var body domain.Order
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid order body")
		return
	}
	o, err := h.deps.OrderSvc.Replace(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		h.respondError(c, "replace order", err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// patchOrder only accepts status changes; every other field is fixed at creation.
func (h *handler) patchOrder(c *gin.Context) {
	var body domain.StatusPatch
	if err := c.ShouldBindJSON(&body); err != nil || body.Status == "" {
		badRequest(c, "status is required")
		return
	}
	o, err := h.deps.OrderSvc.UpdateStatus(c.Request.Context(), c.Param("id"), body.Status)
	if err != nil {
		h.respondError(c, "patch order", err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *handler) deleteOrder(c *gin.Context) {
	if err := h.deps.OrderSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, "delete order", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
