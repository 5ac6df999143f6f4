package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

type productQuery struct {
	Q string `schema:"q"`
}

func (h *handler) listProducts(c *gin.Context) {
	var q productQuery
	if err := h.queries.Decode(&q, c.Request.URL.Query()); err != nil {
		badRequest(c, "invalid query")
		return
	}
	products, err := h.deps.ProductSvc.List(c.Request.Context(), q.Q)
	if err != nil {
		h.respondError(c, "list products", err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *handler) getProduct(c *gin.Context) {
	p, err := h.deps.ProductSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "get product", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handler) createProduct(c *gin.Context) {
	var body domain.Product
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid product body")
		return
	}
	body.ID = ""
	p, err := h.deps.ProductSvc.Create(c.Request.Context(), body)
	if err != nil {
		h.respondError(c, "create product", err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *handler) replaceProduct(c *gin.Context) {
	var body domain.Product
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid product body")
		return
	}
	p, err := h.deps.ProductSvc.Replace(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		h.respondError(c, "replace product", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handler) deleteProduct(c *gin.Context) {
	if err := h.deps.ProductSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, "delete product", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
