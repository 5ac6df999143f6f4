package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/schema"

	"storefront/internal/domain"
)

type ProductService interface {
	List(ctx context.Context, query string) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Replace(ctx context.Context, id string, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type OrderService interface {
	List(ctx context.Context) ([]domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	Replace(ctx context.Context, id string, o domain.Order) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	Delete(ctx context.Context, id string) error
}

type UserService interface {
	Register(ctx context.Context, u domain.User) (*domain.User, error)
	Match(ctx context.Context, email, password string) ([]domain.User, error)
	ByEmail(ctx context.Context, email string) ([]domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

// Deps holds the services behind the routes.
type Deps struct {
	ProductSvc ProductService
	OrderSvc   OrderService
	UserSvc    UserService
}

type handler struct {
	deps    Deps
	logger  *log.Logger
	queries *schema.Decoder
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, schemaCheck SchemaCheck, deps Deps, corsOrigins []string) (*gin.Engine, error) {
	if deps.ProductSvc == nil || deps.OrderSvc == nil || deps.UserSvc == nil {
		return nil, errors.New("httpserver: product, order and user services are required")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(corsConfig(corsOrigins)))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(schemaCheck))

	queries := schema.NewDecoder()
	queries.IgnoreUnknownKeys(true)
	h := &handler{deps: deps, logger: logger, queries: queries}

	products := router.Group("/products")
	products.GET("", h.listProducts)
	products.POST("", h.createProduct)
	products.GET("/:id", h.getProduct)
	products.PUT("/:id", h.replaceProduct)
	products.DELETE("/:id", h.deleteProduct)

	orders := router.Group("/orders")
	orders.GET("", h.listOrders)
	orders.POST("", h.createOrder)
	orders.GET("/:id", h.getOrder)
	orders.PUT("/:id", h.replaceOrder)
	orders.PATCH("/:id", h.patchOrder)
	orders.DELETE("/:id", h.deleteOrder)

	users := router.Group("/users")
	users.GET("", h.listUsers)
	users.POST("", h.createUser)

	return router, nil
}

// corsConfig allows every origin when none are configured.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// respondError maps domain errors to status codes with a {"error": msg} body.
func (h *handler) respondError(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	msg := "internal server error"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrAlreadyExists):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	default:
		h.logger.Printf("httpserver: %s error=%v", op, err)
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
