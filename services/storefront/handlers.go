package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Identity headers populated by the auth gateway. Authentication itself is
// out-of-band; absence of the user header means the request is anonymous.
const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"
	roleAdmin      = "admin"
)

// CheckoutRequest é o corpo do POST /api/orders. Client-supplied titles and
// prices are accepted for compatibility but the catalog is the price
// authority; only the claimed total is cross-checked.
type CheckoutRequest struct {
	CartItems       []CheckoutItemRequest `json:"cartItems" binding:"required,min=1,dive"`
	TotalAmount     int64                 `json:"totalAmount" binding:"required,gt=0"`
	ShippingAddress string                `json:"shippingAddress"`
	CustomerNotes   string                `json:"customerNotes"`
}

// CheckoutItemRequest é uma linha do carrinho enviada pelo cliente.
type CheckoutItemRequest struct {
	ID       string `json:"id" binding:"required"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

// UpdateStatusRequest é o corpo do PATCH de status administrativo.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ProductRequest é o corpo dos endpoints administrativos de produto.
type ProductRequest struct {
	Title         string   `json:"title" binding:"required"`
	Price         int64    `json:"price" binding:"required,gt=0"`
	Stock         int      `json:"stock" binding:"gte=0"`
	ImagePreviews []string `json:"imagePreviews"`
}

// CheckoutUseCaseInterface define a interface para o use case de checkout.
type CheckoutUseCaseInterface interface {
	PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Order, error)
	GetOrderForUser(ctx context.Context, orderID, userID string, admin bool) (*Order, error)
	ListUserOrders(ctx context.Context, userID string) ([]*Order, error)
	UpdateOrderStatus(ctx context.Context, orderID, next string) (*Order, error)
}

// CatalogUseCaseInterface define a interface para o use case de catálogo.
type CatalogUseCaseInterface interface {
	CreateProduct(ctx context.Context, in ProductInput) (*Product, error)
	GetProduct(ctx context.Context, productID string) (*Product, error)
	ListProducts(ctx context.Context) ([]*Product, error)
	UpdateProduct(ctx context.Context, productID string, in ProductInput) (*Product, error)
	DeleteProduct(ctx context.Context, productID string) error
}

// OrderHandler contém os handlers HTTP de pedidos.
type OrderHandler struct {
	useCase CheckoutUseCaseInterface
	tracer  trace.Tracer
}

// NewOrderHandler cria uma nova instância de OrderHandler.
func NewOrderHandler(useCase CheckoutUseCaseInterface, tracer trace.Tracer) *OrderHandler {
	return &OrderHandler{
		useCase: useCase,
		tracer:  tracer,
	}
}

// PlaceOrder trata o POST /api/orders.
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "http.place_order")
	defer span.End()

	userID := c.GetHeader(headerUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.Int("cart_lines", len(req.CartItems)),
		attribute.Int64("claimed_total", req.TotalAmount),
	)

	lines := make([]CartLine, 0, len(req.CartItems))
	for _, item := range req.CartItems {
		lines = append(lines, CartLine{ProductID: item.ID, Quantity: item.Quantity})
	}

	order, err := h.useCase.PlaceOrder(ctx, PlaceOrderInput{
		UserID:          userID,
		Lines:           lines,
		ClaimedTotal:    req.TotalAmount,
		ShippingAddress: req.ShippingAddress,
		CustomerNotes:   req.CustomerNotes,
	})
	if err != nil {
		respondError(c, span, err)
		return
	}

	span.SetAttributes(attribute.String("order_id", order.ID))
	c.JSON(http.StatusCreated, order)
}

// GetOrder trata o GET /api/orders/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "http.get_order")
	defer span.End()

	userID := c.GetHeader(headerUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	admin := c.GetHeader(headerUserRole) == roleAdmin

	order, err := h.useCase.GetOrderForUser(ctx, c.Param("id"), userID, admin)
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListOrders trata o GET /api/orders.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "http.list_orders")
	defer span.End()

	userID := c.GetHeader(headerUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	orders, err := h.useCase.ListUserOrders(ctx, userID)
	if err != nil {
		respondError(c, span, err)
		return
	}
	if orders == nil {
		orders = []*Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// UpdateStatus trata o PATCH /api/admin/orders/:id/status.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "http.update_order_status")
	defer span.End()

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.useCase.UpdateOrderStatus(ctx, c.Param("id"), req.Status)
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// HealthCheck verifica a saúde do serviço.
func (h *OrderHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "storefront-checkout",
	})
}

// ProductHandler contém os handlers HTTP do catálogo.
type ProductHandler struct {
	useCase CatalogUseCaseInterface
	tracer  trace.Tracer
}

// NewProductHandler cria uma nova instância de ProductHandler.
func NewProductHandler(useCase CatalogUseCaseInterface, tracer trace.Tracer) *ProductHandler {
	return &ProductHandler{
		useCase: useCase,
		tracer:  tracer,
	}
}

// ListProducts trata o GET /api/products.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "http.list_products")
	defer span.End()

	products, err := h.useCase.ListProducts(ctx)
	if err != nil {
		respondError(c, span, err)
		return
	}
	if products == nil {
		products = []*Product{}
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetProduct trata o GET /api/products/:id.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "http.get_product")
	defer span.End()

	product, err := h.useCase.GetProduct(ctx, c.Param("id"))
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// CreateProduct trata o POST /api/products (admin).
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "http.create_product")
	defer span.End()

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.useCase.CreateProduct(ctx, ProductInput{
		Title:         req.Title,
		Price:         req.Price,
		Stock:         req.Stock,
		ImagePreviews: req.ImagePreviews,
	})
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct trata o PUT /api/products/:id (admin).
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "http.update_product")
	defer span.End()

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.useCase.UpdateProduct(ctx, c.Param("id"), ProductInput{
		Title:         req.Title,
		Price:         req.Price,
		Stock:         req.Stock,
		ImagePreviews: req.ImagePreviews,
	})
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct trata o DELETE /api/products/:id (admin).
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "http.delete_product")
	defer span.End()

	if err := h.useCase.DeleteProduct(ctx, c.Param("id")); err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": "deleted"})
}

// RequireAdmin bloqueia requisições sem a identidade de administrador.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(headerUserID) == "" || c.GetHeader(headerUserRole) != roleAdmin {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin identity required"})
			return
		}
		c.Next()
	}
}

// respondError maps the checkout failure classes onto HTTP status codes.
// Unexpected failures are logged with full detail and surfaced only as a
// generic internal error.
func respondError(c *gin.Context, span trace.Span, err error) {
	span.RecordError(err)

	switch {
	case errors.Is(err, ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("❌ Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
