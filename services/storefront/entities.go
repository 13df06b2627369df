package main

import (
	"time"
)

// Order status values. "pending" is the only status a checkout ever produces;
// everything after that is an administrative transition.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
	OrderStatusFailed    = "failed"
)

// DefaultShippingAddress is stored when the customer leaves the address empty.
// Kept from the original storefront wording.
const DefaultShippingAddress = "Alamat belum diisi"

// allowedTransitions is the administrative status graph. Completed, cancelled
// and failed are terminal.
var allowedTransitions = map[string][]string{
	OrderStatusPending:   {OrderStatusPaid, OrderStatusCancelled, OrderStatusFailed},
	OrderStatusPaid:      {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {OrderStatusCompleted},
}

// KnownStatus reports whether s is one of the order status values.
func KnownStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled, OrderStatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Product representa um produto do catálogo com o contador de estoque.
type Product struct {
	ID            string    `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Price         int64     `json:"price" db:"price"`
	Stock         int       `json:"stock" db:"stock"`
	ImagePreviews []string  `json:"image_previews" db:"image_previews"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// FirstImage returns the snapshot image for order items, nil when the product
// has no previews.
func (p *Product) FirstImage() *string {
	if len(p.ImagePreviews) == 0 {
		return nil
	}
	img := p.ImagePreviews[0]
	return &img
}

// NewProduct cria uma nova instância de Product.
func NewProduct(id string, in ProductInput) *Product {
	return &Product{
		ID:            id,
		Title:         in.Title,
		Price:         in.Price,
		Stock:         in.Stock,
		ImagePreviews: in.ImagePreviews,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

// Order representa um pedido no sistema.
type Order struct {
	ID              string      `json:"id" db:"id"`
	UserID          string      `json:"user_id" db:"user_id"`
	Status          string      `json:"status" db:"status"`
	TotalAmount     int64       `json:"total_amount" db:"total_amount"`
	ShippingAddress string      `json:"shipping_address" db:"shipping_address"`
	CustomerNotes   string      `json:"customer_notes" db:"customer_notes"`
	Items           []OrderItem `json:"items"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

// OrderItem is an immutable line-item snapshot of a purchased product. The
// price and product snapshots are captured at checkout time and survive later
// catalog edits or deletions.
type OrderItem struct {
	ID              string    `json:"id" db:"id"`
	OrderID         string    `json:"order_id" db:"order_id"`
	ProductID       string    `json:"product_id" db:"product_id"`
	Quantity        int       `json:"quantity" db:"quantity"`
	PriceAtPurchase int64     `json:"price_at_purchase" db:"price_at_purchase"`
	ProductName     string    `json:"product_name" db:"product_name"`
	ProductImage    *string   `json:"product_image" db:"product_image"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// CartLine is one requested line of a checkout: a product and how many units.
type CartLine struct {
	ProductID string
	Quantity  int
}

// NewOrder cria uma nova instância de Order com status pending.
func NewOrder(id, userID string, totalAmount int64, shippingAddress, customerNotes string) *Order {
	if shippingAddress == "" {
		shippingAddress = DefaultShippingAddress
	}
	return &Order{
		ID:              id,
		UserID:          userID,
		Status:          OrderStatusPending,
		TotalAmount:     totalAmount,
		ShippingAddress: shippingAddress,
		CustomerNotes:   customerNotes,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
}
