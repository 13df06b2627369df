package main

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// FakeStore is an in-memory Repository with the same guard semantics as the
// Postgres implementation: the stock decrement is conditional and an order is
// committed all-or-nothing.
type FakeStore struct {
	mu       sync.Mutex
	products map[string]*Product
	orders   map[string]*Order
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		products: make(map[string]*Product),
		orders:   make(map[string]*Order),
	}
}

// Seed inserts a product directly, bypassing validation.
func (s *FakeStore) Seed(p *Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.products[p.ID] = &cp
}

// StockOf returns the current stock counter for assertions.
func (s *FakeStore) StockOf(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[productID]; ok {
		return p.Stock
	}
	return -1
}

func (s *FakeStore) GetProductsByIDs(_ context.Context, ids []string) (map[string]*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (s *FakeStore) CreateOrder(_ context.Context, order *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Conditional decrements against a scratch copy so a short line leaves
	// every counter untouched.
	scratch := make(map[string]int, len(order.Items))
	for id, p := range s.products {
		scratch[id] = p.Stock
	}
	for i := range order.Items {
		item := &order.Items[i]
		stock, ok := scratch[item.ProductID]
		if !ok || stock < item.Quantity {
			return &InsufficientStockError{
				ProductID: item.ProductID,
				Title:     item.ProductName,
				Requested: item.Quantity,
				Available: stock,
			}
		}
		scratch[item.ProductID] = stock - item.Quantity
	}
	for id, stock := range scratch {
		s.products[id].Stock = stock
	}

	cp := *order
	cp.Items = append([]OrderItem(nil), order.Items...)
	s.orders[order.ID] = &cp
	return nil
}

func (s *FakeStore) GetOrder(_ context.Context, orderID string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, &OrderNotFoundError{OrderID: orderID}
	}
	cp := *o
	cp.Items = append([]OrderItem(nil), o.Items...)
	return &cp, nil
}

func (s *FakeStore) ListUserOrders(_ context.Context, userID string) ([]*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Order
	for _, o := range s.orders {
		if o.UserID == userID {
			cp := *o
			cp.Items = append([]OrderItem(nil), o.Items...)
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *FakeStore) TransitionOrderStatus(_ context.Context, orderID, from, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (s *FakeStore) CreateProduct(_ context.Context, product *Product) error {
	s.Seed(product)
	return nil
}

func (s *FakeStore) GetProduct(_ context.Context, productID string) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return nil, &ProductNotFoundError{ProductID: productID}
	}
	cp := *p
	return &cp, nil
}

func (s *FakeStore) ListProducts(_ context.Context) ([]*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Product
	for _, p := range s.products {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (s *FakeStore) UpdateProduct(_ context.Context, product *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[product.ID]; !ok {
		return &ProductNotFoundError{ProductID: product.ID}
	}
	cp := *product
	s.products[product.ID] = &cp
	return nil
}

func (s *FakeStore) DeleteProduct(_ context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[productID]; !ok {
		return &ProductNotFoundError{ProductID: productID}
	}
	delete(s.products, productID)
	return nil
}

func TestFakeStore_CreateOrderAllOrNothing(t *testing.T) {
	// Arrange
	store := NewFakeStore()
	store.Seed(&Product{ID: "P1", Title: "Keyboard", Price: 10000, Stock: 5})
	store.Seed(&Product{ID: "P2", Title: "Mouse", Price: 5000, Stock: 1})

	order := NewOrder("order-1", "user-1", 45000, "", "")
	order.Items = []OrderItem{
		{ID: "i1", OrderID: order.ID, ProductID: "P1", Quantity: 2, PriceAtPurchase: 10000, ProductName: "Keyboard"},
		{ID: "i2", OrderID: order.ID, ProductID: "P2", Quantity: 5, PriceAtPurchase: 5000, ProductName: "Mouse"},
	}

	// Act
	err := store.CreateOrder(context.Background(), order)

	// Assert: the short second line must not let the first decrement stick.
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 5, store.StockOf("P1"))
	assert.Equal(t, 1, store.StockOf("P2"))
	_, getErr := store.GetOrder(context.Background(), "order-1")
	assert.ErrorIs(t, getErr, ErrNotFound)
}

func TestFakeStore_TransitionGuardedOnCurrentStatus(t *testing.T) {
	// Arrange
	store := NewFakeStore()
	order := NewOrder("order-1", "user-1", 10000, "", "")
	store.orders[order.ID] = order

	// Act
	ok, err := store.TransitionOrderStatus(context.Background(), "order-1", OrderStatusPending, OrderStatusPaid)
	assert.NoError(t, err)
	assert.True(t, ok)

	// A second update expecting "pending" lost the race.
	ok, err = store.TransitionOrderStatus(context.Background(), "order-1", OrderStatusPending, OrderStatusCancelled)
	assert.NoError(t, err)
	assert.False(t, ok)
}
