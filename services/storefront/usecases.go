package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// PlaceOrderInput é a entrada do checkout, já com a identidade resolvida.
// Prices are deliberately absent: the catalog is the only price authority.
type PlaceOrderInput struct {
	UserID          string
	Lines           []CartLine
	ClaimedTotal    int64
	ShippingAddress string
	CustomerNotes   string
}

// CheckoutUseCase contém a lógica de negócio do checkout.
type CheckoutUseCase struct {
	repository     Repository
	tracer         trace.Tracer
	ordersPlaced   metric.Int64Counter
	ordersRejected metric.Int64Counter
}

// NewCheckoutUseCase cria uma nova instância de CheckoutUseCase.
func NewCheckoutUseCase(repository Repository, tracer trace.Tracer, meter metric.Meter) *CheckoutUseCase {
	ordersPlaced, _ := meter.Int64Counter("checkout.orders_placed",
		metric.WithDescription("Orders committed successfully"))
	ordersRejected, _ := meter.Int64Counter("checkout.orders_rejected",
		metric.WithDescription("Checkouts rejected before or during the order transaction"))

	return &CheckoutUseCase{
		repository:     repository,
		tracer:         tracer,
		ordersPlaced:   ordersPlaced,
		ordersRejected: ordersRejected,
	}
}

// PlaceOrder valida o carrinho contra o catálogo e grava pedido, itens e
// decrementos de estoque em uma única transação. Either everything commits or
// nothing does.
func (uc *CheckoutUseCase) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Order, error) {
	ctx, span := uc.tracer.Start(ctx, "place_order")
	defer span.End()

	order, err := uc.placeOrder(ctx, in)
	if err != nil {
		span.RecordError(err)
		uc.ordersRejected.Add(ctx, 1)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("order_id", order.ID),
		attribute.String("user_id", order.UserID),
		attribute.Int("line_count", len(order.Items)),
		attribute.Int64("total_amount", order.TotalAmount),
	)
	uc.ordersPlaced.Add(ctx, 1)
	log.Printf("✅ Order placed: %s (user %s, %d lines, total %d)",
		order.ID, order.UserID, len(order.Items), order.TotalAmount)
	return order, nil
}

func (uc *CheckoutUseCase) placeOrder(ctx context.Context, in PlaceOrderInput) (*Order, error) {
	if in.UserID == "" {
		return nil, ErrUnauthorized
	}
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("cart must not be empty: %w", ErrInvalidRequest)
	}
	for _, line := range in.Lines {
		if line.ProductID == "" {
			return nil, fmt.Errorf("cart line is missing a product id: %w", ErrInvalidRequest)
		}
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("quantity for product %s must be positive: %w", line.ProductID, ErrInvalidRequest)
		}
	}
	if in.ClaimedTotal <= 0 {
		return nil, fmt.Errorf("totalAmount is required: %w", ErrInvalidRequest)
	}

	// One batched read for the distinct id set. This is a friendliness pass:
	// the conditional decrement inside the transaction is the guard that
	// actually prevents oversell.
	ids := distinctProductIDs(in.Lines)
	products, err := uc.repository.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}

	requested := make(map[string]int, len(ids))
	for _, line := range in.Lines {
		requested[line.ProductID] += line.Quantity
	}

	var total int64
	for _, id := range ids {
		product, ok := products[id]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: id}
		}
		if requested[id] > product.Stock {
			return nil, &InsufficientStockError{
				ProductID: id,
				Title:     product.Title,
				Requested: requested[id],
				Available: product.Stock,
			}
		}
		total += product.Price * int64(requested[id])
	}

	if total != in.ClaimedTotal {
		return nil, fmt.Errorf("total amount mismatch: client sent %d, catalog total is %d: %w",
			in.ClaimedTotal, total, ErrInvalidRequest)
	}

	order := NewOrder(uuid.New().String(), in.UserID, total, in.ShippingAddress, in.CustomerNotes)
	for _, line := range in.Lines {
		product := products[line.ProductID]
		order.Items = append(order.Items, OrderItem{
			ID:              uuid.New().String(),
			OrderID:         order.ID,
			ProductID:       product.ID,
			Quantity:        line.Quantity,
			PriceAtPurchase: product.Price,
			ProductName:     product.Title,
			ProductImage:    product.FirstImage(),
			CreatedAt:       order.CreatedAt,
		})
	}

	if err := uc.repository.CreateOrder(ctx, order); err != nil {
		// A concurrent checkout may have taken the stock between the
		// validation read and the transaction.
		if errors.Is(err, ErrInsufficientStock) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

// GetOrderForUser busca um pedido, escondendo pedidos de outros usuários.
func (uc *CheckoutUseCase) GetOrderForUser(ctx context.Context, orderID, userID string, admin bool) (*Order, error) {
	ctx, span := uc.tracer.Start(ctx, "get_order")
	defer span.End()

	order, err := uc.repository.GetOrder(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if order.UserID != userID && !admin {
		// Not the owner: indistinguishable from a missing order.
		return nil, &OrderNotFoundError{OrderID: orderID}
	}
	return order, nil
}

// ListUserOrders lista os pedidos do usuário autenticado.
func (uc *CheckoutUseCase) ListUserOrders(ctx context.Context, userID string) ([]*Order, error) {
	ctx, span := uc.tracer.Start(ctx, "list_user_orders")
	defer span.End()

	if userID == "" {
		return nil, ErrUnauthorized
	}
	orders, err := uc.repository.ListUserOrders(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus aplica uma transição administrativa de status, validada
// contra o grafo de transições permitidas.
func (uc *CheckoutUseCase) UpdateOrderStatus(ctx context.Context, orderID, next string) (*Order, error) {
	ctx, span := uc.tracer.Start(ctx, "update_order_status")
	defer span.End()

	if !KnownStatus(next) {
		return nil, fmt.Errorf("unknown order status %q: %w", next, ErrInvalidRequest)
	}

	order, err := uc.repository.GetOrder(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !CanTransition(order.Status, next) {
		return nil, &InvalidTransitionError{From: order.Status, To: next}
	}

	// Guarded on the status we just read, so a concurrent admin update
	// cannot make the order skip a state.
	ok, err := uc.repository.TransitionOrderStatus(ctx, orderID, order.Status, next)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if !ok {
		return nil, &InvalidTransitionError{From: order.Status, To: next}
	}

	log.Printf("✅ Order %s: %s → %s", orderID, order.Status, next)
	order.Status = next
	return order, nil
}

func distinctProductIDs(lines []CartLine) []string {
	seen := make(map[string]bool, len(lines))
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}
	return ids
}

// ProductInput são os campos editáveis de um produto do catálogo.
type ProductInput struct {
	Title         string
	Price         int64
	Stock         int
	ImagePreviews []string
}

// CatalogUseCase contém a lógica de negócio do catálogo (admin).
type CatalogUseCase struct {
	repository Repository
	tracer     trace.Tracer
}

// NewCatalogUseCase cria uma nova instância de CatalogUseCase.
func NewCatalogUseCase(repository Repository, tracer trace.Tracer) *CatalogUseCase {
	return &CatalogUseCase{
		repository: repository,
		tracer:     tracer,
	}
}

func validateProductInput(in ProductInput) error {
	if in.Title == "" {
		return fmt.Errorf("title is required: %w", ErrInvalidRequest)
	}
	if in.Price <= 0 {
		return fmt.Errorf("price must be positive: %w", ErrInvalidRequest)
	}
	if in.Stock < 0 {
		return fmt.Errorf("stock must be non-negative: %w", ErrInvalidRequest)
	}
	return nil
}

// CreateProduct cria um produto novo no catálogo.
func (uc *CatalogUseCase) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	ctx, span := uc.tracer.Start(ctx, "create_product")
	defer span.End()

	if err := validateProductInput(in); err != nil {
		return nil, err
	}

	product := NewProduct(uuid.New().String(), in)
	if err := uc.repository.CreateProduct(ctx, product); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	log.Printf("✅ Product created: %s (%s)", product.ID, product.Title)
	return product, nil
}

// GetProduct busca um produto pelo ID.
func (uc *CatalogUseCase) GetProduct(ctx context.Context, productID string) (*Product, error) {
	ctx, span := uc.tracer.Start(ctx, "get_product")
	defer span.End()

	product, err := uc.repository.GetProduct(ctx, productID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return product, nil
}

// ListProducts lista o catálogo.
func (uc *CatalogUseCase) ListProducts(ctx context.Context) ([]*Product, error) {
	ctx, span := uc.tracer.Start(ctx, "list_products")
	defer span.End()

	products, err := uc.repository.ListProducts(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// UpdateProduct substitui os campos editáveis de um produto.
func (uc *CatalogUseCase) UpdateProduct(ctx context.Context, productID string, in ProductInput) (*Product, error) {
	ctx, span := uc.tracer.Start(ctx, "update_product")
	defer span.End()

	if err := validateProductInput(in); err != nil {
		return nil, err
	}

	product, err := uc.repository.GetProduct(ctx, productID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	product.Title = in.Title
	product.Price = in.Price
	product.Stock = in.Stock
	product.ImagePreviews = in.ImagePreviews

	if err := uc.repository.UpdateProduct(ctx, product); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return product, nil
}

// DeleteProduct remove um produto. Existing order item snapshots keep their
// historical name, image and price.
func (uc *CatalogUseCase) DeleteProduct(ctx context.Context, productID string) error {
	ctx, span := uc.tracer.Start(ctx, "delete_product")
	defer span.End()

	if err := uc.repository.DeleteProduct(ctx, productID); err != nil {
		span.RecordError(err)
		return err
	}
	log.Printf("✅ Product deleted: %s", productID)
	return nil
}
