package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository define a interface para operações de banco de dados da loja.
type Repository interface {
	// GetProductsByIDs does one batched read for the distinct product-id set
	// of a cart. Missing ids are simply absent from the result.
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]*Product, error)

	// CreateOrder persists the order, its items and the matching stock
	// decrements in one transaction. A decrement that would drive stock
	// negative aborts the whole transaction with an InsufficientStockError.
	CreateOrder(ctx context.Context, order *Order) error

	// GetOrder busca um pedido pelo ID, com os itens.
	GetOrder(ctx context.Context, orderID string) (*Order, error)

	// ListUserOrders returns a user's orders, newest first, items attached.
	ListUserOrders(ctx context.Context, userID string) ([]*Order, error)

	// TransitionOrderStatus moves an order from one status to another. The
	// update is guarded on the expected current status; false means the
	// order was not in that status anymore.
	TransitionOrderStatus(ctx context.Context, orderID, from, to string) (bool, error)

	CreateProduct(ctx context.Context, product *Product) error
	GetProduct(ctx context.Context, productID string) (*Product, error)
	ListProducts(ctx context.Context) ([]*Product, error)
	UpdateProduct(ctx context.Context, product *Product) error
	DeleteProduct(ctx context.Context, productID string) error
}

// PostgresRepository implementa Repository usando PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository cria uma nova instância de PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) Repository {
	return &PostgresRepository{
		db: db,
	}
}

// GetProductsByIDs faz uma única leitura para o conjunto de produtos do carrinho.
func (r *PostgresRepository) GetProductsByIDs(ctx context.Context, ids []string) (map[string]*Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, title, price, stock, image_previews, created_at, updated_at
		FROM products
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make(map[string]*Product, len(ids))
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Price, &p.Stock, &p.ImagePreviews, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products[p.ID] = &p
	}
	return products, rows.Err()
}

// CreateOrder grava pedido, itens e decrementos de estoque em uma transação.
func (r *PostgresRepository) CreateOrder(ctx context.Context, order *Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, status, total_amount, shipping_address, customer_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, order.ID, order.UserID, order.Status, order.TotalAmount, order.ShippingAddress, order.CustomerNotes, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]

		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, price_at_purchase, product_name, product_image, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, item.ID, item.OrderID, item.ProductID, item.Quantity, item.PriceAtPurchase, item.ProductName, item.ProductImage, item.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}

		// The decrement is the authoritative stock check: guarded on the
		// remaining stock, so concurrent checkouts can never drive it
		// negative. Zero rows affected means someone else got there first.
		tag, err := tx.Exec(ctx, `
			UPDATE products
			SET stock = stock - $2,
			    updated_at = NOW()
			WHERE id = $1
			  AND stock >= $2
		`, item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to decrease stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			// Re-read so the rejection can name the remaining quantity.
			var available int
			_ = tx.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, item.ProductID).Scan(&available)
			return &InsufficientStockError{
				ProductID: item.ProductID,
				Title:     item.ProductName,
				Requested: item.Quantity,
				Available: available,
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order transaction: %w", err)
	}
	return nil
}

// GetOrder busca um pedido pelo ID.
func (r *PostgresRepository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, status, total_amount, shipping_address, customer_notes, created_at, updated_at
		FROM orders WHERE id = $1
	`, orderID).Scan(&order.ID, &order.UserID, &order.Status, &order.TotalAmount,
		&order.ShippingAddress, &order.CustomerNotes, &order.CreatedAt, &order.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &OrderNotFoundError{OrderID: orderID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.getOrderItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

// ListUserOrders retorna os pedidos de um usuário, mais recentes primeiro.
func (r *PostgresRepository) ListUserOrders(ctx context.Context, userID string) ([]*Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, status, total_amount, shipping_address, customer_notes, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount,
			&o.ShippingAddress, &o.CustomerNotes, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, o := range orders {
		items, err := r.getOrderItems(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		o.Items = items
	}
	return orders, nil
}

func (r *PostgresRepository) getOrderItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, product_id, quantity, price_at_purchase, product_name, product_image, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity,
			&it.PriceAtPurchase, &it.ProductName, &it.ProductImage, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// TransitionOrderStatus atualiza o status de um pedido de forma condicional.
func (r *PostgresRepository) TransitionOrderStatus(ctx context.Context, orderID, from, to string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, orderID, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CreateProduct cria um novo produto no catálogo.
func (r *PostgresRepository) CreateProduct(ctx context.Context, product *Product) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO products (id, title, price, stock, image_previews, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, product.ID, product.Title, product.Price, product.Stock, product.ImagePreviews, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// GetProduct busca um produto pelo ID.
func (r *PostgresRepository) GetProduct(ctx context.Context, productID string) (*Product, error) {
	var p Product
	err := r.db.QueryRow(ctx, `
		SELECT id, title, price, stock, image_previews, created_at, updated_at
		FROM products WHERE id = $1
	`, productID).Scan(&p.ID, &p.Title, &p.Price, &p.Stock, &p.ImagePreviews, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &ProductNotFoundError{ProductID: productID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return &p, nil
}

// ListProducts lista o catálogo completo.
func (r *PostgresRepository) ListProducts(ctx context.Context) ([]*Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, title, price, stock, image_previews, created_at, updated_at
		FROM products
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Price, &p.Stock, &p.ImagePreviews, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}

// UpdateProduct atualiza título, preço, estoque e imagens de um produto.
func (r *PostgresRepository) UpdateProduct(ctx context.Context, product *Product) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET title = $2, price = $3, stock = $4, image_previews = $5, updated_at = NOW()
		WHERE id = $1
	`, product.ID, product.Title, product.Price, product.Stock, product.ImagePreviews)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &ProductNotFoundError{ProductID: product.ID}
	}
	return nil
}

// DeleteProduct remove um produto do catálogo. Order item snapshots are kept.
func (r *PostgresRepository) DeleteProduct(ctx context.Context, productID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, productID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &ProductNotFoundError{ProductID: productID}
	}
	return nil
}
