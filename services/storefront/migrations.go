package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"
)

// Schema bootstrap. order_items.product_id deliberately has no foreign key
// into products: the snapshot columns must survive product deletion.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id             TEXT PRIMARY KEY,
		title          TEXT NOT NULL,
		price          BIGINT NOT NULL CHECK (price > 0),
		stock          INTEGER NOT NULL CHECK (stock >= 0),
		image_previews TEXT[] NOT NULL DEFAULT '{}',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL,
		status           TEXT NOT NULL,
		total_amount     BIGINT NOT NULL,
		shipping_address TEXT NOT NULL,
		customer_notes   TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id                TEXT PRIMARY KEY,
		order_id          TEXT NOT NULL REFERENCES orders(id),
		product_id        TEXT NOT NULL,
		quantity          INTEGER NOT NULL CHECK (quantity > 0),
		price_at_purchase BIGINT NOT NULL,
		product_name      TEXT NOT NULL,
		product_image     TEXT,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items (order_id)`,
}

// runMigrations applies the schema through database/sql.
func runMigrations(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer db.Close()

	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	log.Println("✅ Schema up to date")
	return nil
}
