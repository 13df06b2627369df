package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// Concurrent checkout generator. Points N workers at the same product so the
// conditional stock decrement gets contended for real: with stock S and
// quantity Q per checkout, at most S/Q requests may succeed and stock must
// never go negative.

type checkoutItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type checkoutRequest struct {
	CartItems   []checkoutItem `json:"cartItems"`
	TotalAmount int64          `json:"totalAmount"`
}

type productResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Price int64  `json:"price"`
	Stock int    `json:"stock"`
}

func main() {
	baseURL := getEnv("CHECKOUT_URL", "http://localhost:8080")
	productID := getEnv("PRODUCT_ID", "")
	workers := getEnvInt("WORKERS", 20)
	quantity := getEnvInt("QUANTITY", 1)

	if productID == "" {
		log.Fatal("PRODUCT_ID is required")
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second)

	var product productResponse
	resp, err := client.R().
		SetResult(&product).
		Get("/api/products/" + productID)
	if err != nil {
		log.Fatalf("Failed to load product %s: %v", productID, err)
	}
	if resp.IsError() {
		log.Fatalf("Failed to load product %s: %s", productID, resp.Status())
	}
	log.Printf("🚀 Firing %d checkouts of %d × %q (stock %d, price %d)",
		workers, quantity, product.Title, product.Stock, product.Price)

	body := checkoutRequest{
		CartItems: []checkoutItem{{
			ID:       product.ID,
			Title:    product.Title,
			Price:    product.Price,
			Quantity: quantity,
		}},
		TotalAmount: product.Price * int64(quantity),
	}

	var wg sync.WaitGroup
	results := make([]int, workers)
	start := time.Now()
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := client.R().
				SetHeader("X-User-ID", fmt.Sprintf("loadgen-user-%d", i)).
				SetBody(body).
				Post("/api/orders")
			if err != nil {
				results[i] = -1
				return
			}
			results[i] = resp.StatusCode()
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	counts := make(map[int]int)
	for _, code := range results {
		counts[code]++
	}
	log.Printf("Done in %s: %v", elapsed, counts)

	resp, err = client.R().
		SetResult(&product).
		Get("/api/products/" + productID)
	if err != nil {
		log.Fatalf("Failed to re-read product: %v", err)
	}
	if resp.IsError() {
		log.Fatalf("Failed to re-read product: %s", resp.Status())
	}
	log.Printf("Remaining stock: %d (created orders: %d)", product.Stock, counts[201])
	if product.Stock < 0 {
		log.Fatal("❌ Stock went negative — oversell!")
	}
	log.Println("✅ No oversell")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
