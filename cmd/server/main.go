package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	webAdapter "pharmacy-backend/internal/adapters/web"
	"pharmacy-backend/internal/ai"
	"pharmacy-backend/internal/app"
	"pharmacy-backend/internal/core"
	"pharmacy-backend/internal/db"

	"github.com/joho/godotenv"
)

func lockTimeoutFromEnv() time.Duration {
	raw := os.Getenv("LOCK_TIMEOUT_MS")
	if raw == "" {
		return core.DefaultLockTimeout
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		log.Printf("ignoring invalid LOCK_TIMEOUT_MS=%q", raw)
		return core.DefaultLockTimeout
	}
	return time.Duration(ms) * time.Millisecond
}

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	lockTimeout := lockTimeoutFromEnv()

	catalog := core.NewCatalogService(pool)
	inventory := core.NewInventoryService(pool)
	sales := core.NewSaleEngine(pool, inventory, lockTimeout)
	orders := core.NewPurchaseOrderService(pool, lockTimeout)
	prescriptions := core.NewPrescriptionService(pool, lockTimeout)

	var agent *ai.Agent
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		agent = ai.NewAgent(apiKey)
	} else {
		log.Println("Warning: OPENAI_API_KEY is not set, reorder suggestions disabled")
	}

	svc := app.NewAppService(catalog, inventory, sales, orders, prescriptions, agent)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
