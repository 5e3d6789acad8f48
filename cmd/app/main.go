// app is the one-shot operations CLI over the settlement engine.
//
// Usage: go run ./cmd/app <command> [args]
package main

import (
	"context"
	"log"
	"os"

	"settlement-engine/internal/adapters/cli"
	"settlement-engine/internal/ai"
	"settlement-engine/internal/app"
	"settlement-engine/internal/core"
	"settlement-engine/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		log.Fatal("Usage: app <stats|invoices|records|settle|parse|migrate-legacy> [args]")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	employeeService := core.NewEmployeeService(pool)
	orderService := core.NewOrderService(pool)
	settlementService := core.NewSettlementService(pool, orderService, employeeService)
	invoiceService := core.NewInvoiceService(pool)
	statsService := core.NewStatsService(orderService, employeeService)

	var agent *ai.Agent
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		agent = ai.NewAgent(apiKey)
	}

	svc := app.NewAppService(pool, employeeService, orderService, settlementService, invoiceService, statsService, agent)
	cli.Run(ctx, svc, os.Args[1:])
}
