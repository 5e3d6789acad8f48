package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"

	"settlement-engine/internal/adapters/telegram"
	webAdapter "settlement-engine/internal/adapters/web"
	"settlement-engine/internal/ai"
	"settlement-engine/internal/app"
	"settlement-engine/internal/core"
	"settlement-engine/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
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
	} else {
		log.Println("Warning: OPENAI_API_KEY is not set, order intake disabled")
	}

	svc := app.NewAppService(pool, employeeService, orderService, settlementService, invoiceService, statsService, agent)

	if os.Getenv("MIGRATE_LEGACY_ON_START") == "true" {
		if _, err := svc.MigrateLegacySettlements(ctx); err != nil {
			log.Fatalf("legacy settlement migration: %v", err)
		}
	}

	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		bot, err := telegram.NewBot(token, svc)
		if err != nil {
			log.Fatalf("telegram: %v", err)
		}
		go bot.Run(ctx)
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := splitOrigins(os.Getenv("ALLOWED_ORIGINS"))
	handler := webAdapter.NewHandler(svc, allowedOrigins)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func splitOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var origins []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			origins = append(origins, t)
		}
	}
	return origins
}
