// migrate-legacy copies eligible legacy expense rows into real settlement
// invoices. Idempotent: already-migrated rows are skipped, so it can be run
// repeatedly while both systems coexist.
//
// Usage: go run ./cmd/migrate-legacy
package main

import (
	"context"
	"log"

	"settlement-engine/internal/core"
	"settlement-engine/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	result, err := core.MigrateLegacySettlements(ctx, pool)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Done: %d eligible, %d migrated, %d already present",
		result.Eligible, result.Migrated, result.Skipped)
}
