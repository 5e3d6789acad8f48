package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"settlement-engine/internal/app"
)

// Run executes a one-shot CLI command and exits.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string) {
	switch args[0] {
	case "stats":
		result, err := svc.GetStats(ctx, windowArgs(args[1:]))
		if err != nil {
			log.Fatalf("Stats error: %v", err)
		}
		printJSON(result.Stats)

	case "invoices", "inv":
		result, err := svc.ListSettlementInvoices(ctx, windowArgs(args[1:]))
		if err != nil {
			log.Fatalf("Invoice list error: %v", err)
		}
		printJSON(result.Invoices)

	case "records", "rec":
		req := app.ListRecordsRequest{}
		if len(args) > 1 {
			id, err := strconv.Atoi(args[1])
			if err != nil {
				log.Fatal("Usage: app records [employee-id]")
			}
			req.EmployeeID = id
		}
		result, err := svc.ListProfitRecords(ctx, req)
		if err != nil {
			log.Fatalf("Record list error: %v", err)
		}
		printJSON(result.Records)

	case "settle":
		if len(args) < 2 {
			log.Fatal("Usage: app settle <employee-id> [--override]")
		}
		employeeID, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("Invalid employee id %q", args[1])
		}
		req := app.SettleRequest{EmployeeID: employeeID, PaymentMethod: "cash"}
		for _, a := range args[2:] {
			if a == "--override" {
				req.AdminOverride = true
			}
		}
		result, err := svc.Settle(ctx, req)
		if err != nil {
			log.Fatalf("Settle error: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Settled %d orders on invoice %s\n",
			len(result.Invoice.SettledOrders), result.Invoice.InvoiceNumber)
		printJSON(result.Invoice)

	case "parse":
		if len(args) < 2 {
			log.Fatal("Usage: app parse \"<sales message>\"")
		}
		result, err := svc.ParseOrderMessage(ctx, strings.Join(args[1:], " "))
		if err != nil {
			log.Fatalf("Intake error: %v", err)
		}
		printJSON(result.Draft)

	case "migrate-legacy":
		result, err := svc.MigrateLegacySettlements(ctx)
		if err != nil {
			log.Fatalf("Migration error: %v", err)
		}
		printJSON(result)

	default:
		log.Fatalf("Unknown command %q. Commands: stats, invoices, records, settle, parse, migrate-legacy", args[0])
	}
}

// windowArgs reads an optional [period|from to] tail shared by the reporting
// commands.
func windowArgs(args []string) app.WindowRequest {
	switch len(args) {
	case 0:
		return app.WindowRequest{}
	case 1:
		return app.WindowRequest{Period: args[0]}
	default:
		return app.WindowRequest{From: args[0], To: args[1]}
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
}
