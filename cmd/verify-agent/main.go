// verify-agent is a one-shot smoke check of the order-intake agent: it parses
// a sample sales message and prints the resulting draft. Run it after
// changing the prompt or the draft schema.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"settlement-engine/internal/ai"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load() // Load .env if present

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY not set")
	}

	agent := ai.NewAgent(apiKey)
	ctx := context.Background()

	message := "زبون اسمه احمد من بغداد، رقمه 07701234567، يريد 2 ساعة سمارت بسعر 60000 للواحدة، التوصيل 5000"
	if len(os.Args) > 1 {
		message = strings.Join(os.Args[1:], " ")
	}

	fmt.Println("Parsing:", message)
	draft, err := agent.ParseOrderMessage(ctx, message)
	if err != nil {
		log.Fatalf("Agent error: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(draft); err != nil {
		log.Fatalf("Failed to encode draft: %v", err)
	}
	fmt.Printf("Draft total: %s\n", draft.Total().StringFixed(0))
}
