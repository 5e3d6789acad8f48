package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"settlement-engine/internal/core"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

type AgentService interface {
	ParseOrderMessage(ctx context.Context, message string) (*core.OrderDraft, error)
}

type Agent struct {
	client *openai.Client
}

func NewAgent(apiKey string) *Agent {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Agent{client: &client}
}

// ParseOrderMessage extracts a structured order draft from a free-text sales
// message, typically pasted from a customer chat. The draft is normalized and
// validated before it is returned; it is never persisted here, a human
// confirms it first.
func (a *Agent) ParseOrderMessage(ctx context.Context, message string) (*core.OrderDraft, error) {
	prompt := fmt.Sprintf(`You are an order-entry assistant for a retail delivery business.
Your goal is to extract a structured order from a sales message written in Arabic or English.
Rules:
1. Amounts must be plain numeric strings in Iraqi dinars (e.g. "25000"), no thousands separators.
2. Leave unit_cost_price empty when the message does not state a cost.
3. delivery_fee is the courier charge only, "0" when not mentioned.
4. Provide a confidence score (0.0-1.0).
5. Do not invent items, quantities, or prices that are not in the message.

Message: %s`, message)

	// Dynamically generate the JSON schema from the Go struct
	schemaStruct := generateSchema()
	schemaJSON, err := json.Marshal(schemaStruct)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(shared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "order_draft",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("A structured draft of a customer order"),
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}

	var draft core.OrderDraft
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}

	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("draft validation failed: %w", err)
	}

	return &draft, nil
}

func generateSchema() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v core.OrderDraft
	return reflector.Reflect(v)
}
