package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"pharmacy-backend/internal/core"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

// ReorderLine is one suggested purchase-order line.
type ReorderLine struct {
	MedicineCode string `json:"medicine_code" jsonschema_description:"The exact medicine code from the provided stock listing"`
	Quantity     int    `json:"quantity" jsonschema_description:"The suggested restock quantity (always positive)"`
}

// ReorderProposal is the AI-generated restocking suggestion. It is advisory
// only: nothing is written until a human turns it into a purchase order.
type ReorderProposal struct {
	Lines      []ReorderLine `json:"lines" jsonschema_description:"Suggested restock lines, one per medicine that needs reordering"`
	Reasoning  string        `json:"reasoning" jsonschema_description:"Explanation for the suggested quantities"`
	Confidence float64       `json:"confidence" jsonschema_description:"Confidence score between 0.0 and 1.0"`
}

// Validate enforces basic sanity on the model output before it reaches callers.
func (p *ReorderProposal) Validate(knownCodes map[string]bool) error {
	for i, l := range p.Lines {
		if l.Quantity <= 0 {
			return fmt.Errorf("line %d: suggested quantity must be positive, got %d", i+1, l.Quantity)
		}
		if !knownCodes[l.MedicineCode] {
			return fmt.Errorf("line %d: unknown medicine code %q", i+1, l.MedicineCode)
		}
	}
	return nil
}

type AgentService interface {
	SuggestReorder(ctx context.Context, stock []core.StockSummary, threshold int) (*ReorderProposal, error)
}

type Agent struct {
	client *openai.Client
}

func NewAgent(apiKey string) *Agent {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Agent{client: &client}
}

// SuggestReorder asks the model to propose restock quantities for medicines at
// or below the threshold, constrained to a structured-output JSON schema.
func (a *Agent) SuggestReorder(ctx context.Context, stock []core.StockSummary, threshold int) (*ReorderProposal, error) {
	var listing strings.Builder
	knownCodes := make(map[string]bool, len(stock))
	for _, s := range stock {
		fmt.Fprintf(&listing, "%s  %s  on hand: %d\n", s.MedicineCode, s.Name, s.TotalQuantity)
		knownCodes[s.MedicineCode] = true
	}

	prompt := fmt.Sprintf(`You are a pharmacy stock controller.
Your goal is to suggest restock quantities for medicines that are low on stock.
Rules:
1. Suggest lines ONLY for medicines whose on-hand quantity is at or below %d.
2. Use ONLY medicine codes from the listing below.
3. Suggested quantities must be positive whole numbers.
4. Provide a confidence score (0.0-1.0).
5. Explain your reasoning.

Current stock:
%s`, threshold, listing.String())

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
					Name:        "reorder_proposal",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("A restocking suggestion for low-stock medicines"),
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

	var proposal ReorderProposal
	if err := json.Unmarshal([]byte(content), &proposal); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}

	if err := proposal.Validate(knownCodes); err != nil {
		return nil, fmt.Errorf("proposal validation failed: %w", err)
	}

	return &proposal, nil
}

func generateSchema() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v ReorderProposal
	return reflector.Reflect(v)
}
