// Package mapping is the AI-assisted column-mapping suggester. It is
// advisory only; the import pipeline never consults it.
package mapping

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	bedrockruntime "github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/ordersheet/backend/internal/importer"
)

type BedrockClient interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BuildPrompt asks for strict JSON mapping each uploaded header to a schema
// column or null.
func BuildPrompt(schema importer.Schema, headers []string) string {
	return fmt.Sprintf(`
You map spreadsheet headers onto a fixed import schema.

OUTPUT: valid JSON ONLY — one object whose keys are the uploaded headers and
whose values are either a schema column name or null.

RULES:
- Use ONLY columns from the schema below; anything else must map to null.
- Never invent keys; every uploaded header appears exactly once.
- When unsure, map to null.

SCHEMA COLUMNS (%s variant):
%s

UPLOADED HEADERS:
%s

Return JSON:
{"<uploaded header>": "<schema column or null>", ...}
`, schema.Variant, strings.Join(schema.Columns(), ", "), strings.Join(headers, ", "))
}

// SuggestMapping invokes a Bedrock Claude model (anthropic payload shape) and
// parses its JSON answer. Suggestions targeting unknown schema columns are
// discarded.
func SuggestMapping(ctx context.Context, c BedrockClient, modelID string, schema importer.Schema, headers []string) (map[string]string, error) {
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return nil, fmt.Errorf("missing bedrock model id")
	}

	payload := map[string]any{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        700,
		"temperature":       0.0,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": BuildPrompt(schema, headers)},
				},
			},
		},
	}

	body, _ := json.Marshal(payload)

	out, err := c.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     sdkaws.String(modelID),
		ContentType: sdkaws.String("application/json"),
		Accept:      sdkaws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock InvokeModel: %w", err)
	}

	// Claude returns JSON like: { "content":[{"type":"text","text":"..."}], ... }
	var raw struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(out.Body, &raw); err != nil {
		return nil, fmt.Errorf("bedrock response unmarshal: %w", err)
	}

	var text string
	for _, c := range raw.Content {
		if c.Type == "text" {
			text += c.Text
		}
	}

	jsonStr := extractFirstJSONObject(strings.TrimSpace(text))
	if jsonStr == "" {
		return nil, fmt.Errorf("model did not return JSON object")
	}

	var suggested map[string]*string
	if err := json.Unmarshal([]byte(jsonStr), &suggested); err != nil {
		return nil, fmt.Errorf("mapping JSON parse failed: %w; raw=%s", err, truncate(jsonStr, 800))
	}

	return FilterKnown(schema, suggested), nil
}

// FilterKnown drops nulls and suggestions whose target is not a schema
// column.
func FilterKnown(schema importer.Schema, suggested map[string]*string) map[string]string {
	out := map[string]string{}
	for header, col := range suggested {
		if col == nil {
			continue
		}
		target := strings.ToLower(strings.TrimSpace(*col))
		if target == "" || !schema.HasColumn(target) {
			continue
		}
		out[header] = target
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// extractFirstJSONObject finds the first {...} block. Not a full JSON parser.
func extractFirstJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
