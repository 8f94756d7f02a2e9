package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	"github.com/docupay/invoice-capture/internal/llm"
)

// ExtractFields implements llm.FieldExtractor with a single chat completion
// in strict JSON-object mode: system message carries the rule set, user
// message carries the recognized document text.
func (c *Client) ExtractFields(ctx context.Context, req llm.ExtractRequest) (llm.Record, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.Text),
		"allowed_categories", len(req.AllowedCategories),
	)

	params := openai.ChatCompletionNewParams{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(llm.BuildSystemPrompt(req)),
			openai.UserMessage(req.Text),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	if c.cfg.Temperature > 0 {
		params.Temperature = openai.Float(float64(c.cfg.Temperature))
	}

	completion, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		c.logger.Error("llm.extract.api_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Record{}, nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Record{}, nil, fmt.Errorf("no choices in openai response")
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	rawContent := []byte(content)

	// Validate strictly first; repair once with the sanitize pass on failure.
	c.schemaOnce.Do(func() {
		c.schema, c.schemaErr = llm.NewRecordSchema(req.AllowedCategories)
	})
	if c.schemaErr != nil {
		return llm.Record{}, rawContent, fmt.Errorf("compile response schema: %w", c.schemaErr)
	}
	if err := c.schema.Validate(rawContent); err != nil {
		cleaned, changed, sErr := llm.NormalizeAndSanitizeJSON(rawContent, c.logger)
		if sErr != nil {
			c.logger.Error("llm.extract.sanitize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.Record{}, rawContent, fmt.Errorf("response is not a JSON object: %w", sErr)
		}
		if vErr := c.schema.Validate(cleaned); vErr != nil {
			c.logger.Error("llm.extract.schema_validation_failed",
				"req_id", rid, "error", vErr, "content", content,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.Record{}, rawContent, fmt.Errorf("schema validation failed: %w", vErr)
		}
		c.logger.Warn("llm.extract.sanitize_applied",
			"req_id", rid, "changed", changed,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		rawContent = cleaned
	}

	var out llm.Record
	if err := json.Unmarshal(rawContent, &out); err != nil {
		c.logger.Error("llm.extract.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Record{}, rawContent, fmt.Errorf("unmarshal fields: %w", err)
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"payee", strOrNull(out.Payee),
		"sib", strOrNull(out.SIB),
		"amount", strOrNull(out.Amount),
		"currency", strOrNull(out.Currency),
		"category", strOrNull(out.Category),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, rawContent, nil
}

func strOrNull(s *string) string {
	if s == nil {
		return "<null>"
	}
	return *s
}
