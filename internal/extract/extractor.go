package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mkaryagin/voxquest/internal/catalog"
	"github.com/mkaryagin/voxquest/internal/models"
)

// Answer delimiter tags. The prompt composer instructs the model to wrap
// its JSON reply in exactly these tags; changing them here without changing
// the prompt templates breaks the pipeline.
const (
	AnswerOpenTag  = "<answer>"
	AnswerCloseTag = "</answer>"
)

// Extraction failures. All of them are recoverable per-request conditions:
// the recognizer converts them into an unrecognized result, never a fault.
var (
	ErrNoAnswerDelimiter = errors.New("no answer delimiter in reply")
	ErrMalformedJSON     = errors.New("malformed JSON in answer")
	ErrSchemaMismatch    = errors.New("answer does not match response schema")
)

// answerRe finds the first delimited answer block. Models occasionally
// change tag case or pad the block with whitespace and prose, so the match
// is case-insensitive and spans newlines.
var answerRe = regexp.MustCompile(`(?is)<answer>\s*(.*?)\s*</answer>`)

// codeFenceRe strips markdown code fences the model sometimes wraps the
// JSON in despite instructions.
var codeFenceRe = regexp.MustCompile("(?m)^```(?:json)?\\s*$")

// trailingCommaRe removes trailing commas before a closing brace or
// bracket, the most common way small models break JSON.
var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// Answer is a parsed, validated answer object from one model reply.
// Null answers (the model's way of saying "not a command") are reported
// through the Null flag rather than an error.
type Answer struct {
	Null       bool
	Fields     map[string]any
	Confidence float64
}

// Extract locates the delimited JSON payload in a raw model reply, parses
// it and validates it against the category's response schema.
func Extract(reply string, schema catalog.ResponseSchema) (*Answer, error) {
	m := answerRe.FindStringSubmatch(reply)
	if m == nil {
		return nil, ErrNoAnswerDelimiter
	}
	payload := strings.TrimSpace(m[1])

	raw, err := parsePayload(payload)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return &Answer{Null: true}, nil
	}

	if err := validate(raw, schema); err != nil {
		return nil, err
	}

	return &Answer{
		Fields:     raw,
		Confidence: clampConfidence(raw["confidence"]),
	}, nil
}

// parsePayload parses the payload as JSON, attempting one best-effort
// repair pass before giving up. A nil map with nil error means the payload
// was a literal null.
func parsePayload(payload string) (map[string]any, error) {
	if !json.Valid([]byte(payload)) {
		payload = repair(payload)
		if !json.Valid([]byte(payload)) {
			return nil, fmt.Errorf("%w: unparseable payload", ErrMalformedJSON)
		}
	}

	payload = strings.TrimSpace(payload)
	if payload == "null" {
		return nil, nil
	}
	if !strings.HasPrefix(payload, "{") {
		return nil, fmt.Errorf("%w: payload is not an object", ErrSchemaMismatch)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedJSON, err)
	}
	return obj, nil
}

// repair applies the single allowed repair pass: strip code fences, strip
// trailing commas.
func repair(payload string) string {
	out := codeFenceRe.ReplaceAllString(payload, "")
	out = trailingCommaRe.ReplaceAllString(out, "$1")
	return strings.TrimSpace(out)
}

// validate checks the mandatory identity field of the schema. Confidence is
// never mandatory (absence means 0.0) and target/direction stay nullable.
func validate(obj map[string]any, schema catalog.ResponseSchema) error {
	for _, field := range []string{"command_type", "command"} {
		if !schema.Has(field) {
			continue
		}
		v, ok := obj[field]
		if !ok || v == nil {
			return fmt.Errorf("%w: missing %s", ErrSchemaMismatch, field)
		}
		if _, isString := v.(string); !isString {
			return fmt.Errorf("%w: %s is not a string", ErrSchemaMismatch, field)
		}
	}
	return nil
}

// clampConfidence pulls the self-reported score into [0.0, 1.0]. Out of
// range values are model noise, not errors; a missing score is itself
// evidence of garbled output and defaults to 0.0.
func clampConfidence(v any) float64 {
	f, ok := v.(float64)
	if !ok {
		return 0.0
	}
	if f < 0.0 {
		return 0.0
	}
	if f > 1.0 {
		return 1.0
	}
	return f
}

// Route interprets an answer extracted with the router schema.
func (a *Answer) Route() *models.RouteDecision {
	if a.Null {
		return nil
	}
	d := &models.RouteDecision{
		Confidence: a.Confidence,
	}
	if s, ok := a.Fields["command_type"].(string); ok {
		d.Category = s
	}
	if s, ok := a.Fields["explanation"].(string); ok {
		d.Explanation = s
	}
	if alts, ok := a.Fields["alternative_types"].([]any); ok {
		for _, alt := range alts {
			if s, ok := alt.(string); ok && s != "" {
				d.Alternatives = append(d.Alternatives, s)
			}
		}
	}
	return d
}

// Command interprets an answer extracted with a specialist schema.
func (a *Answer) Command() *models.Command {
	if a.Null {
		return nil
	}
	cmd := &models.Command{
		Parameters: map[string]any{},
		Confidence: a.Confidence,
	}
	if s, ok := a.Fields["command"].(string); ok {
		cmd.Action = s
	}
	if s, ok := a.Fields["direction"].(string); ok && s != "" {
		cmd.Direction = &s
	}
	if s, ok := a.Fields["target"].(string); ok && s != "" {
		cmd.Target = &s
	}
	if params, ok := a.Fields["parameters"].(map[string]any); ok {
		cmd.Parameters = params
	}
	return cmd
}
