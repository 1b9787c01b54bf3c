package filter

import (
	"encoding/json"
	"fmt"

	"github.com/jmespath/go-jmespath"
)

// Apply runs a JMESPath expression over any JSON-encodable value and returns the
// indented JSON result. An empty expression returns the value unchanged.
//
//	[?mode=='keepalive'].throughput
func Apply(value any, expression string) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to encode value: %w", err)
	}
	if expression == "" {
		return indent(raw)
	}
	return applyJMESPath(raw, expression)
}

// applyJMESPath applies a JMESPath expression to a JSON document
func applyJMESPath(doc []byte, expression string) (string, error) {
	// Decode into generic types so struct tags drive the field names
	var data interface{}
	if err := json.Unmarshal(doc, &data); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}

	jp, err := jmespath.Compile(expression)
	if err != nil {
		return "", fmt.Errorf("invalid JMESPath expression '%s': %w", expression, err)
	}

	result, err := jp.Search(data)
	if err != nil {
		return "", fmt.Errorf("JMESPath search failed: %w", err)
	}

	if result == nil {
		return "null", nil
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}

	return string(output), nil
}

func indent(raw []byte) (string, error) {
	var data interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	output, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(output), nil
}
