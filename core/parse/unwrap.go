package parse

import (
	"encoding/json"
	"fmt"
)

// unwrapPrimitive extracts a primitive from a schema-echo wrapper such as
// {"type": "integer", "value": 30} and returns its string representation.
func unwrapPrimitive(content string) (string, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return "", err
	}

	if _, hasType := data["type"]; !hasType {
		return "", fmt.Errorf("not a schema-wrapped value")
	}
	value, hasValue := data["value"]
	if !hasValue || len(data) != 2 {
		return "", fmt.Errorf("not a schema-wrapped value")
	}

	switch v := value.(type) {
	case string:
		return v, nil
	case float64, bool:
		return fmt.Sprintf("%v", v), nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	}
}

// unwrapSchemaEcho rewrites a document in which values are wrapped in
// {"type": ..., "value": ...} envelopes, a common failure mode when a model
// confuses the JSON schema it was given with the data it was asked for.
//
// Example input:
//
//	{"name": {"type": "string", "value": "John"}, "age": {"type": "integer", "value": 30}}
//
// Example output:
//
//	{"name": "John", "age": 30}
func unwrapSchemaEcho(jsonStr string) (string, error) {
	var data any
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return "", err
	}

	result, err := json.Marshal(unwrapValue(data))
	if err != nil {
		return "", err
	}
	return string(result), nil
}

// unwrapValue walks a decoded document and replaces every two-field
// {type, value} object with its value, recursively. Objects that carry
// additional fields are left alone so legitimate type/value data survives.
func unwrapValue(data any) any {
	switch v := data.(type) {
	case map[string]any:
		if _, hasType := v["type"]; hasType {
			if value, hasValue := v["value"]; hasValue && len(v) == 2 {
				return unwrapValue(value)
			}
		}
		result := make(map[string]any, len(v))
		for key, val := range v {
			result[key] = unwrapValue(val)
		}
		return result

	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = unwrapValue(val)
		}
		return result

	default:
		return data
	}
}
