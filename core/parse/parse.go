package parse

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/jsonsift/jsonsift/core/extract"
)

// As parses a string of model output into the specified type T.
// For primitive types (string, bool, int, uint, float), it performs direct
// conversion after trimming whitespace. For complex types (structs, maps,
// slices), it runs the content through [extract.JSON] and unmarshals the
// result. If unmarshaling fails, it attempts to repair the JSON with
// jsonrepair and retries, and finally tries to unwrap schema-echo
// structures before giving up.
//
// Example usage:
//
//	type Person struct {
//	    Name string `json:"name"`
//	    Age  int    `json:"age"`
//	}
//
//	// Parse a fenced response
//	person, err := parse.As[Person]("```json\n{\"name\": \"John\", \"age\": 30}\n```")
//
//	// Parse an invalid JSON string (auto-repaired)
//	person, err := parse.As[Person](`{name: 'John', age: 30}`)
//
//	// Parse primitive types
//	num, err := parse.As[int]("42")
//	flag, err := parse.As[bool]("true")
func As[T any](content string) (T, error) {
	var result T

	switch reflect.TypeFor[T]().Kind() {
	case reflect.String:
		trimmed := strings.TrimSpace(content)
		// A quoted JSON string is unwrapped so callers get the bare text.
		if len(trimmed) > 0 && trimmed[0] == '"' {
			var s string
			if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
				reflect.ValueOf(&result).Elem().SetString(s)
				return result, nil
			}
		}
		if len(trimmed) > 0 && trimmed[0] == '{' {
			if unwrapped, err := unwrapPrimitive(trimmed); err == nil {
				reflect.ValueOf(&result).Elem().SetString(unwrapped)
				return result, nil
			}
		}
		reflect.ValueOf(&result).Elem().SetString(content)
		return result, nil

	case reflect.Bool:
		val, err := strconv.ParseBool(strings.TrimSpace(content))
		if err != nil {
			if unwrapped, unwrapErr := unwrapPrimitive(content); unwrapErr == nil {
				if val, err = strconv.ParseBool(unwrapped); err == nil {
					reflect.ValueOf(&result).Elem().SetBool(val)
					return result, nil
				}
			}
			return result, fmt.Errorf("failed to parse content as bool: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetBool(val)
		return result, nil

	case reflect.Float32, reflect.Float64:
		val, err := strconv.ParseFloat(strings.TrimSpace(content), 64)
		if err != nil {
			if unwrapped, unwrapErr := unwrapPrimitive(content); unwrapErr == nil {
				if val, err = strconv.ParseFloat(unwrapped, 64); err == nil {
					reflect.ValueOf(&result).Elem().SetFloat(val)
					return result, nil
				}
			}
			return result, fmt.Errorf("failed to parse content as float: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetFloat(val)
		return result, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		val, err := strconv.ParseInt(strings.TrimSpace(content), 10, 64)
		if err != nil {
			if unwrapped, unwrapErr := unwrapPrimitive(content); unwrapErr == nil {
				if val, err = strconv.ParseInt(unwrapped, 10, 64); err == nil {
					reflect.ValueOf(&result).Elem().SetInt(val)
					return result, nil
				}
			}
			return result, fmt.Errorf("failed to parse content as int: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetInt(val)
		return result, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		val, err := strconv.ParseUint(strings.TrimSpace(content), 10, 64)
		if err != nil {
			if unwrapped, unwrapErr := unwrapPrimitive(content); unwrapErr == nil {
				if val, err = strconv.ParseUint(unwrapped, 10, 64); err == nil {
					reflect.ValueOf(&result).Elem().SetUint(val)
					return result, nil
				}
			}
			return result, fmt.Errorf("failed to parse content as uint: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetUint(val)
		return result, nil

	default:
		// Structs, maps and slices go through extraction first, so fenced
		// or prose-wrapped values unmarshal like clean ones.
		candidate := extract.JSON(content)
		err := json.Unmarshal([]byte(candidate), &result)
		if err == nil {
			return result, nil
		}

		// When extraction fell back to the input, point the repairer at the
		// first bracket so leading prose does not get in its way.
		repairBase := candidate
		if start := strings.IndexAny(repairBase, "{["); start > 0 {
			repairBase = repairBase[start:]
		}

		repaired, repairErr := jsonrepair.JSONRepair(repairBase)
		if repairErr != nil {
			return result, fmt.Errorf("failed to unmarshal content as %T and failed to repair JSON: unmarshal error: %w, repair error: %v", result, err, repairErr)
		}

		if err = json.Unmarshal([]byte(repaired), &result); err == nil {
			return result, nil
		}

		// LLMs sometimes echo the JSON schema back with the data tucked
		// inside {type, value} wrappers.
		if unwrapped, unwrapErr := unwrapSchemaEcho(repaired); unwrapErr == nil {
			if json.Unmarshal([]byte(unwrapped), &result) == nil {
				return result, nil
			}
		}

		return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w (original content: %s, repaired: %s)", result, err, content, repaired)
	}
}
