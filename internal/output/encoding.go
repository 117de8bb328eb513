package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DeterministicEncode produces byte-identical JSON for equal values:
// sorted object keys, floats rounded to six decimals, and null, empty
// and zero-length values omitted.
func DeterministicEncode(v any) ([]byte, error) {
	generic, err := toGeneric(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(prune(generic)); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// DeterministicEncodeIndented is DeterministicEncode with indentation.
func DeterministicEncodeIndented(v any, indent string) ([]byte, error) {
	compact, err := DeterministicEncode(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeYAML renders v as YAML using its JSON field names. Unlike
// DeterministicEncode, empty values are kept so that YAML and JSON
// output describe the same document.
func EncodeYAML(v any) ([]byte, error) {
	generic, err := toGeneric(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(roundFloats(generic)); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// toGeneric converts v into maps, slices and scalars through its JSON
// form, so custom marshalers and struct tags are honoured.
func toGeneric(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return generic, nil
}

// prune rounds floats and drops nulls, empty strings, empty collections
// and false booleans. Zero numbers are kept because counts of zero carry
// meaning in reports.
func prune(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if p := prune(item); p != nil {
				out[k] = p
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case []any:
		if len(val) == 0 {
			return nil
		}
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = prune(item)
		}
		return out
	case string:
		if val == "" {
			return nil
		}
		return val
	case bool:
		if !val {
			return nil
		}
		return val
	case float64:
		return RoundFloat(val)
	default:
		return val
	}
}

func roundFloats(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = roundFloats(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = roundFloats(item)
		}
		return val
	case float64:
		return RoundFloat(val)
	default:
		return val
	}
}
