package decision

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// FieldsError is a local validation failure of the fields buffer. It never
// reaches the network.
type FieldsError struct {
	Reason string
}

func (e *FieldsError) Error() string {
	return "Fields JSON error: " + e.Reason
}

// ParseFields decodes the user-entered fields text. Blank input is an empty
// object; anything else must be a single JSON object.
func ParseFields(raw string) (map[string]any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, &FieldsError{Reason: err.Error()}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &FieldsError{Reason: "unexpected data after the JSON object"}
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return nil, &FieldsError{Reason: fmt.Sprintf("Fields JSON must be an object, got %s.", jsonKind(value))}
	}
	return obj, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
