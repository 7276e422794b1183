package migration

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/formvault/backend/internal/domain/schema"
)

// ConversionError reports a value that cannot be coerced from one field type
// to another. It never escapes the engine raw: validation translates it into
// a recorded error string.
type ConversionError struct {
	Value    any
	FromType schema.FieldType
	ToType   schema.FieldType
}

// Error implements the error interface
func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %v from %s to %s", e.Value, e.FromType, e.ToType)
}

// ConvertValue coerces a field value from its old declared type to its new
// declared type. Unsupported pairs and unparseable values fail with a
// ConversionError rather than producing silently corrupted data.
func ConvertValue(value any, fromType, toType schema.FieldType) (any, error) {
	if fromType == toType {
		return value, nil
	}

	fail := func() (any, error) {
		return nil, &ConversionError{Value: value, FromType: fromType, ToType: toType}
	}

	switch toType {
	case schema.FieldTypeNumber:
		switch v := value.(type) {
		case string:
			trimmed := strings.TrimSpace(v)
			if isDigits(trimmed) {
				n, err := strconv.Atoi(trimmed)
				if err != nil {
					return fail()
				}
				return n, nil
			}
			if strings.Contains(v, ".") {
				f, err := strconv.ParseFloat(trimmed, 64)
				if err != nil {
					return fail()
				}
				return f, nil
			}
			return fail()
		case int, int32, int64, float32, float64:
			return v, nil
		}
		return fail()

	case schema.FieldTypeText:
		return fmt.Sprint(value), nil

	case schema.FieldTypeBoolean:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			switch strings.ToLower(v) {
			case "true", "1", "yes":
				return true, nil
			case "false", "0", "no":
				return false, nil
			}
			return fail()
		}
		if n, ok := numericValue(value); ok {
			return n != 0, nil
		}
		return fail()

	case schema.FieldTypeSelection:
		switch v := value.(type) {
		case []any:
			return v, nil
		case []string:
			return v, nil
		case string:
			parts := strings.Split(v, ",")
			items := make([]string, len(parts))
			for i, part := range parts {
				items[i] = strings.TrimSpace(part)
			}
			return items, nil
		}
		return fail()

	case schema.FieldTypeComposite:
		if v, ok := value.(map[string]any); ok {
			return v, nil
		}
		return fail()
	}

	return fail()
}

// isDigits reports whether s is non-empty and consists only of decimal digits
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// numericValue extracts a float64 from any supported numeric representation
func numericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}
