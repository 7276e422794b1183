package migration

import (
	"fmt"
	"maps"
	"regexp"
	"sort"
	"unicode/utf8"

	"github.com/formvault/backend/internal/domain/schema"
	"github.com/formvault/backend/internal/domain/shared"
)

// ValidateChain dry-runs a strategy chain against a record and collects every
// problem it would hit. The caller-supplied record is never mutated; mappings
// are applied to a working copy so later strategies in the chain see the
// renamed keys, exactly as execution would.
func ValidateChain(path []Strategy, data map[string]any) []string {
	errs := []string{}
	working := cloneRecord(data)

	for _, strategy := range path {
		applyMappings(strategy.FieldMappings, working)

		for _, fieldID := range sortedKeys(strategy.Transformations) {
			rule := strategy.Transformations[fieldID]
			value, present := working[fieldID]

			if !present {
				if rule.Required && !rule.HasDefault() {
					errs = append(errs, fmt.Sprintf("Required field %s missing with no default", fieldID))
				}
				continue
			}
			if value == nil {
				if rule.Required && !rule.HasDefault() {
					errs = append(errs, fmt.Sprintf("Required field %s cannot be null", fieldID))
				}
				continue
			}

			if rule.ConversionRequired {
				if _, err := ConvertValue(value, rule.FromType, rule.ToType); err != nil {
					errs = append(errs, fmt.Sprintf("Field %s requires type conversion", fieldID))
				}
			}
		}

		for _, fieldID := range sortedRuleKeys(strategy.ValidationRules) {
			rules := strategy.ValidationRules[fieldID]
			value, present := working[fieldID]

			if rules.Required {
				transformation, hasTransformation := strategy.Transformations[fieldID]
				hasDefault := hasTransformation && transformation.HasDefault()
				if !present && !hasDefault {
					errs = append(errs, fmt.Sprintf("Required field %s missing with no default", fieldID))
					continue
				}
				if present && value == nil && !hasDefault {
					errs = append(errs, fmt.Sprintf("Required field %s cannot be null", fieldID))
					continue
				}
			}

			if !present || value == nil {
				continue
			}

			// Validate against the target type when a conversion applies;
			// a failed conversion was already recorded above
			if transformation, ok := strategy.Transformations[fieldID]; ok && transformation.ConversionRequired {
				converted, err := ConvertValue(value, transformation.FromType, transformation.ToType)
				if err != nil {
					continue
				}
				value = converted
			}

			value = cleanValue(value, rules)

			if s, ok := value.(string); ok {
				if rules.MinLength != nil && utf8.RuneCountInString(s) < *rules.MinLength {
					errs = append(errs, fmt.Sprintf("Field %s below minimum length", fieldID))
				}
				if rules.Pattern != "" && !matchesPattern(rules.Pattern, s) {
					errs = append(errs, fmt.Sprintf("Field %s does not match required pattern", fieldID))
				}
			} else if n, ok := numericValue(value); ok {
				if rules.Minimum != nil && n < *rules.Minimum {
					errs = append(errs, fmt.Sprintf("Field %s below minimum value", fieldID))
				}
				if rules.Maximum != nil && n > *rules.Maximum {
					errs = append(errs, fmt.Sprintf("Field %s exceeds maximum value", fieldID))
				}
			}
		}
	}

	return errs
}

// ExecuteChain applies a validated strategy chain to a record and returns the
// migrated copy. Mappings, default injection, type conversions and the
// clean/clamp step all take effect; the input record is left untouched.
func ExecuteChain(path []Strategy, data map[string]any) (map[string]any, error) {
	working := cloneRecord(data)

	for _, strategy := range path {
		applyMappings(strategy.FieldMappings, working)

		for _, fieldID := range sortedKeys(strategy.Transformations) {
			rule := strategy.Transformations[fieldID]

			// An explicit null counts as missing: defaults replace it and
			// required fields reject it
			if value, present := working[fieldID]; !present || value == nil {
				if rule.HasDefault() {
					working[fieldID] = rule.DefaultValue
				} else if rule.Required {
					if present {
						return nil, shared.NewDomainError("MISSING_REQUIRED_FIELD",
							fmt.Sprintf("Required field %s cannot be null", fieldID))
					}
					return nil, shared.NewDomainError("MISSING_REQUIRED_FIELD",
						fmt.Sprintf("Required field %s missing with no default", fieldID))
				}
			}

			if rule.ConversionRequired {
				if value, present := working[fieldID]; present && value != nil {
					converted, err := ConvertValue(value, rule.FromType, rule.ToType)
					if err != nil {
						return nil, shared.NewDomainError("CONVERSION_FAILED",
							fmt.Sprintf("Field %s requires type conversion", fieldID))
					}
					working[fieldID] = converted
				}
			}
		}

		for _, fieldID := range sortedRuleKeys(strategy.ValidationRules) {
			rules := strategy.ValidationRules[fieldID]

			if value, present := working[fieldID]; present && value != nil {
				working[fieldID] = cleanValue(value, rules)
			} else if rules.Required {
				if _, hasTransformation := strategy.Transformations[fieldID]; !hasTransformation {
					if present {
						return nil, shared.NewDomainError("MISSING_REQUIRED_FIELD",
							fmt.Sprintf("Required field %s cannot be null", fieldID))
					}
					return nil, shared.NewDomainError("MISSING_REQUIRED_FIELD",
						fmt.Sprintf("Required field %s missing with no default", fieldID))
				}
			}
		}
	}

	return working, nil
}

// applyMappings renames and drops keys in place. A nil target drops the
// field; its value is intentionally discarded without error.
func applyMappings(mappings FieldMappings, record map[string]any) {
	for _, oldID := range sortedMappingKeys(mappings) {
		newID := mappings[oldID]
		value, present := record[oldID]
		if !present {
			continue
		}

		delete(record, oldID)
		if newID != nil {
			record[*newID] = value
		}
	}
}

// cleanValue clamps a value into its rule bounds: strings truncate to
// maxLength, numbers clamp to [minimum, maximum]. Values of other kinds
// pass through unchanged. String lengths are measured in characters, not
// bytes, so truncation never splits a multi-byte rune.
func cleanValue(value any, rules schema.Properties) any {
	switch v := value.(type) {
	case string:
		if rules.MaxLength != nil {
			if runes := []rune(v); len(runes) > *rules.MaxLength {
				return string(runes[:*rules.MaxLength])
			}
		}
		return v
	case int, int32, int64, float32, float64:
		n, _ := numericValue(v)
		clamped := n
		if rules.Minimum != nil && clamped < *rules.Minimum {
			clamped = *rules.Minimum
		}
		if rules.Maximum != nil && clamped > *rules.Maximum {
			clamped = *rules.Maximum
		}
		if clamped == n {
			return v
		}
		return numberAs(clamped, v)
	}
	return value
}

// numberAs keeps an integer-kinded value integral after clamping when the
// bound itself is a whole number
func numberAs(clamped float64, original any) any {
	switch original.(type) {
	case int, int32, int64:
		if clamped == float64(int64(clamped)) {
			return int(clamped)
		}
	}
	return clamped
}

// matchesPattern checks a value against a pattern anchored at the start of
// the string. Unparseable patterns are treated as schema defects and skipped
// rather than reported against the data.
func matchesPattern(pattern, value string) bool {
	re, err := regexp.Compile("^(?:" + pattern + ")")
	if err != nil {
		return true
	}
	return re.MatchString(value)
}

// cloneRecord copies the record so chain traversal never touches the input
func cloneRecord(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	return maps.Clone(data)
}

func sortedKeys(m Transformations) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedRuleKeys(m ValidationRules) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedMappingKeys(m FieldMappings) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
