package schema

import (
	"sort"
	"strings"
	"unicode"
)

// DefaultSimilarityThreshold is the minimum similarity score for two field
// definitions with different ids to be treated as a rename
const DefaultSimilarityThreshold = 0.8

// Differ computes the structural differences between two schema versions.
// Exact id matches are compared structurally; fields that only exist on one
// side go through similarity-based rename detection before being reported
// as added or removed.
type Differ struct {
	SimilarityThreshold float64
}

// NewDiffer creates a Differ with the default similarity threshold
func NewDiffer() *Differ {
	return &Differ{SimilarityThreshold: DefaultSimilarityThreshold}
}

// Diff returns the field changes between two schema versions.
// Identical schemas produce no changes. Every field id appearing in either
// version appears in at most one change.
func (d *Differ) Diff(old, new *FormSchema) []FieldChange {
	return d.DiffFields(old.Fields, new.Fields)
}

// DiffFields computes changes between two ordered field sets
func (d *Differ) DiffFields(oldFields, newFields []FieldDefinition) []FieldChange {
	changes := []FieldChange{}

	oldByID := make(map[string]FieldDefinition, len(oldFields))
	for _, f := range oldFields {
		oldByID[f.FieldID] = f
	}
	newByID := make(map[string]FieldDefinition, len(newFields))
	for _, f := range newFields {
		newByID[f.FieldID] = f
	}

	consumed := make(map[string]struct{}, len(oldFields))

	// First pass: exact matches and rename candidates, in new-schema order
	for _, newField := range newFields {
		if oldField, ok := oldByID[newField.FieldID]; ok {
			consumed[newField.FieldID] = struct{}{}
			if !oldField.StructurallyEqual(newField) {
				prev := oldField
				next := newField
				changes = append(changes, FieldChange{
					FieldID:    newField.FieldID,
					ChangeType: ChangeTypeModified,
					Previous:   &prev,
					New:        &next,
				})
			}
			continue
		}

		if match, ok := d.findRenamed(newField, oldFields, newByID, consumed); ok {
			consumed[match.FieldID] = struct{}{}
			next := newField
			changes = append(changes, FieldChange{
				FieldID:    newField.FieldID,
				ChangeType: ChangeTypeModified,
				Previous:   &match,
				New:        &next,
			})
			continue
		}

		next := newField
		changes = append(changes, FieldChange{
			FieldID:    newField.FieldID,
			ChangeType: ChangeTypeAdded,
			New:        &next,
		})
	}

	// Second pass: anything in the old schema not consumed above was removed
	for _, oldField := range oldFields {
		if _, ok := consumed[oldField.FieldID]; ok {
			continue
		}
		prev := oldField
		changes = append(changes, FieldChange{
			FieldID:    oldField.FieldID,
			ChangeType: ChangeTypeRemoved,
			Previous:   &prev,
		})
	}

	return changes
}

// findRenamed looks for the best rename source among fields present only in
// the old schema. Candidates are scanned in ascending field-id order so that
// equally similar candidates resolve to the lowest id.
func (d *Differ) findRenamed(newField FieldDefinition, oldFields []FieldDefinition, newByID map[string]FieldDefinition, consumed map[string]struct{}) (FieldDefinition, bool) {
	candidates := make([]FieldDefinition, 0, len(oldFields))
	for _, f := range oldFields {
		if _, inNew := newByID[f.FieldID]; inNew {
			continue
		}
		if _, taken := consumed[f.FieldID]; taken {
			continue
		}
		candidates = append(candidates, f)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].FieldID < candidates[j].FieldID
	})

	var best FieldDefinition
	highest := 0.0
	found := false

	for _, candidate := range candidates {
		score := fieldSimilarity(newField, candidate)
		if score >= d.SimilarityThreshold && score > highest {
			highest = score
			best = candidate
			found = true
		}
	}

	return best, found
}

// fieldSimilarity scores two definitions by the similarity of their labels,
// falling back to field ids when either label is empty
func fieldSimilarity(a, b FieldDefinition) float64 {
	left, right := a.Label, b.Label
	if left == "" || right == "" {
		left, right = a.FieldID, b.FieldID
	}
	return similarity(normalizeForMatch(left), normalizeForMatch(right))
}

// normalizeForMatch lowercases and strips formatting characters so that
// comparison is case-insensitive and punctuation-insensitive
func normalizeForMatch(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// similarity returns a normalized edit-distance ratio in [0, 1]
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	dist := levenshtein(a, b)
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	return 1.0 - float64(dist)/float64(longest)
}

// levenshtein computes the edit distance between two strings
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
