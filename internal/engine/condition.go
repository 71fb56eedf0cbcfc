// Package engine holds the form runtime: conditional visibility, multi-step
// navigation and quiz scoring. Everything here is a pure function of its
// inputs except the Navigator, whose mutable state is owned by the caller.
package engine

import (
	"strings"

	"github.com/temic137/forms-sub004/internal/models"
)

// Answers maps field IDs to the respondent's current values.
type Answers map[string]models.Value

// Get returns the answer for fieldID, or an absent Value when there is none.
func (a Answers) Get(fieldID string) models.Value {
	if a == nil {
		return models.Absent()
	}
	return a[fieldID]
}

// Evaluate tests one atomic condition. It never panics: unknown operators and
// non-numeric operands of numeric comparisons evaluate to false.
func Evaluate(op models.ConditionOperator, fieldValue, target models.Value) bool {
	switch op {
	case models.OpIsEmpty:
		return fieldValue.IsEmpty()
	case models.OpIsNotEmpty:
		return !fieldValue.IsEmpty()
	case models.OpEquals:
		return equals(fieldValue, target)
	case models.OpNotEquals:
		return !equals(fieldValue, target)
	case models.OpContains:
		if fieldValue.IsAbsent() {
			return false
		}
		return strings.Contains(strings.ToLower(fieldValue.Text()), strings.ToLower(target.Text()))
	case models.OpGreaterThan:
		a, b, ok := numericPair(fieldValue, target)
		return ok && a > b
	case models.OpLessThan:
		a, b, ok := numericPair(fieldValue, target)
		return ok && a < b
	default:
		return false
	}
}

func equals(fieldValue, target models.Value) bool {
	if fieldValue.IsAbsent() {
		return false
	}
	return fieldValue.Text() == target.Text()
}

func numericPair(a, b models.Value) (float64, float64, bool) {
	x, ok := a.Float()
	if !ok {
		return 0, 0, false
	}
	y, ok := b.Float()
	if !ok {
		return 0, 0, false
	}
	return x, y, true
}
