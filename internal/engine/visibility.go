package engine

import (
	"sort"

	"github.com/temic137/forms-sub004/internal/models"
)

// IsVisible combines a field's rules into a show/hide decision.
//
// Rules are split into an AND group (the default) and an OR group. Every AND
// rule must hold and, when the OR group is non-empty, at least one OR rule
// must hold. A rule "holds" when its condition is met for a show action, or
// not met for a hide action. A field without rules is always visible.
func IsVisible(rules []models.ConditionalRule, answers Answers) bool {
	if len(rules) == 0 {
		return true
	}

	andResult, orResult := true, true
	orSeen := false
	for _, rule := range rules {
		holds := ruleHolds(rule, answers)
		if rule.LogicOperator == models.LogicOr {
			if !orSeen {
				orSeen = true
				orResult = false
			}
			orResult = orResult || holds
			continue
		}
		andResult = andResult && holds
	}

	return andResult && orResult
}

func ruleHolds(rule models.ConditionalRule, answers Answers) bool {
	met := Evaluate(rule.Operator, answers.Get(rule.SourceFieldID), rule.Value)
	if rule.Action == models.ActionHide {
		return !met
	}
	return met
}

// VisibilityMap reports the visibility of every field in fields.
func VisibilityMap(fields []models.Field, answers Answers) map[string]bool {
	visible := make(map[string]bool, len(fields))
	for _, f := range fields {
		visible[f.ID] = IsVisible(f.ConditionalRules, answers)
	}
	return visible
}

// VisibleFieldIDs returns the IDs of currently visible fields in display order.
// Each field is judged independently against the full answer set, so a hidden
// field's value can still drive another field's rules.
func VisibleFieldIDs(fields []models.Field, answers Answers) []string {
	ordered := sortedFields(fields)
	ids := make([]string, 0, len(ordered))
	for _, f := range ordered {
		if IsVisible(f.ConditionalRules, answers) {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

// OrderedFields returns a copy of fields sorted by Order. Ties keep their
// definition order.
func OrderedFields(fields []models.Field) []models.Field {
	return sortedFields(fields)
}

func sortedFields(fields []models.Field) []models.Field {
	ordered := make([]models.Field, len(fields))
	copy(ordered, fields)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})
	return ordered
}
