package validator

import (
	"fmt"

	"github.com/temic137/forms-sub004/internal/models"
)

// DefinitionValidator checks form definition consistency that struct tags
// cannot express. It runs at authoring time; published definitions that
// still carry dangling references degrade at runtime instead of failing.
type DefinitionValidator struct{}

func NewDefinitionValidator() *DefinitionValidator {
	return &DefinitionValidator{}
}

// Validate inspects s if it is, or carries, a form definition. Other values pass.
func (v *DefinitionValidator) Validate(s interface{}) ValidationErrors {
	switch t := s.(type) {
	case models.FormDefinition:
		return v.ValidateDefinition(&t)
	case *models.FormDefinition:
		return v.ValidateDefinition(t)
	case interface{ FormDefinition() *models.FormDefinition }:
		return v.ValidateDefinition(t.FormDefinition())
	default:
		return nil
	}
}

func (v *DefinitionValidator) ValidateDefinition(def *models.FormDefinition) ValidationErrors {
	var errs ValidationErrors
	if def == nil {
		return errs
	}

	fieldIDs := make(map[string]bool, len(def.Fields))
	for i, f := range def.Fields {
		path := fmt.Sprintf("definition.fields[%d]", i)
		if fieldIDs[f.ID] {
			errs.Add(path+".id", fmt.Sprintf("duplicates field id %q", f.ID), "unique")
		}
		fieldIDs[f.ID] = true

		if f.Type.IsChoice() && len(f.Options) == 0 {
			errs.Add(path+".options", "is required for choice fields", "required")
		}
		if f.QuizConfig != nil {
			if p, ok := f.QuizConfig.Points.Float(); ok && p < 0 {
				errs.Add(path+".quiz_config.points", "must not be negative", "min")
			}
		}
	}

	for i, f := range def.Fields {
		for j, rule := range f.ConditionalRules {
			if rule.SourceFieldID != "" && !fieldIDs[rule.SourceFieldID] {
				errs.Add(fmt.Sprintf("definition.fields[%d].conditional_rules[%d].source_field_id", i, j),
					fmt.Sprintf("references unknown field %q", rule.SourceFieldID), "exists")
			}
		}
	}

	errs = append(errs, validateSteps(def, fieldIDs)...)
	return errs
}

// validateSteps checks step references and that no field is placed in more
// than one step, whether through a step's field_ids or the field's step_id.
func validateSteps(def *models.FormDefinition, fieldIDs map[string]bool) ValidationErrors {
	var errs ValidationErrors

	if def.MultiStep.Enabled && len(def.MultiStep.Steps) == 0 {
		errs.Add("definition.multi_step.steps", "must contain at least one step when multi-step is enabled", "required")
	}

	stepIDs := make(map[string]bool, len(def.MultiStep.Steps))
	placement := make(map[string]string, len(def.Fields))
	for i, s := range def.MultiStep.Steps {
		path := fmt.Sprintf("definition.multi_step.steps[%d]", i)
		if stepIDs[s.ID] {
			errs.Add(path+".id", fmt.Sprintf("duplicates step id %q", s.ID), "unique")
		}
		stepIDs[s.ID] = true

		for j, id := range s.FieldIDs {
			fieldPath := fmt.Sprintf("%s.field_ids[%d]", path, j)
			if !fieldIDs[id] {
				errs.Add(fieldPath, fmt.Sprintf("references unknown field %q", id), "exists")
				continue
			}
			if other, ok := placement[id]; ok && other != s.ID {
				errs.Add(fieldPath, fmt.Sprintf("field %q is already in step %q", id, other), "single_step")
				continue
			}
			placement[id] = s.ID
		}
	}

	for i, f := range def.Fields {
		if f.StepID == "" {
			continue
		}
		path := fmt.Sprintf("definition.fields[%d].step_id", i)
		if !stepIDs[f.StepID] {
			errs.Add(path, fmt.Sprintf("references unknown step %q", f.StepID), "exists")
			continue
		}
		if other, ok := placement[f.ID]; ok && other != f.StepID {
			errs.Add(path, fmt.Sprintf("field %q is already in step %q", f.ID, other), "single_step")
		}
	}

	return errs
}
