package validator

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/temic137/forms-sub004/internal/engine"
	"github.com/temic137/forms-sub004/internal/models"
)

const msgRequired = "is required"

// AnswerValidator checks respondent answers against field definitions. It
// satisfies engine.StepValidator so the navigator can gate steps with it.
type AnswerValidator struct {
	validate *validator.Validate
	fields   map[string]models.Field
}

var _ engine.StepValidator = (*AnswerValidator)(nil)

// NewAnswerValidator expects validate to have the answer_option tag registered.
func NewAnswerValidator(validate *validator.Validate, fields []models.Field) *AnswerValidator {
	byID := make(map[string]models.Field, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}
	return &AnswerValidator{validate: validate, fields: byID}
}

func (v *AnswerValidator) ValidateStep(ctx context.Context, req engine.StepValidationRequest) (engine.StepValidationResult, error) {
	if err := ctx.Err(); err != nil {
		return engine.StepValidationResult{}, err
	}
	errs := v.ValidateFields(req.FieldIDs, req.Answers)
	return engine.StepValidationResult{Valid: len(errs) == 0, Errors: errs}, nil
}

// ValidateFields validates the answers of the given fields. Unknown IDs and
// display fields are ignored.
func (v *AnswerValidator) ValidateFields(fieldIDs []string, answers engine.Answers) ValidationErrors {
	var errs ValidationErrors
	for _, id := range fieldIDs {
		f, ok := v.fields[id]
		if !ok || f.Type.IsDisplay() {
			continue
		}
		if fieldErrs := v.checkAnswer(f, answers.Get(id)); len(fieldErrs) > 0 {
			// Only the first failure per field is reported
			fieldErr := fieldErrs[0]
			fieldErr.Field = id
			errs = append(errs, fieldErr)
		}
	}
	return errs
}

func (v *AnswerValidator) checkAnswer(f models.Field, answer models.Value) ValidationErrors {
	if isBlank(answer) {
		if f.Required {
			return ValidationErrors{{Message: msgRequired, Rule: "required"}}
		}
		return nil
	}

	var err error
	switch {
	case f.Type.IsNumeric():
		if answer.Kind() == models.KindNumber {
			n, _ := answer.Float()
			err = v.validate.Var(n, "numeric")
		} else {
			err = v.validate.Var(strings.TrimSpace(answer.Text()), "numeric")
		}
	case f.Type.IsChoice() && len(f.Options) > 0:
		for _, item := range answer.Items() {
			if err = v.validate.VarWithValue(item, f.Options, "answer_option"); err != nil {
				break
			}
		}
	case f.Type == models.FieldEmail:
		err = v.validate.Var(strings.TrimSpace(answer.Text()), "email")
	}
	if err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return ValidationErrors{{Message: err.Error()}}
	}
	return nil
}

func isBlank(v models.Value) bool {
	if v.IsEmpty() {
		return true
	}
	return v.Kind() == models.KindString && strings.TrimSpace(v.Text()) == ""
}

// isAnswerOption reports whether the value is one of the options passed as
// the comparison value of VarWithValue.
func isAnswerOption(fl validator.FieldLevel) bool {
	options, ok := fl.Top().Interface().([]string)
	if !ok {
		return false
	}
	value := fl.Field().String()
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}
