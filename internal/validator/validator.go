package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/temic137/forms-sub004/internal/models"
)

// Validator combines struct tag validation with form definition checks.
type Validator struct {
	structValidator     *validator.Validate
	definitionValidator *DefinitionValidator
}

func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:     structValidator,
		definitionValidator: NewDefinitionValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate runs struct tag validation and then, for values carrying a form
// definition, the definition consistency checks.
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		return err
	}

	if errs := v.definitionValidator.Validate(s); len(errs) > 0 {
		return errs
	}

	return nil
}

func (v *Validator) Definition() *DefinitionValidator {
	return v.definitionValidator
}

// Answers returns a validator for respondent answers to the given fields.
func (v *Validator) Answers(fields []models.Field) *AnswerValidator {
	return NewAnswerValidator(v.structValidator, fields)
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("field_type", oneOfStrings(models.FieldTypes))
	validate.RegisterValidation("rule_operator", oneOfStrings(models.ConditionOperators))
	validate.RegisterValidation("rule_action", oneOfStrings([]models.RuleAction{
		models.ActionShow,
		models.ActionHide,
	}))
	validate.RegisterValidation("logic_operator", oneOfStrings([]models.LogicOperator{
		models.LogicAnd,
		models.LogicOr,
	}))
	validate.RegisterValidation("match_type", oneOfStrings([]models.MatchType{
		models.MatchExact,
		models.MatchContains,
	}))
	validate.RegisterValidation("form_status", oneOfStrings([]models.FormStatus{
		models.FormStatusDraft,
		models.FormStatusPublished,
		models.FormStatusClosed,
	}))
	validate.RegisterValidation("answer_option", isAnswerOption)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// oneOfStrings builds a validation func accepting any of the given string enum values.
func oneOfStrings[T ~string](valid []T) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, v := range valid {
			if string(v) == value {
				return true
			}
		}
		return false
	}
}
