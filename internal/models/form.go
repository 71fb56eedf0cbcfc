package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type FieldType string

const (
	FieldText        FieldType = "text"
	FieldTextarea    FieldType = "textarea"
	FieldEmail       FieldType = "email"
	FieldPhone       FieldType = "phone"
	FieldURL         FieldType = "url"
	FieldNumber      FieldType = "number"
	FieldSelect      FieldType = "select"
	FieldRadio       FieldType = "radio"
	FieldCheckbox    FieldType = "checkbox"
	FieldMultiSelect FieldType = "multiselect"
	FieldDate        FieldType = "date"
	FieldTime        FieldType = "time"
	FieldRating      FieldType = "rating"
	FieldScale       FieldType = "scale"
	FieldFile        FieldType = "file"
	FieldDisplay     FieldType = "display"
)

// FieldTypes lists every supported input kind.
var FieldTypes = []FieldType{
	FieldText, FieldTextarea, FieldEmail, FieldPhone, FieldURL, FieldNumber,
	FieldSelect, FieldRadio, FieldCheckbox, FieldMultiSelect, FieldDate, FieldTime,
	FieldRating, FieldScale, FieldFile, FieldDisplay,
}

// IsChoice reports whether answers to the field are picked from Options.
func (t FieldType) IsChoice() bool {
	switch t {
	case FieldSelect, FieldRadio, FieldCheckbox, FieldMultiSelect:
		return true
	}
	return false
}

// IsNumeric reports whether answers to the field must coerce to a number.
func (t FieldType) IsNumeric() bool {
	switch t {
	case FieldNumber, FieldRating, FieldScale:
		return true
	}
	return false
}

// IsDisplay reports whether the field only renders content and takes no answer.
func (t FieldType) IsDisplay() bool {
	return t == FieldDisplay
}

type ConditionOperator string

const (
	OpEquals      ConditionOperator = "equals"
	OpNotEquals   ConditionOperator = "notEquals"
	OpContains    ConditionOperator = "contains"
	OpGreaterThan ConditionOperator = "greaterThan"
	OpLessThan    ConditionOperator = "lessThan"
	OpIsEmpty     ConditionOperator = "isEmpty"
	OpIsNotEmpty  ConditionOperator = "isNotEmpty"
)

var ConditionOperators = []ConditionOperator{
	OpEquals, OpNotEquals, OpContains, OpGreaterThan, OpLessThan, OpIsEmpty, OpIsNotEmpty,
}

type RuleAction string

const (
	ActionShow RuleAction = "show"
	ActionHide RuleAction = "hide"
)

type LogicOperator string

const (
	LogicAnd LogicOperator = "AND"
	LogicOr  LogicOperator = "OR"
)

type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchContains MatchType = "contains"
)

type FormStatus string

const (
	FormStatusDraft     FormStatus = "draft"
	FormStatusPublished FormStatus = "published"
	FormStatusClosed    FormStatus = "closed"
)

// ConditionalRule shows or hides its owning field depending on another
// field's live answer.
type ConditionalRule struct {
	SourceFieldID string            `json:"source_field_id" validate:"required"`
	Operator      ConditionOperator `json:"operator" validate:"required,rule_operator"`
	Value         Value             `json:"value"`
	Action        RuleAction        `json:"action" validate:"omitempty,rule_action"`
	LogicOperator LogicOperator     `json:"logic_operator,omitempty" validate:"omitempty,logic_operator"`
}

// QuizConfig is the per-field answer key used for automatic scoring.
type QuizConfig struct {
	CorrectAnswer       Value     `json:"correct_answer"`
	Points              Value     `json:"points"`
	Explanation         string    `json:"explanation,omitempty"`
	CaseSensitive       bool      `json:"case_sensitive"`
	MatchType           MatchType `json:"match_type,omitempty" validate:"omitempty,match_type"`
	AcceptPartialCredit bool      `json:"accept_partial_credit"`
}

type Field struct {
	ID               string            `json:"id" validate:"required,max=100"`
	Type             FieldType         `json:"type" validate:"required,field_type"`
	Label            string            `json:"label" validate:"max=500"`
	Placeholder      string            `json:"placeholder,omitempty"`
	HelpText         string            `json:"help_text,omitempty"`
	Required         bool              `json:"required"`
	Options          []string          `json:"options,omitempty"`
	ConditionalRules []ConditionalRule `json:"conditional_rules,omitempty" validate:"omitempty,dive"`
	QuizConfig       *QuizConfig       `json:"quiz_config,omitempty"`
	Order            int               `json:"order"`
	StepID           string            `json:"step_id,omitempty"`
}

type Step struct {
	ID          string   `json:"id" validate:"required"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Order       int      `json:"order"`
	FieldIDs    []string `json:"field_ids"`
}

type MultiStepConfig struct {
	Enabled             bool   `json:"enabled"`
	Steps               []Step `json:"steps" validate:"omitempty,dive"`
	ShowProgressBar     bool   `json:"show_progress_bar"`
	AllowBackNavigation bool   `json:"allow_back_navigation"`
}

// QuizSettings is the form-level quiz mode configuration.
type QuizSettings struct {
	Enabled            bool     `json:"enabled"`
	PassingScore       *float64 `json:"passing_score,omitempty" validate:"omitempty,min=0,max=100"`
	ShowResults        bool     `json:"show_results"`
	ShowCorrectAnswers bool     `json:"show_correct_answers"`
}

// FormDefinition is the runtime view of a form: everything the engine reads.
type FormDefinition struct {
	Fields    []Field         `json:"fields" validate:"required,min=1,dive"`
	MultiStep MultiStepConfig `json:"multi_step"`
	Quiz      QuizSettings    `json:"quiz"`
}

// FieldByID returns the field with the given ID, if any.
func (d FormDefinition) FieldByID(id string) (Field, bool) {
	for _, f := range d.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

type Form struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title" gorm:"not null;size:200;index"`
	Description *string    `json:"description" gorm:"type:text"`
	Status      FormStatus `json:"status" gorm:"default:draft;index"`
	CreatedBy   string     `json:"created_by" gorm:"not null;index;size:255"`

	// Definition
	Fields    datatypes.JSON `json:"fields" gorm:"type:jsonb"`     // []Field
	MultiStep datatypes.JSON `json:"multi_step" gorm:"type:jsonb"` // MultiStepConfig
	Quiz      datatypes.JSON `json:"quiz" gorm:"type:jsonb"`       // QuizSettings

	Version     int        `json:"version" gorm:"default:1"`
	PublishedAt *time.Time `json:"published_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Computed fields (not stored)
	SubmissionCount int64 `json:"submission_count" gorm:"-"`
}

func (Form) TableName() string {
	return "forms"
}

// Definition decodes the stored JSON columns.
func (f *Form) Definition() (FormDefinition, error) {
	var def FormDefinition
	if err := decodeJSON(f.Fields, &def.Fields); err != nil {
		return def, fmt.Errorf("decode fields: %w", err)
	}
	if err := decodeJSON(f.MultiStep, &def.MultiStep); err != nil {
		return def, fmt.Errorf("decode multi-step config: %w", err)
	}
	if err := decodeJSON(f.Quiz, &def.Quiz); err != nil {
		return def, fmt.Errorf("decode quiz settings: %w", err)
	}
	return def, nil
}

// SetDefinition encodes def into the JSON columns.
func (f *Form) SetDefinition(def FormDefinition) error {
	fields, err := json.Marshal(def.Fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	multiStep, err := json.Marshal(def.MultiStep)
	if err != nil {
		return fmt.Errorf("encode multi-step config: %w", err)
	}
	quiz, err := json.Marshal(def.Quiz)
	if err != nil {
		return fmt.Errorf("encode quiz settings: %w", err)
	}
	f.Fields = datatypes.JSON(fields)
	f.MultiStep = datatypes.JSON(multiStep)
	f.Quiz = datatypes.JSON(quiz)
	return nil
}

func (f *Form) IsPublished() bool {
	return f.Status == FormStatusPublished
}
