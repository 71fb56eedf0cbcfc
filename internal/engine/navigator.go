package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	apperrors "github.com/temic137/forms-sub004/internal/errors"
	"github.com/temic137/forms-sub004/internal/models"
)

var (
	ErrValidationInFlight = errors.New("step validation already in progress")
	ErrAlreadySubmitted   = errors.New("form already submitted")
	ErrNotFinalStep       = errors.New("submit is only allowed on the final step")
	ErrStepOutOfRange     = errors.New("step index out of range")
)

// NavState is the caller-owned position of one respondent in a multi-step
// form. The zero value is the initial state.
type NavState struct {
	StepIndex          int  `json:"step_index"`
	ValidationInFlight bool `json:"validation_in_flight"`
	Submitted          bool `json:"submitted"`
}

type StepValidationRequest struct {
	StepIndex int
	StepID    string
	// FieldIDs holds only the step's currently visible fields.
	FieldIDs []string
	Answers  Answers
}

type StepValidationResult struct {
	Valid  bool                       `json:"valid"`
	Errors apperrors.ValidationErrors `json:"errors,omitempty"`
}

// StepValidator decides whether the respondent may leave a step. It may block
// (remote validation); implementations should honour ctx.
type StepValidator interface {
	ValidateStep(ctx context.Context, req StepValidationRequest) (StepValidationResult, error)
}

type StepValidatorFunc func(ctx context.Context, req StepValidationRequest) (StepValidationResult, error)

func (f StepValidatorFunc) ValidateStep(ctx context.Context, req StepValidationRequest) (StepValidationResult, error) {
	return f(ctx, req)
}

// Transition describes the outcome of a navigation attempt.
type Transition struct {
	From      int                        `json:"from"`
	To        int                        `json:"to"`
	Moved     bool                       `json:"moved"`
	Submitted bool                       `json:"submitted"`
	Errors    apperrors.ValidationErrors `json:"errors,omitempty"`
}

// StepView is what a renderer needs to draw the current step.
type StepView struct {
	Index           int      `json:"index"`
	Total           int      `json:"total"`
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	FieldIDs        []string `json:"field_ids"`
	IsFirst         bool     `json:"is_first"`
	IsLast          bool     `json:"is_last"`
	CanGoBack       bool     `json:"can_go_back"`
	ShowProgressBar bool     `json:"show_progress_bar"`
	Progress        int      `json:"progress"`
}

type resolvedStep struct {
	step     models.Step
	fieldIDs []string
}

// Navigator is a finite-state machine over the ordered steps of a form. It
// holds only immutable configuration; positions live in NavState values, and
// calls against one NavState must be serialized by the caller.
type Navigator struct {
	fields       map[string]models.Field
	steps        []resolvedStep
	allowBack    bool
	showProgress bool
	validator    StepValidator
	onStepChange func(from, to int)
}

type NavigatorOption func(*Navigator)

func WithValidator(v StepValidator) NavigatorOption {
	return func(n *Navigator) { n.validator = v }
}

// WithStepChangeHook registers fn to run after every successful move.
func WithStepChangeHook(fn func(from, to int)) NavigatorOption {
	return func(n *Navigator) { n.onStepChange = fn }
}

// NewNavigator builds a navigator for fields. When multi-step mode is off, or
// no steps are configured, the whole form is a single implicit step.
func NewNavigator(fields []models.Field, cfg models.MultiStepConfig, opts ...NavigatorOption) *Navigator {
	n := &Navigator{
		fields:       make(map[string]models.Field, len(fields)),
		allowBack:    cfg.AllowBackNavigation,
		showProgress: cfg.ShowProgressBar,
	}
	for _, f := range fields {
		n.fields[f.ID] = f
	}

	ordered := sortedFields(fields)
	if !cfg.Enabled || len(cfg.Steps) == 0 {
		ids := make([]string, len(ordered))
		for i, f := range ordered {
			ids[i] = f.ID
		}
		n.steps = []resolvedStep{{fieldIDs: ids}}
	} else {
		steps := make([]models.Step, len(cfg.Steps))
		copy(steps, cfg.Steps)
		sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })

		for _, s := range steps {
			ids := s.FieldIDs
			if len(ids) == 0 {
				for _, f := range ordered {
					if f.StepID == s.ID {
						ids = append(ids, f.ID)
					}
				}
			}
			n.steps = append(n.steps, resolvedStep{step: s, fieldIDs: ids})
		}
	}

	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Navigator) StepCount() int {
	return len(n.steps)
}

func (n *Navigator) AllowBackNavigation() bool {
	return n.allowBack
}

// VisibleStepFields returns the step's field IDs that are currently visible.
// IDs that name no field in the form are dropped.
func (n *Navigator) VisibleStepFields(index int, answers Answers) ([]string, error) {
	if index < 0 || index >= len(n.steps) {
		return nil, ErrStepOutOfRange
	}
	ids := make([]string, 0, len(n.steps[index].fieldIDs))
	for _, id := range n.steps[index].fieldIDs {
		f, ok := n.fields[id]
		if !ok {
			continue
		}
		if IsVisible(f.ConditionalRules, answers) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Current describes the step the state points at.
func (n *Navigator) Current(state NavState, answers Answers) (StepView, error) {
	ids, err := n.VisibleStepFields(state.StepIndex, answers)
	if err != nil {
		return StepView{}, err
	}
	rs := n.steps[state.StepIndex]
	total := len(n.steps)
	return StepView{
		Index:           state.StepIndex,
		Total:           total,
		ID:              rs.step.ID,
		Title:           rs.step.Title,
		Description:     rs.step.Description,
		FieldIDs:        ids,
		IsFirst:         state.StepIndex == 0,
		IsLast:          state.StepIndex == total-1,
		CanGoBack:       n.allowBack && state.StepIndex > 0 && !state.Submitted,
		ShowProgressBar: n.showProgress,
		Progress:        int(math.Round(float64(state.StepIndex+1) / float64(total) * 100)),
	}, nil
}

// Next validates the current step and, if it passes and is not the last one,
// advances. A failed validation leaves the state untouched and reports the
// field errors in the returned Transition. Validator errors are returned as is.
func (n *Navigator) Next(ctx context.Context, state *NavState, answers Answers) (Transition, error) {
	if err := n.checkState(state); err != nil {
		return Transition{}, err
	}
	from := state.StepIndex
	stay := Transition{From: from, To: from}

	result, err := n.validate(ctx, state, answers)
	if err != nil {
		return stay, err
	}
	if !result.Valid {
		stay.Errors = result.Errors
		return stay, nil
	}
	if from == len(n.steps)-1 {
		return stay, nil
	}

	return n.move(state, from+1), nil
}

// Previous steps back one page when back navigation is allowed. No validation
// runs when moving backward.
func (n *Navigator) Previous(state *NavState) (Transition, error) {
	if err := n.checkState(state); err != nil {
		return Transition{}, err
	}
	from := state.StepIndex
	if !n.allowBack || from == 0 {
		return Transition{From: from, To: from}, nil
	}
	return n.move(state, from-1), nil
}

// Submit validates the final step and marks the state submitted.
func (n *Navigator) Submit(ctx context.Context, state *NavState, answers Answers) (Transition, error) {
	if err := n.checkState(state); err != nil {
		return Transition{}, err
	}
	from := state.StepIndex
	if from != len(n.steps)-1 {
		return Transition{From: from, To: from}, ErrNotFinalStep
	}

	result, err := n.validate(ctx, state, answers)
	if err != nil {
		return Transition{From: from, To: from}, err
	}
	if !result.Valid {
		return Transition{From: from, To: from, Errors: result.Errors}, nil
	}

	state.Submitted = true
	return Transition{From: from, To: from, Submitted: true}, nil
}

func (n *Navigator) checkState(state *NavState) error {
	if state == nil {
		return errors.New("nil navigation state")
	}
	if state.Submitted {
		return ErrAlreadySubmitted
	}
	if state.ValidationInFlight {
		return ErrValidationInFlight
	}
	if state.StepIndex < 0 || state.StepIndex >= len(n.steps) {
		return ErrStepOutOfRange
	}
	return nil
}

func (n *Navigator) validate(ctx context.Context, state *NavState, answers Answers) (StepValidationResult, error) {
	if n.validator == nil {
		return StepValidationResult{Valid: true}, nil
	}

	ids, err := n.VisibleStepFields(state.StepIndex, answers)
	if err != nil {
		return StepValidationResult{}, err
	}

	state.ValidationInFlight = true
	defer func() { state.ValidationInFlight = false }()

	result, err := n.validator.ValidateStep(ctx, StepValidationRequest{
		StepIndex: state.StepIndex,
		StepID:    n.steps[state.StepIndex].step.ID,
		FieldIDs:  ids,
		Answers:   answers,
	})
	if err != nil {
		return StepValidationResult{}, fmt.Errorf("validate step %d: %w", state.StepIndex, err)
	}
	if len(result.Errors) > 0 {
		result.Valid = false
	}
	return result, nil
}

func (n *Navigator) move(state *NavState, to int) Transition {
	from := state.StepIndex
	state.StepIndex = to
	if n.onStepChange != nil {
		n.onStepChange(from, to)
	}
	return Transition{From: from, To: to, Moved: true}
}
