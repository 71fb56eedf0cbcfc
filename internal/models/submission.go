package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// FieldScore is the per-field outcome of automatic scoring.
type FieldScore struct {
	FieldID        string  `json:"field_id"`
	Correct        bool    `json:"correct"`
	PointsAwarded  float64 `json:"points_awarded"`
	PointsPossible float64 `json:"points_possible"`
	Explanation    string  `json:"explanation,omitempty"`
}

type Submission struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	FormID       uint    `json:"form_id" gorm:"not null;index"`
	FormVersion  int     `json:"form_version"`
	RespondentID *string `json:"respondent_id" gorm:"index;size:255"`

	Answers datatypes.JSON `json:"answers" gorm:"type:jsonb"` // map[string]Value

	// Scoring, populated only for forms in quiz mode
	Earned      float64        `json:"earned"`
	Possible    float64        `json:"possible"`
	Percentage  int            `json:"percentage"`
	Passed      *bool          `json:"passed"`
	ScoreDetail datatypes.JSON `json:"score_detail" gorm:"type:jsonb"` // []FieldScore

	SubmittedAt time.Time `json:"submitted_at" gorm:"index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Form *Form `json:"-" gorm:"foreignKey:FormID"`
}

func (Submission) TableName() string {
	return "submissions"
}

func (s *Submission) DecodeAnswers() (map[string]Value, error) {
	answers := make(map[string]Value)
	if err := decodeJSON(s.Answers, &answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return answers, nil
}

func (s *Submission) SetAnswers(answers map[string]Value) error {
	data, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	s.Answers = datatypes.JSON(data)
	return nil
}

func (s *Submission) DecodeScoreDetail() ([]FieldScore, error) {
	var detail []FieldScore
	if err := decodeJSON(s.ScoreDetail, &detail); err != nil {
		return nil, fmt.Errorf("decode score detail: %w", err)
	}
	return detail, nil
}

func (s *Submission) SetScoreDetail(detail []FieldScore) error {
	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("encode score detail: %w", err)
	}
	s.ScoreDetail = datatypes.JSON(data)
	return nil
}
