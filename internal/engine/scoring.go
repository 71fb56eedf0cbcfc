package engine

import (
	"math"
	"strings"

	"github.com/temic137/forms-sub004/internal/models"
)

const defaultPoints = 1.0

// ScoreResult is the outcome of scoring one set of answers.
type ScoreResult struct {
	Earned     float64             `json:"earned"`
	Possible   float64             `json:"possible"`
	Percentage int                 `json:"percentage"`
	Passed     bool                `json:"passed"`
	PerField   []models.FieldScore `json:"per_field"`
}

// Score grades answers against the quiz configuration of fields. Fields
// without a quiz config, or whose config has no correct answer, are skipped
// entirely. A nil passingScore means every result passes.
func Score(fields []models.Field, answers Answers, passingScore *float64) ScoreResult {
	result := ScoreResult{PerField: make([]models.FieldScore, 0, len(fields))}

	for _, f := range sortedFields(fields) {
		qc := f.QuizConfig
		if qc == nil || qc.CorrectAnswer.IsAbsent() {
			continue
		}

		fs := scoreField(f.ID, *qc, answers.Get(f.ID))
		result.Earned += fs.PointsAwarded
		result.Possible += fs.PointsPossible
		result.PerField = append(result.PerField, fs)
	}

	if result.Possible > 0 {
		result.Percentage = int(math.Floor(100*result.Earned/result.Possible + 0.5))
	}
	result.Passed = passingScore == nil || float64(result.Percentage) >= *passingScore
	return result
}

func scoreField(fieldID string, qc models.QuizConfig, submitted models.Value) models.FieldScore {
	points := fieldPoints(qc.Points)
	fs := models.FieldScore{
		FieldID:        fieldID,
		PointsPossible: points,
		Explanation:    qc.Explanation,
	}

	if qc.CorrectAnswer.Kind() == models.KindList {
		correct := toSet(qc.CorrectAnswer.Items(), qc.CaseSensitive)
		given := toSet(submitted.Items(), qc.CaseSensitive)
		fs.Correct = setEqual(correct, given)

		switch {
		case fs.Correct:
			fs.PointsAwarded = points
		case qc.AcceptPartialCredit && len(correct) > 0:
			matched := 0
			for item := range given {
				if _, ok := correct[item]; ok {
					matched++
				}
			}
			fs.PointsAwarded = math.Min(points, points*float64(matched)/float64(len(correct)))
		}
		return fs
	}

	if submitted.IsAbsent() {
		return fs
	}
	want := fold(qc.CorrectAnswer.Text(), qc.CaseSensitive)
	got := fold(submitted.Text(), qc.CaseSensitive)
	if qc.MatchType == models.MatchContains {
		fs.Correct = strings.Contains(got, want)
	} else {
		fs.Correct = got == want
	}
	if fs.Correct {
		fs.PointsAwarded = points
	}
	return fs
}

// fieldPoints falls back to one point for missing, non-numeric or negative
// values. Booleans count as non-numeric. Zero is kept.
func fieldPoints(v models.Value) float64 {
	if v.Kind() == models.KindBool {
		return defaultPoints
	}
	p, ok := v.Float()
	if !ok || p < 0 {
		return defaultPoints
	}
	return p
}

func fold(s string, caseSensitive bool) string {
	if caseSensitive {
		return s
	}
	return strings.ToLower(s)
}

func toSet(items []string, caseSensitive bool) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[fold(item, caseSensitive)] = struct{}{}
	}
	return set
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
