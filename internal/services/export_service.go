package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/temic137/forms-sub004/internal/engine"
	"github.com/temic137/forms-sub004/internal/models"
)

const (
	exportSheetName  = "Submissions"
	exportTimeLayout = "2006-01-02 15:04:05"
)

func (s *submissionService) ExportSubmissions(ctx context.Context, formID uint, userID string) ([]byte, error) {
	form, err := loadOwnedForm(ctx, s.repo, formID, userID, "export_submissions")
	if err != nil {
		return nil, err
	}
	def, err := form.Definition()
	if err != nil {
		return nil, fmt.Errorf("form %d: %w", formID, err)
	}

	submissions, err := s.listAll(ctx, formID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(exportSheetName); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}
	index, err := f.GetSheetIndex(exportSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to locate Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	columns := exportFields(def)

	// Write headers
	headers := []interface{}{"Submission ID", "Submitted At", "Respondent"}
	for _, field := range columns {
		headers = append(headers, fieldHeader(field))
	}
	if def.Quiz.Enabled {
		headers = append(headers, "Score", "Possible", "Percentage", "Passed")
	}
	if err := writeRow(f, 1, headers); err != nil {
		return nil, err
	}

	// Write submission data
	for i, sub := range submissions {
		answers, err := sub.DecodeAnswers()
		if err != nil {
			return nil, fmt.Errorf("submission %d: %w", sub.ID, err)
		}

		row := []interface{}{
			sub.ID,
			sub.SubmittedAt.Format(exportTimeLayout),
			respondentCell(sub.RespondentID),
		}
		for _, field := range columns {
			row = append(row, answerCell(answers[field.ID]))
		}
		if def.Quiz.Enabled {
			row = append(row, sub.Earned, sub.Possible, sub.Percentage, passedCell(sub.Passed))
		}

		if err := writeRow(f, i+2, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported submissions", "form_id", formID, "rows", len(submissions))
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, row int, values []interface{}) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("failed to resolve cell: %w", err)
		}
		if err := f.SetCellValue(exportSheetName, cell, value); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}
	return nil
}

// exportFields returns the answerable fields in display order.
func exportFields(def models.FormDefinition) []models.Field {
	var out []models.Field
	for _, field := range engine.OrderedFields(def.Fields) {
		if !field.Type.IsDisplay() {
			out = append(out, field)
		}
	}
	return out
}

func fieldHeader(field models.Field) string {
	if strings.TrimSpace(field.Label) != "" {
		return field.Label
	}
	return field.ID
}

func answerCell(v models.Value) interface{} {
	switch v.Kind() {
	case models.KindAbsent:
		return ""
	case models.KindNumber:
		n, _ := v.Float()
		return n
	case models.KindBool:
		return v.Text()
	case models.KindList:
		return strings.Join(v.Items(), ", ")
	default:
		return v.Text()
	}
}

func respondentCell(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}

func passedCell(passed *bool) string {
	switch {
	case passed == nil:
		return ""
	case *passed:
		return "Pass"
	default:
		return "Fail"
	}
}
