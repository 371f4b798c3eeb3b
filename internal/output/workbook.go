package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// buildWorkbook returns the Compliance, Cost and Review sheets as XLSX bytes.
func buildWorkbook(doc Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheets := []struct {
		name    string
		headers []string
		rows    [][]any
		widths  []float64
	}{
		{"Compliance", []string{"ID", "Requirement", "Proposal Section", "Status", "Response Strategy"}, complianceRows(doc), []float64{12, 60, 24, 12, 60}},
		{"Cost", []string{"Labor Category", "Hours", "Rate", "Cost"}, costRows(doc), []float64{28, 10, 12, 14}},
		{"Review", []string{"Section", "Severity", "Comment"}, reviewRows(doc), []float64{24, 10, 70}},
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return nil, err
		}
		for col, h := range s.headers {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			_ = f.SetCellValue(s.name, cell, h)
		}
		for r, row := range s.rows {
			for col, v := range row {
				cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
				_ = f.SetCellValue(s.name, cell, v)
			}
		}
		for col, w := range s.widths {
			name, _ := excelize.ColumnNumberToName(col + 1)
			_ = f.SetColWidth(s.name, name, name, w)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func complianceRows(doc Document) [][]any {
	rows := make([][]any, 0, len(doc.Compliance))
	for _, c := range doc.Compliance {
		rows = append(rows, []any{c.ID, c.RequirementText, c.ProposalSection, c.Status, c.ResponseStrategy})
	}
	return rows
}

func costRows(doc Document) [][]any {
	rows := make([][]any, 0, len(doc.Cost.Labor)+3)
	for _, l := range doc.Cost.Labor {
		rows = append(rows, []any{l.Category, l.Hours, l.Rate, l.Cost})
	}
	rows = append(rows,
		[]any{"Subtotal", "", "", doc.Cost.Subtotal},
		[]any{"Contingency", "", "", doc.Cost.Contingency},
		[]any{"Total", "", "", doc.Cost.Total},
	)
	return rows
}

func reviewRows(doc Document) [][]any {
	rows := make([][]any, 0, len(doc.Review.DetailedFeedback)+1)
	rows = append(rows, []any{"Score", "", fmt.Sprintf("%.0f / 100 (%s)", doc.Review.Score, doc.Review.ReviewStage)})
	for _, fb := range doc.Review.DetailedFeedback {
		rows = append(rows, []any{fb.Section, fb.Severity, fb.Comment})
	}
	return rows
}
