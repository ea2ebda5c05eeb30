package util

import (
	"fmt"

	"github.com/fadilmartias/interview-proctor/internal/dto"
	"github.com/fadilmartias/interview-proctor/internal/scoring"
	"github.com/xuri/excelize/v2"
)

const CandidateSheet = "Candidates"

var candidateColumns = []string{
	"Name", "Email", "Phone", "Role", "Seniority",
	"Final Score", "Technical", "Communication", "Coding Logic",
	"Integrity", "Integrity Label", "Decision", "Selection", "Completed At",
}

var decisionFills = map[scoring.Decision]string{
	scoring.StrongHire:    "C6EFCE",
	scoring.HoldForReview: "FFEB9C",
	scoring.Reject:        "FFC7CE",
	scoring.AutoReject:    "FF9999",
}

// BuildCandidateWorkbook renders the dashboard rows as an XLSX workbook.
func BuildCandidateWorkbook(rows []dto.CandidateSummary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", CandidateSheet); err != nil {
		return nil, err
	}
	f.SetColWidth(CandidateSheet, "A", "E", 22)
	f.SetColWidth(CandidateSheet, "F", "M", 14)
	f.SetColWidth(CandidateSheet, "N", "N", 20)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	header := make([]any, len(candidateColumns))
	for i, c := range candidateColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(CandidateSheet, "A1", &header); err != nil {
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(candidateColumns))
	f.SetCellStyle(CandidateSheet, "A1", lastCol+"1", headerStyle)

	decisionStyles := make(map[scoring.Decision]int, len(decisionFills))
	for d, color := range decisionFills {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return nil, err
		}
		decisionStyles[d] = style
	}

	for i, r := range rows {
		row := i + 2
		completed := ""
		if r.CompletedAt != nil {
			completed = r.CompletedAt.Format("2006-01-02 15:04")
		}
		values := []any{
			r.Name, r.Email, r.Phone, r.MatchedRole, r.Seniority,
			r.FinalScore, r.TechnicalRating, r.CommunicationRating, r.CodingLogicRating,
			r.Assessment.IntegrityScore, string(r.Assessment.IntegrityLabel),
			string(r.Assessment.Decision), r.SelectionStatus, completed,
		}
		cell := fmt.Sprintf("A%d", row)
		if err := f.SetSheetRow(CandidateSheet, cell, &values); err != nil {
			return nil, err
		}
		if style, ok := decisionStyles[r.Assessment.Decision]; ok {
			decisionCell := fmt.Sprintf("L%d", row)
			f.SetCellStyle(CandidateSheet, decisionCell, decisionCell, style)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
