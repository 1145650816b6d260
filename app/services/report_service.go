package services

import (
	"fmt"

	"github.com/podmatch/podmatch/app/dto"
	"github.com/xuri/excelize/v2"
)

// ReportService generates downloadable reports for brand teams
type ReportService interface {
	BuildMatchReport(listing *dto.ListMatchesResponse) ([]byte, error)
}

// ExcelReportService implements ReportService using xlsx workbooks
type ExcelReportService struct{}

// NewExcelReportService creates a new Excel report service
func NewExcelReportService() *ExcelReportService {
	return &ExcelReportService{}
}

const matchSheetName = "Matches"

var matchReportHeader = []string{
	"Rank", "Podcast", "Status", "Overall Score", "Confidence",
	"Audience Match", "Product Relevance", "Content Theme", "Brand Alignment",
	"Budget Fit", "Engagement Quality",
	"Est. CPM (USD)", "Est. Cost/Episode (USD)", "Potential Reach", "Potential Impressions",
	"Recommendation",
}

// BuildMatchReport renders the ranked match listing as an xlsx workbook
func (s *ExcelReportService) BuildMatchReport(listing *dto.ListMatchesResponse) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(matchSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create report sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	for col, title := range matchReportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(matchSheetName, cell, title); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(matchReportHeader), 1)
		_ = f.SetCellStyle(matchSheetName, "A1", last, headerStyle)
	}

	for i, match := range listing.Matches {
		row := []any{
			i + 1,
			match.PodcastName,
			match.Status,
			match.Scores.Overall,
			match.Scores.Confidence,
			match.Scores.AudienceMatch,
			match.Scores.ProductRelevance,
			match.Scores.ContentTheme,
			match.Scores.BrandAlignment,
			match.Scores.BudgetFit,
			match.Scores.EngagementQuality,
			floatOrEmpty(match.Economics.EstimatedCPM),
			floatOrEmpty(match.Economics.EstimatedCostPerEpisode),
			intOrEmpty(match.Economics.PotentialReach),
			intOrEmpty(match.Economics.PotentialImpressions),
			match.Reasoning.Recommendation,
		}

		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(matchSheetName, cell, value); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize report: %w", err)
	}
	return buf.Bytes(), nil
}

func floatOrEmpty(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func intOrEmpty(v *int64) any {
	if v == nil {
		return ""
	}
	return *v
}
