package service

import (
	"bytes"
	"context"
	"fmt"

	"fieldservice_backend/internal/analytics/filter"
	"fieldservice_backend/internal/analytics/format"
	"fieldservice_backend/internal/analytics/query"
	"fieldservice_backend/internal/analytics/transport"
	"fieldservice_backend/platform/apperr"

	"github.com/xuri/excelize/v2"
)

const performanceSheet = "Performance"

var performanceHeadings = []string{
	"Rank", "Technician", "Code", "Position", "Reviews",
	"Avg Time", "Avg Manner", "Avg Knowledge", "Avg Overall", "Avg Recommend",
}

// TechnicianPerformanceXLSX renders the technician ranking as a workbook.
func (s *Service) TechnicianPerformanceXLSX(ctx context.Context, p filter.Params) ([]byte, error) {
	perf, err := s.TechnicianPerformance(ctx, p)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", performanceSheet); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to build workbook", err)
	}
	for i, h := range performanceHeadings {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(performanceSheet, cell, h); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to build workbook", err)
		}
	}

	for i, score := range perf.Technicians {
		row := i + 2
		values := []any{
			i + 1,
			score.Technician.Name,
			score.Technician.Code,
			score.Technician.Position,
			score.ReviewCount,
			float64(score.AvgTime),
			float64(score.AvgManner),
			float64(score.AvgKnowledge),
			float64(score.AvgOverall),
			float64(score.AvgRecommend),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(performanceSheet, cell, &values); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to build workbook", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, fmt.Sprintf("failed to write %s workbook", performanceSheet), err)
	}
	return buf.Bytes(), nil
}

// maxExportRows caps a CSV job export.
const maxExportRows = 50000

// ExportJobs returns every job row matching the overview filters, newest
// first, ignoring paging.
func (s *Service) ExportJobs(ctx context.Context, p filter.Params) ([]transport.JobRow, error) {
	f := s.Normalize(p, filter.DefaultLimit)
	preds, joins := joinedPredicates(f)

	res, err := s.exec.Run(ctx, query.Plan{
		Name:  "overview.export",
		Match: f.Match(),
		Joins: joins | query.JoinLocation | query.JoinCustomer | query.JoinTechnicians,
		Where: preds,
		Page:  &query.Page{Number: 1, Limit: maxExportRows},
	})
	if err != nil {
		return []transport.JobRow{}, err
	}
	return format.JobRows(res.Rows), nil
}
