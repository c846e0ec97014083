package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"backend/internal/engine"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/xuri/excelize/v2"
)

// ReportService renders workbook exports of the compliance and SLA
// dashboards for offline distribution.
type ReportService interface {
	ComplianceWorkbook(ctx context.Context) (*excelize.File, error)
	SlaWorkbook(ctx context.Context) (*excelize.File, error)
}

type reportService struct {
	vendorRepo   repository.VendorRepository
	approvalRepo repository.ApprovalRepository
	now          func() time.Time
}

func NewReportService(
	vendorRepo repository.VendorRepository,
	approvalRepo repository.ApprovalRepository,
) ReportService {
	return &reportService{
		vendorRepo:   vendorRepo,
		approvalRepo: approvalRepo,
		now:          time.Now,
	}
}

const reportPageSize = 500

// ComplianceWorkbook builds one row per vendor with its compliance
// percentage and per-document classification.
func (s *reportService) ComplianceWorkbook(ctx context.Context) (*excelize.File, error) {
	asOf := s.now()

	f := excelize.NewFile()
	sheetName := "Vendor Compliance"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	writeReportTitle(f, sheetName, "Vendor Compliance Report", asOf)

	headers := []string{"Vendor", "Type", "Compliant", "Mandatory", "Percent", "Expired", "Expiring", "Missing"}
	writeHeaderRow(f, sheetName, headers)

	row := 5
	for page := 1; ; page++ {
		vendors, _, err := s.vendorRepo.List(ctx, "", page, reportPageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch vendors: %w", err)
		}
		if len(vendors) == 0 {
			break
		}

		for _, vendor := range vendors {
			documents, err := s.vendorRepo.ListDocuments(ctx, vendor.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch documents for %s: %w", vendor.ID, err)
			}

			summary := engine.Summarize(engine.RequiredDocuments(vendor.VendorType), documents, asOf)
			var expired, expiring, missing []string
			for docType, state := range summary.Breakdown {
				switch state {
				case engine.DocExpired:
					expired = append(expired, docType)
				case engine.DocExpiring:
					expiring = append(expiring, docType)
				case engine.DocMissing:
					missing = append(missing, docType)
				}
			}
			sort.Strings(expired)
			sort.Strings(expiring)
			sort.Strings(missing)

			writeRow(f, sheetName, row, []interface{}{
				vendor.Name,
				vendor.VendorType,
				summary.CompliantCount,
				summary.TotalMandatory,
				summary.Percent,
				joinOrDash(expired),
				joinOrDash(expiring),
				joinOrDash(missing),
			})
			row++
		}

		if len(vendors) < reportPageSize {
			break
		}
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

// SlaWorkbook builds the approval SLA dashboard: one row per pending
// approval plus an aggregate summary block.
func (s *reportService) SlaWorkbook(ctx context.Context) (*excelize.File, error) {
	asOf := s.now()

	approvals, err := s.approvalRepo.ListWithRecords(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch approvals: %w", err)
	}
	summary := engine.AggregateSla(approvals, asOf)

	f := excelize.NewFile()
	sheetName := "SLA Dashboard"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	writeReportTitle(f, sheetName, "Approval SLA Dashboard", asOf)

	headers := []string{"Approval", "Record", "Kind", "Deadline", "SLA Status"}
	writeHeaderRow(f, sheetName, headers)

	row := 5
	for _, approval := range approvals {
		if approval.Status != model.ApprovalPending {
			continue
		}
		kind := "UNKNOWN"
		title := ""
		if approval.Record != nil {
			kind = approval.Record.Kind
			title = approval.Record.Title
		}
		writeRow(f, sheetName, row, []interface{}{
			approval.ID.String(),
			title,
			kind,
			approval.SlaDeadline.Format("2006-01-02 15:04"),
			engine.ClassifySla(approval, asOf),
		})
		row++
	}

	row += 2
	cell, _ := excelize.CoordinatesToCellName(1, row)
	f.SetCellValue(sheetName, cell, "Summary")
	for _, pair := range []struct {
		label string
		value int
	}{
		{"Total", summary.Total},
		{"Pending", summary.Pending},
		{"Decided", summary.Decided},
		{"On track", summary.OnTrack},
		{"Overdue", summary.Overdue},
	} {
		row++
		keyCell, _ := excelize.CoordinatesToCellName(1, row)
		valueCell, _ := excelize.CoordinatesToCellName(2, row)
		f.SetCellValue(sheetName, keyCell, pair.label)
		f.SetCellValue(sheetName, valueCell, pair.value)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

func writeReportTitle(f *excelize.File, sheetName, title string, asOf time.Time) {
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	f.SetCellValue(sheetName, "A1", title)
	f.SetCellStyle(sheetName, "A1", "A1", titleStyle)
	f.SetRowHeight(sheetName, 1, 30)
	f.SetCellValue(sheetName, "A2", fmt.Sprintf("Generated: %s", asOf.Format("2006-01-02 15:04:05")))
}

func writeHeaderRow(f *excelize.File, sheetName string, headers []string) {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	for colIdx, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 4)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
		col, _ := excelize.ColumnNumberToName(colIdx + 1)
		f.SetColWidth(sheetName, col, col, 24)
	}
}

func writeRow(f *excelize.File, sheetName string, row int, values []interface{}) {
	for colIdx, value := range values {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, row)
		f.SetCellValue(sheetName, cell, value)
	}
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	out := items[0]
	for _, item := range items[1:] {
		out += ", " + item
	}
	return out
}
