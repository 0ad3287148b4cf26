// Package export renders workflow listings as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	"github.com/SscSPs/school_workflow_app/internal/dto"
	"github.com/xuri/excelize/v2"
)

// ContentTypeXLSX is the MIME type of the workbooks written here.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var sheetNames = map[domain.Kind]string{
	domain.KindExpenditure:     "Expenditures",
	domain.KindFinancialReport: "Financial reports",
	domain.KindExamReport:      "Exam reports",
}

var commonHeader = []any{"ID", "Title", "Owner", "Status", "Session", "Term", "Created", "Submitted", "Reviewed", "Reviewer", "Comments", "Rejection reason"}

// kindColumns appends the kind-specific columns for one entity.
func kindColumns(kind domain.Kind, e domain.WorkflowEntity) ([]any, string) {
	p, err := domain.DecodePayload(kind, e.Payload)
	if err != nil {
		return nil, ""
	}
	switch v := p.(type) {
	case *domain.ExpenditurePayload:
		return []any{v.Amount.InexactFloat64(), v.Category, v.Priority, v.Department, v.Vendor, formatTime(e.CompletedAt)}, v.Title()
	case *domain.FinancialReportPayload:
		return []any{v.ReportType, v.TotalIncome.InexactFloat64(), v.TotalExpenditure.InexactFloat64(), v.NetBalance().InexactFloat64()}, v.Title()
	case *domain.ExamReportPayload:
		passRate := ""
		if v.PassRate != nil {
			passRate = v.PassRate.String()
		}
		return []any{v.ClassName, v.Subject, v.ExamType, v.StudentsAssessed, passRate}, v.Title()
	}
	return nil, p.Title()
}

func kindHeader(kind domain.Kind) []any {
	switch kind {
	case domain.KindExpenditure:
		return []any{"Amount", "Category", "Priority", "Department", "Vendor", "Completed"}
	case domain.KindFinancialReport:
		return []any{"Report type", "Total income", "Total expenditure", "Net balance"}
	case domain.KindExamReport:
		return []any{"Class", "Subject", "Exam type", "Students assessed", "Pass rate"}
	}
	return nil
}

// SheetName returns the worksheet name used for a kind.
func SheetName(kind domain.Kind) string {
	if name, ok := sheetNames[kind]; ok {
		return name
	}
	return string(kind)
}

// WriteWorkflowXLSX writes one worksheet with a header row and a row per entity.
func WriteWorkflowXLSX(w io.Writer, kind domain.Kind, items []dto.WorkflowEntityResponse) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := SheetName(kind)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	header := append(append([]any{}, commonHeader...), kindHeader(kind)...)
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, item := range items {
		e := item.WorkflowEntity
		extra, title := kindColumns(kind, e)
		row := []any{
			e.EntityID,
			title,
			e.OwnerName,
			string(e.Status),
			e.Period.AcademicSession,
			string(e.Period.Term),
			e.CreatedAt.UTC().Format(time.RFC3339),
			formatTime(e.SubmittedAt),
			formatTime(e.ReviewedAt),
			deref(e.ReviewerName),
			deref(e.ReviewComments),
			deref(e.RejectionReason),
		}
		row = append(row, extra...)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
