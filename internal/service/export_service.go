package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// ExportService renders listings and reports into downloadable documents.
type ExportService struct{}

// NewExportService creates a new export service.
func NewExportService() *ExportService {
	return &ExportService{}
}

var exportHeader = []string{
	"Ticket ID", "Subject", "Status", "Priority", "Site",
	"Assignee", "Contact", "Created", "Closed", "Resolution",
}

// TicketsXLSX renders tickets as a spreadsheet, one row per ticket.
func (s *ExportService) TicketsXLSX(tickets []models.TicketView) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Tickets"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for col, title := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
	}
	for row, t := range tickets {
		values := ticketRow(t)
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}
	if err := f.SetColWidth(sheet, "B", "B", 40); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// TicketsCSV renders tickets as CSV with the same columns as the spreadsheet.
func (s *ExportService) TicketsCSV(tickets []models.TicketView) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, t := range tickets {
		row := ticketRow(t)
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = fmt.Sprint(v)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// StatsCSV renders the per-day series as CSV.
func (s *ExportService) StatsCSV(stats *models.TicketStats) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"date", "created", "closed"}); err != nil {
		return nil, err
	}
	for _, day := range stats.Series {
		err := w.Write([]string{
			day.Date,
			strconv.Itoa(day.Created),
			strconv.Itoa(day.Closed),
		})
		if err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// StatsXLSX renders the per-day series as a spreadsheet.
func (s *ExportService) StatsXLSX(stats *models.TicketStats) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Stats"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &[]any{"Date", "Created", "Closed"}); err != nil {
		return nil, err
	}
	for i, day := range stats.Series {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &[]any{day.Date, day.Created, day.Closed}); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// BreakdownsCSV renders the status and site breakdowns as one CSV with a
// breakdown discriminator column.
func (s *ExportService) BreakdownsCSV(byStatus, bySite []models.LabelCount) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"breakdown", "label", "count"}); err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		if err := w.Write([]string{"status", row.Label, strconv.Itoa(row.Count)}); err != nil {
			return nil, err
		}
	}
	for _, row := range bySite {
		if err := w.Write([]string{"site", row.Label, strconv.Itoa(row.Count)}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BreakdownsXLSX renders the status and site breakdowns as a workbook with
// one sheet per breakdown.
func (s *ExportService) BreakdownsXLSX(byStatus, bySite []models.LabelCount) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "By Status"); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet("By Site"); err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}
	if err := writeBreakdownSheet(f, "By Status", byStatus); err != nil {
		return nil, err
	}
	if err := writeBreakdownSheet(f, "By Site", bySite); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeBreakdownSheet(f *excelize.File, sheet string, rows []models.LabelCount) error {
	if err := f.SetSheetRow(sheet, "A1", &[]any{"Label", "Count"}); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &[]any{row.Label, row.Count}); err != nil {
			return err
		}
	}
	return nil
}

func ticketRow(t models.TicketView) []any {
	return []any{
		t.TicketID,
		t.Subject,
		strOr(t.StatusLabel),
		strOr(t.PriorityLevel),
		strOr(t.SiteLabel),
		strOr(t.AssignedEmail),
		strOr(t.ContactEmail),
		t.CreatedDate,
		strOr(t.ClosedDate),
		strOr(t.Resolution),
	}
}

func strOr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
