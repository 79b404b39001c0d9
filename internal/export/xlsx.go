// Package export renders a session's expenses as a spreadsheet download.
package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"expenses/internal/core"
)

const (
	SheetExpenses = "Expenses"
	SheetReport   = "Report"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// WriteXLSX writes a workbook with the expense list and its summary.
func WriteXLSX(w io.Writer, items []core.Expense, report core.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetExpenses); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetReport); err != nil {
		return fmt.Errorf("create report sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	// Built-in number format 2 is "0.00".
	money, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := writeExpenses(f, items, bold, money); err != nil {
		return err
	}
	if err := writeReport(f, report, bold, money); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeExpenses(f *excelize.File, items []core.Expense, bold, money int) error {
	header := []any{"Date", "Category", "Description", "Amount"}
	if err := f.SetSheetRow(SheetExpenses, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(SheetExpenses, "A1", "D1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, e := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{e.Date.String(), string(e.Category), e.Description, amountValue(e.Amount)}
		if err := f.SetSheetRow(SheetExpenses, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if len(items) > 0 {
		last := fmt.Sprintf("D%d", len(items)+1)
		if err := f.SetCellStyle(SheetExpenses, "D2", last, money); err != nil {
			return fmt.Errorf("style amounts: %w", err)
		}
	}
	return f.SetColWidth(SheetExpenses, "C", "C", 40)
}

func writeReport(f *excelize.File, r core.Report, bold, money int) error {
	rows := [][]any{
		{"Total", amountValue(r.Total)},
		{"Average", amountValue(r.Average)},
		{"Categories", r.CategoryCount},
		{"Count", r.Count},
		{},
		{"Category", "Amount"},
	}
	for _, ca := range r.ByCategory {
		rows = append(rows, []any{string(ca.Category), amountValue(ca.Amount)})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetReport, cell, &row); err != nil {
			return fmt.Errorf("write report row %d: %w", i+1, err)
		}
	}

	if err := f.SetCellStyle(SheetReport, "B1", "B2", money); err != nil {
		return fmt.Errorf("style report: %w", err)
	}
	if n := len(r.ByCategory); n > 0 {
		if err := f.SetCellStyle(SheetReport, "B7", fmt.Sprintf("B%d", 6+n), money); err != nil {
			return fmt.Errorf("style categories: %w", err)
		}
	}
	if err := f.SetCellStyle(SheetReport, "A1", "A4", bold); err != nil {
		return fmt.Errorf("style report: %w", err)
	}
	return f.SetCellStyle(SheetReport, "A6", "B6", bold)
}

// amountValue rounds to cents and returns a number the sheet can sum.
func amountValue(d decimal.Decimal) float64 {
	v, _ := d.Round(2).Float64()
	return v
}
