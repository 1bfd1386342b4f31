// Package report exports the combined company and bill tables as a
// spreadsheet.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/mmynk/billbook/internal/models"
	"github.com/mmynk/billbook/internal/storage"
)

// DefaultPath is the report file name used when none is configured.
const DefaultPath = "Billing_Report.xlsx"

const sheetName = "Sheet1"

// Columns is the fixed column order of the report.
var Columns = []string{"CompanyID", "Name", "Phone", "Email", "Items", "SubTotal", "CGST", "SGST", "Total", "Timestamp"}

// Source is the part of the record store the exporter reads.
type Source interface {
	ReadAllCompanies(ctx context.Context) ([]models.Company, error)
	ReadAllBills(ctx context.Context) ([]models.Bill, error)
}

// Exporter writes the billing report.
type Exporter struct {
	path   string
	source Source
}

// NewExporter creates an exporter writing to path.
func NewExporter(path string, source Source) *Exporter {
	if path == "" {
		path = DefaultPath
	}
	return &Exporter{path: path, source: source}
}

// Path returns the report file path.
func (e *Exporter) Path() string {
	return e.path
}

// Row is one joined report line. Company fields are empty when the bill's
// company no longer exists.
type Row struct {
	Bill    models.Bill
	Company *models.Company
}

// Join left-joins bills onto companies by id, keeping bill order.
func Join(bills []models.Bill, companies []models.Company) []Row {
	byID := make(map[int]*models.Company, len(companies))
	for i := range companies {
		// First match wins, as in the invoice lookup.
		if _, ok := byID[companies[i].ID]; !ok {
			byID[companies[i].ID] = &companies[i]
		}
	}

	rows := make([]Row, len(bills))
	for i, b := range bills {
		rows[i] = Row{Bill: b, Company: byID[b.CompanyID]}
	}
	return rows
}

// Export reads both tables and writes the report. It returns the number of
// data rows written.
func (e *Exporter) Export(ctx context.Context) (int, error) {
	companies, err := e.source.ReadAllCompanies(ctx)
	if err != nil {
		return 0, err
	}
	bills, err := e.source.ReadAllBills(ctx)
	if err != nil {
		return 0, err
	}
	rows := Join(bills, companies)

	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return 0, fmt.Errorf("failed to write report header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		values := cells(r)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return 0, fmt.Errorf("failed to write report row %d: %w", i+1, err)
		}
	}

	if dir := filepath.Dir(e.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := f.SaveAs(e.path); err != nil {
		return 0, fmt.Errorf("failed to save report: %w", err)
	}
	return len(rows), nil
}

func cells(r Row) []any {
	var name, phone, email string
	if r.Company != nil {
		name, phone, email = r.Company.Name, r.Company.Phone, r.Company.Email
	}
	b := r.Bill
	return []any{
		b.CompanyID,
		name,
		phone,
		email,
		storage.EncodeItems(b.Items),
		b.Subtotal.Round(2).InexactFloat64(),
		b.CGST.Round(2).InexactFloat64(),
		b.SGST.Round(2).InexactFloat64(),
		b.Total.Round(2).InexactFloat64(),
		b.Stamp(),
	}
}
