// Package invoice renders one human-readable invoice per saved bill.
package invoice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"

	"github.com/mmynk/billbook/internal/models"
)

// ErrCompanyNotFound is returned when a bill references a company id that is
// not in the company table. No file is written in that case.
var ErrCompanyNotFound = errors.New("could not find company for invoice")

// DefaultCurrency is the glyph printed in front of every amount.
const DefaultCurrency = "₹"

const invoiceTextTemplate = `INVOICE
Date: {{.Date}}

To: {{.Company.Name}} (ID: {{.Company.ID}})
Phone: {{.Company.Phone}}
Email: {{.Company.Email}}

Items
-----
{{range .Items}}{{.Name}} x{{.Quantity}} @{{money .Price}} ={{money .LineTotal}}
{{end}}
Subtotal: {{money .Subtotal}}
CGST : {{money .CGST}}
SGST : {{money .SGST}}
Total : {{money .Total}}
`

// CompanyLister is the part of the record store the writer needs.
type CompanyLister interface {
	ReadAllCompanies(ctx context.Context) ([]models.Company, error)
}

// Config controls where and how invoices are written.
type Config struct {
	// Dir is the invoice directory. It is created if missing.
	Dir string
	// Currency is printed before amounts. Empty means DefaultCurrency.
	Currency string
	// PDF also writes a .pdf rendering next to each text invoice.
	PDF bool
}

// Writer renders invoices into a directory.
type Writer struct {
	cfg       Config
	companies CompanyLister
	tmpl      *template.Template
}

// view is the template input for one invoice.
type view struct {
	Date     string
	Company  models.Company
	Items    []models.LineItem
	Subtotal decimal.Decimal
	CGST     decimal.Decimal
	SGST     decimal.Decimal
	Total    decimal.Decimal
}

// NewWriter creates the invoice directory and parses the invoice template.
func NewWriter(cfg Config, companies CompanyLister) (*Writer, error) {
	if cfg.Currency == "" {
		cfg.Currency = DefaultCurrency
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create invoice directory: %w", err)
	}

	currency := cfg.Currency
	tmpl, err := template.New("invoice").Funcs(template.FuncMap{
		"money": func(d decimal.Decimal) string { return currency + d.StringFixed(2) },
	}).Parse(invoiceTextTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse invoice template: %w", err)
	}

	return &Writer{cfg: cfg, companies: companies, tmpl: tmpl}, nil
}

// Dir returns the invoice directory.
func (w *Writer) Dir() string {
	return w.cfg.Dir
}

// FileName returns the invoice file name for bill, without extension.
// Two bills for the same company saved within the same second share a name.
func FileName(bill *models.Bill) string {
	return fmt.Sprintf("invoice_%d_%s", bill.CompanyID, bill.FileStamp())
}

// Write renders the invoice for a saved bill and returns the text file path.
// If the bill's company is missing it returns ErrCompanyNotFound and writes
// nothing.
func (w *Writer) Write(ctx context.Context, bill *models.Bill) (string, error) {
	company, err := w.findCompany(ctx, bill.CompanyID)
	if err != nil {
		return "", err
	}

	v := view{
		Date:     bill.Stamp(),
		Company:  *company,
		Items:    bill.Items,
		Subtotal: bill.Subtotal,
		CGST:     bill.CGST,
		SGST:     bill.SGST,
		Total:    bill.Total,
	}

	var buf bytes.Buffer
	if err := w.tmpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("failed to render invoice: %w", err)
	}

	base := filepath.Join(w.cfg.Dir, FileName(bill))
	path := base + ".txt"
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write invoice: %w", err)
	}

	if w.cfg.PDF {
		if err := writePDF(base+".pdf", v); err != nil {
			return path, fmt.Errorf("failed to write invoice pdf: %w", err)
		}
	}
	return path, nil
}

// findCompany scans the company table for the first row with id.
func (w *Writer) findCompany(ctx context.Context, id int) (*models.Company, error) {
	companies, err := w.companies.ReadAllCompanies(ctx)
	if err != nil {
		return nil, err
	}
	for i := range companies {
		if companies[i].ID == id {
			return &companies[i], nil
		}
	}
	return nil, fmt.Errorf("%w: id %d", ErrCompanyNotFound, id)
}

// RemoveForCompany deletes every invoice file of company id and returns how
// many were removed. A missing invoice directory removes nothing.
func (w *Writer) RemoveForCompany(id int) (int, error) {
	entries, err := os.ReadDir(w.cfg.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to list invoices: %w", err)
	}

	prefix := fmt.Sprintf("invoice_%d_", id)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		if err := os.Remove(filepath.Join(w.cfg.Dir, e.Name())); err != nil {
			return removed, fmt.Errorf("failed to remove invoice %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, nil
}
