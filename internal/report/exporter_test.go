package report

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/mmynk/billbook/internal/models"
)

type fakeSource struct {
	companies []models.Company
	bills     []models.Bill
}

func (f *fakeSource) ReadAllCompanies(context.Context) ([]models.Company, error) {
	return f.companies, nil
}

func (f *fakeSource) ReadAllBills(context.Context) ([]models.Bill, error) {
	return f.bills, nil
}

func bill(companyID int, price string, qty int) models.Bill {
	p := decimal.RequireFromString(price)
	sub := p.Mul(decimal.NewFromInt(int64(qty)))
	tax := sub.Mul(decimal.RequireFromString("0.09")).Round(2)
	return models.Bill{
		CompanyID: companyID,
		Items:     []models.LineItem{{Name: "Widget", Price: p, Quantity: qty}},
		Subtotal:  sub,
		CGST:      tax,
		SGST:      tax,
		Total:     sub.Add(tax).Add(tax).Round(2),
		Timestamp: time.Date(2026, 6, 1, 8, 0, 0, 0, time.Local),
	}
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	return rows
}

func TestJoin(t *testing.T) {
	companies := []models.Company{{ID: 1, Name: "Acme"}, {ID: 2, Name: "Globex"}}
	bills := []models.Bill{bill(2, "1", 1), bill(9, "1", 1), bill(1, "1", 1)}

	rows := Join(bills, companies)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0].Company == nil || rows[0].Company.Name != "Globex" {
		t.Errorf("row 0 company = %+v, want Globex", rows[0].Company)
	}
	if rows[1].Company != nil {
		t.Errorf("row 1 should have no company, got %+v", rows[1].Company)
	}
	if rows[2].Company == nil || rows[2].Company.Name != "Acme" {
		t.Errorf("row 2 company = %+v, want Acme", rows[2].Company)
	}
}

func TestExporter_Export(t *testing.T) {
	src := &fakeSource{
		companies: []models.Company{
			{ID: 1, Name: "Acme", Phone: "+14155552671", Email: "ops@acme.io"},
			{ID: 2, Name: "Globex", Phone: "5551234567", Email: "billing@globex.com"},
		},
		bills: []models.Bill{bill(1, "10.00", 3), bill(2, "0.50", 1), bill(1, "2.25", 4)},
	}
	path := filepath.Join(t.TempDir(), "out", DefaultPath)

	n, err := NewExporter(path, src).Export(context.Background())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Export returned %d rows, want 3", n)
	}

	rows := readRows(t, path)
	if len(rows) != 4 {
		t.Fatalf("sheet has %d rows, want header + 3", len(rows))
	}
	for i, col := range Columns {
		if rows[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], col)
		}
	}

	want := []string{"1", "Acme", "+14155552671", "ops@acme.io", "Widget@10.00@3", "30", "2.7", "2.7", "35.4", "2026-06-01 08:00:00"}
	for i := range want {
		if rows[1][i] != want[i] {
			t.Errorf("row 1 %s = %q, want %q", Columns[i], rows[1][i], want[i])
		}
	}

	for i, r := range rows[1:] {
		if r[1] == "" || r[2] == "" || r[3] == "" {
			t.Errorf("row %d is missing company columns: %v", i+1, r)
		}
	}
}

func TestExporter_ExportOrphanBill(t *testing.T) {
	src := &fakeSource{
		companies: []models.Company{{ID: 1, Name: "Acme", Phone: "1234567", Email: "a@b.co"}},
		bills:     []models.Bill{bill(7, "10.00", 1)},
	}
	path := filepath.Join(t.TempDir(), DefaultPath)

	if _, err := NewExporter(path, src).Export(context.Background()); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	rows := readRows(t, path)
	if len(rows) != 2 {
		t.Fatalf("sheet has %d rows, want 2", len(rows))
	}
	r := rows[1]
	if r[0] != "7" || r[1] != "" || r[2] != "" || r[3] != "" {
		t.Errorf("orphan row = %v, want id 7 with empty company fields", r)
	}
	if r[4] != "Widget@10.00@1" {
		t.Errorf("orphan row items = %q", r[4])
	}
}

func TestExporter_ExportEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)

	n, err := NewExporter(path, &fakeSource{}).Export(context.Background())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Export returned %d rows, want 0", n)
	}
	if rows := readRows(t, path); len(rows) != 1 {
		t.Errorf("sheet has %d rows, want header only", len(rows))
	}
}
