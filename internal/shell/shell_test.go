package shell

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mmynk/billbook/internal/calculator"
	"github.com/mmynk/billbook/internal/invoice"
	"github.com/mmynk/billbook/internal/metrics"
	"github.com/mmynk/billbook/internal/middleware"
	"github.com/mmynk/billbook/internal/report"
	"github.com/mmynk/billbook/internal/service"
	"github.com/mmynk/billbook/internal/storage/csvstore"
)

type fixture struct {
	dir string
	svc *service.BillingService
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	store, err := csvstore.New(filepath.Join(dir, "companies.csv"), filepath.Join(dir, "billbook.csv"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	writer, err := invoice.NewWriter(invoice.Config{Dir: filepath.Join(dir, "invoices")}, store)
	if err != nil {
		t.Fatalf("failed to create invoice writer: %v", err)
	}

	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.Local)
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	svc := service.NewBillingService(
		store,
		calculator.New(calculator.DefaultRates, clock),
		writer,
		report.NewExporter(filepath.Join(dir, report.DefaultPath), store),
		metrics.New(),
	)
	return &fixture{dir: dir, svc: svc}
}

// run feeds the given lines to a fresh shell and returns its output.
func (f *fixture) run(t *testing.T, lines ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	sh := New(f.svc, in, &out, middleware.Logging(), middleware.Metrics(metrics.New()))
	err := sh.Run(context.Background())
	return out.String(), err
}

func TestShell_AddCompanyAndPurchase(t *testing.T) {
	f := setupFixture(t)

	out, err := f.run(t,
		"1", "Acme", "+14155552671", "a.b@c.co",
		"3", "1", "Widget", "10.00", "3", "",
		"8",
	)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, want := range []string{
		"Company added with ID 1",
		"1 - Acme",
		"Purchase saved: subtotal 30.00, CGST 2.70, SGST 2.70, total 35.40",
		"Invoice saved to " + filepath.Join(f.dir, "invoices", "invoice_1_"),
		"Bye!",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	entries, _ := os.ReadDir(filepath.Join(f.dir, "invoices"))
	if len(entries) != 1 {
		t.Fatalf("expected one invoice, got %d", len(entries))
	}
	data, _ := os.ReadFile(filepath.Join(f.dir, "invoices", entries[0].Name()))
	if !strings.Contains(string(data), "Total : ₹35.40") {
		t.Errorf("invoice content:\n%s", data)
	}
}

func TestShell_InputMistakes(t *testing.T) {
	f := setupFixture(t)

	out, err := f.run(t,
		"9",
		"1", "Acme", "12345", "a.b@c.co",
		"1", "Acme", "+14155552671", "nope",
		"3", "abc",
		"3", "1", "",
		"3", "1", "Bad@name", "Widget", "ten", "1", "Widget", "2.50", "2", "",
		"8",
	)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, want := range []string{
		"That won't work, try again.",
		"Bad phone format",
		"Bad email",
		"Invalid",
		"No items",
		"Product name cannot contain '@' or ';'",
		"Try again",
		"Purchase saved: subtotal 5.00",
		"Could not find company for invoice.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestShell_ListPurchases(t *testing.T) {
	f := setupFixture(t)

	out, err := f.run(t,
		"1", "Acme", "+14155552671", "a.b@c.co",
		"1", "Globex", "5551234567", "g@globex.com",
		"3", "1", "Widget", "10", "3", "",
		"3", "2", "Gadget", "1.5", "2", "",
		"4",
		"5", "2",
		"8",
	)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !strings.Contains(out, "1\tWidget@10.00@3\t30.00\t2.70\t2.70\t35.40\t") {
		t.Errorf("all-purchases listing missing Widget row:\n%s", out)
	}
	section := out[strings.Index(out, "Purchases for 2"):]
	if !strings.Contains(section, "Gadget@1.50@2\t3.00\t0.27\t0.27\t3.54\t") {
		t.Errorf("per-company listing missing Gadget row:\n%s", section)
	}
	if strings.Contains(section[:strings.Index(section, "Bye!")], "Widget@") {
		t.Errorf("per-company listing should not include other companies:\n%s", section)
	}
}

func TestShell_ExportAndDelete(t *testing.T) {
	f := setupFixture(t)

	out, err := f.run(t,
		"1", "Acme", "+14155552671", "a.b@c.co",
		"3", "1", "Widget", "10", "1", "",
		"6",
		"7", "1", "n",
		"7", "1", "y",
		"2",
		"8",
	)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	reportPath := filepath.Join(f.dir, report.DefaultPath)
	if !strings.Contains(out, "Excel report created: "+reportPath+" (1 rows)") {
		t.Errorf("output missing report line:\n%s", out)
	}
	if strings.Count(out, "and its data deleted") != 1 {
		t.Errorf("delete should run once, after confirmation:\n%s", out)
	}

	entries, _ := os.ReadDir(filepath.Join(f.dir, "invoices"))
	if len(entries) != 0 {
		t.Errorf("invoices should be removed, got %d", len(entries))
	}
	companies, _ := f.svc.ListCompanies(context.Background())
	if len(companies) != 0 {
		t.Errorf("companies after delete = %+v", companies)
	}
}

func TestShell_EndOfInputExits(t *testing.T) {
	f := setupFixture(t)

	out, err := f.run(t, "1", "Acme")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "Bye!") {
		t.Errorf("shell should say goodbye at end of input:\n%s", out)
	}
}

func TestShell_StorageFailureStopsLoop(t *testing.T) {
	f := setupFixture(t)
	if err := os.Remove(filepath.Join(f.dir, "companies.csv")); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	out, err := f.run(t, "2", "8")
	if err == nil {
		t.Fatal("Run should fail when the company table is missing")
	}
	if strings.Contains(out, "Bye!") {
		t.Errorf("loop should stop before reading the exit choice:\n%s", out)
	}
}
