package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/billbook/internal/calculator"
	"github.com/mmynk/billbook/internal/invoice"
	"github.com/mmynk/billbook/internal/metrics"
	"github.com/mmynk/billbook/internal/middleware"
	"github.com/mmynk/billbook/internal/models"
	"github.com/mmynk/billbook/internal/report"
	"github.com/mmynk/billbook/internal/storage"
	"github.com/mmynk/billbook/internal/validation"
)

// BillingService implements the operations offered by the shell.
type BillingService struct {
	store    storage.Store
	calc     *calculator.Calculator
	invoices *invoice.Writer
	reports  *report.Exporter
	metrics  *metrics.Metrics
}

// NewBillingService creates a BillingService over the given components.
func NewBillingService(
	store storage.Store,
	calc *calculator.Calculator,
	invoices *invoice.Writer,
	reports *report.Exporter,
	m *metrics.Metrics,
) *BillingService {
	return &BillingService{
		store:    store,
		calc:     calc,
		invoices: invoices,
		reports:  reports,
		metrics:  m,
	}
}

// AddCompany validates the form, reserves an id and appends the company.
// Nothing is written when validation fails.
func (s *BillingService) AddCompany(ctx context.Context, name, phone, email string) (*models.Company, error) {
	name, phone, email = strings.TrimSpace(name), strings.TrimSpace(phone), strings.TrimSpace(email)
	if err := validation.ValidateCompany(name, phone, email); err != nil {
		return nil, err
	}

	id, err := s.store.NextCompanyID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to assign company id: %w", err)
	}

	company := &models.Company{ID: id, Name: name, Phone: phone, Email: email}
	if err := s.store.AppendCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to save company: %w", err)
	}

	s.metrics.CompaniesAdded.Inc()
	slog.Info("Company added", "company_id", id, "op_id", middleware.GetOperationID(ctx))
	return company, nil
}

// ListCompanies returns every company in insertion order.
func (s *BillingService) ListCompanies(ctx context.Context) ([]models.Company, error) {
	return s.store.ReadAllCompanies(ctx)
}

// SaveBill computes a bill from items and appends it. The company id is not
// checked against the company table.
func (s *BillingService) SaveBill(ctx context.Context, companyID int, items []models.LineItem) (*models.Bill, error) {
	if len(items) == 0 {
		return nil, calculator.ErrNoItems
	}
	for _, item := range items {
		if err := validation.ValidateItemName(item.Name); err != nil {
			return nil, err
		}
	}

	bill, err := s.calc.NewBill(companyID, items)
	if err != nil {
		return nil, err
	}
	if err := s.store.AppendBill(ctx, bill); err != nil {
		return nil, fmt.Errorf("failed to save bill: %w", err)
	}

	s.metrics.ObserveBill(bill.Total)
	slog.Info("Bill saved",
		"company_id", companyID,
		"items", len(bill.Items),
		"total", bill.Total.StringFixed(2),
		"op_id", middleware.GetOperationID(ctx),
	)
	return bill, nil
}

// RenderInvoice writes the invoice for a saved bill. A bill whose company is
// missing yields invoice.ErrCompanyNotFound; the bill itself stays saved.
// When only the PDF copy fails, the text invoice path is returned with the
// error.
func (s *BillingService) RenderInvoice(ctx context.Context, bill *models.Bill) (string, error) {
	path, err := s.invoices.Write(ctx, bill)
	if err != nil && path != "" {
		s.metrics.InvoicesWritten.Inc()
		s.metrics.InvoicePDFErrors.Inc()
		slog.Error("Invoice PDF failed", "path", path, "error", err, "op_id", middleware.GetOperationID(ctx))
		return path, err
	}
	if err != nil {
		s.metrics.InvoicesSkipped.Inc()
		if errors.Is(err, invoice.ErrCompanyNotFound) {
			slog.Warn("Invoice skipped", "company_id", bill.CompanyID, "error", err)
		}
		return "", err
	}

	s.metrics.InvoicesWritten.Inc()
	slog.Info("Invoice written", "path", path, "op_id", middleware.GetOperationID(ctx))
	return path, nil
}

// PurchaseResult is the outcome of AddPurchase.
type PurchaseResult struct {
	Bill *models.Bill

	// InvoicePath is empty when no invoice was written.
	InvoicePath string

	// InvoiceErr explains a missing invoice, or a failed PDF copy when
	// InvoicePath is set.
	InvoiceErr error
}

// AddPurchase saves a bill and then attempts its invoice.
//
// A missing company or a failed PDF copy is reported through
// PurchaseResult.InvoiceErr with a nil error. Any other invoice failure is
// also returned as the error, alongside the result, since the bill has
// already been persisted.
func (s *BillingService) AddPurchase(ctx context.Context, companyID int, items []models.LineItem) (*PurchaseResult, error) {
	bill, err := s.SaveBill(ctx, companyID, items)
	if err != nil {
		return nil, err
	}

	res := &PurchaseResult{Bill: bill}
	res.InvoicePath, res.InvoiceErr = s.RenderInvoice(ctx, bill)
	if res.InvoiceErr != nil && res.InvoicePath == "" && !errors.Is(res.InvoiceErr, invoice.ErrCompanyNotFound) {
		return res, fmt.Errorf("bill saved but invoice failed: %w", res.InvoiceErr)
	}
	return res, nil
}

// ListBills returns every bill. Bills whose stored figures no longer match
// their items are logged but still returned.
func (s *BillingService) ListBills(ctx context.Context) ([]models.Bill, error) {
	bills, err := s.store.ReadAllBills(ctx)
	if err != nil {
		return nil, err
	}
	for i := range bills {
		if err := calculator.Verify(&bills[i], s.calc.Rates()); err != nil {
			slog.Warn("Stored bill does not match its items", "row", i+1, "error", err)
		}
	}
	return bills, nil
}

// ListBillsForCompany returns the bills of one company.
func (s *BillingService) ListBillsForCompany(ctx context.Context, companyID int) ([]models.Bill, error) {
	bills, err := s.ListBills(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.Bill
	for _, b := range bills {
		if b.CompanyID == companyID {
			out = append(out, b)
		}
	}
	return out, nil
}

// ExportReport writes the spreadsheet report and returns its path and the
// number of data rows.
func (s *BillingService) ExportReport(ctx context.Context) (string, int, error) {
	n, err := s.reports.Export(ctx)
	if err != nil {
		return "", 0, err
	}

	s.metrics.ReportsExported.Inc()
	slog.Info("Report exported", "path", s.reports.Path(), "rows", n)
	return s.reports.Path(), n, nil
}

// DeleteResult summarizes a cascading delete.
type DeleteResult struct {
	CompanyFound    bool
	BillsRemoved    int
	InvoicesRemoved int
}

// DeleteCompany removes the company row, all its bills and all its invoice
// files. Bills and invoices are removed even when the company row is already
// gone, which clears out orphans.
func (s *BillingService) DeleteCompany(ctx context.Context, companyID int) (*DeleteResult, error) {
	res := &DeleteResult{}

	companies, err := s.store.ReadAllCompanies(ctx)
	if err != nil {
		return nil, err
	}
	keptCompanies := companies[:0:0]
	for _, c := range companies {
		if c.ID == companyID {
			res.CompanyFound = true
			continue
		}
		keptCompanies = append(keptCompanies, c)
	}
	if res.CompanyFound {
		if err := s.store.RewriteCompanies(ctx, keptCompanies); err != nil {
			return nil, fmt.Errorf("failed to delete company: %w", err)
		}
	}

	bills, err := s.store.ReadAllBills(ctx)
	if err != nil {
		return nil, err
	}
	keptBills := bills[:0:0]
	for _, b := range bills {
		if b.CompanyID == companyID {
			res.BillsRemoved++
			continue
		}
		keptBills = append(keptBills, b)
	}
	if res.BillsRemoved > 0 {
		if err := s.store.RewriteBills(ctx, keptBills); err != nil {
			return nil, fmt.Errorf("failed to delete bills: %w", err)
		}
	}

	res.InvoicesRemoved, err = s.invoices.RemoveForCompany(companyID)
	if err != nil {
		return nil, err
	}

	if res.CompanyFound {
		s.metrics.CompaniesDeleted.Inc()
	}
	slog.Info("Company deleted",
		"company_id", companyID,
		"found", res.CompanyFound,
		"bills_removed", res.BillsRemoved,
		"invoices_removed", res.InvoicesRemoved,
		"op_id", middleware.GetOperationID(ctx),
	)
	return res, nil
}
