// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/billbook/internal/models"
)

// ErrMalformedRow is returned when a stored row cannot be decoded.
var ErrMalformedRow = errors.New("malformed row")

// Column headers of the two tables. Both backends expose the same columns.
var (
	CompanyHeaders = []string{"CompanyID", "Name", "Phone", "Email"}
	BillHeaders    = []string{"CompanyID", "Items", "SubTotal", "CGST", "SGST", "Total", "Timestamp"}
)

// Store defines the interface for company and bill storage.
// This abstraction allows swapping storage backends (CSV files, SQLite)
// without changing the service layer.
type Store interface {
	// NextCompanyID reserves and returns the next company id.
	// Ids are never handed out twice, even after the company is deleted.
	NextCompanyID(ctx context.Context) (int, error)

	// AppendCompany appends one company row. No uniqueness check is made.
	AppendCompany(ctx context.Context, company *models.Company) error

	// AppendBill appends one bill row. The company id is not checked.
	AppendBill(ctx context.Context, bill *models.Bill) error

	// ReadAllCompanies returns every company in insertion order.
	ReadAllCompanies(ctx context.Context) ([]models.Company, error)

	// ReadAllBills returns every bill in insertion order.
	ReadAllBills(ctx context.Context) ([]models.Bill, error)

	// RewriteCompanies replaces the whole company table.
	RewriteCompanies(ctx context.Context, companies []models.Company) error

	// RewriteBills replaces the whole bill table.
	RewriteBills(ctx context.Context, bills []models.Bill) error

	// Close releases any resources held by the store.
	Close() error
}
