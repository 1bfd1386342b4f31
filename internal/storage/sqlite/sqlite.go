// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/billbook/internal/models"
	"github.com/mmynk/billbook/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

const companySequence = "company"

// SQLiteStore implements storage.Store using SQLite.
// Rows are stored in the same textual form as the CSV tables, so the two
// backends decode through the same record parsers.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One user, one process: a single connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// NextCompanyID reserves the next id from the sequences table, never going
// below the highest stored id plus one.
func (s *SQLiteStore) NextCompanyID(ctx context.Context) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRowContext(ctx, "SELECT next FROM sequences WHERE name = ?", companySequence).Scan(&next)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to read company sequence: %w", err)
	}

	var maxID sql.NullInt64
	if err := tx.QueryRowContext(ctx, "SELECT MAX(id) FROM companies").Scan(&maxID); err != nil {
		return 0, fmt.Errorf("failed to read max company id: %w", err)
	}
	if maxID.Valid && int(maxID.Int64) >= next {
		next = int(maxID.Int64) + 1
	}
	if next < 1 {
		next = 1
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO sequences (name, next) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET next = excluded.next",
		companySequence, next+1,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update company sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return next, nil
}

// AppendCompany inserts one company row.
func (s *SQLiteStore) AppendCompany(ctx context.Context, c *models.Company) error {
	return insertCompany(ctx, s.db, c)
}

// AppendBill inserts one bill row.
func (s *SQLiteStore) AppendBill(ctx context.Context, b *models.Bill) error {
	return insertBill(ctx, s.db, b)
}

// ReadAllCompanies returns every company ordered by id, which is also
// insertion order since ids only grow.
func (s *SQLiteStore) ReadAllCompanies(ctx context.Context) ([]models.Company, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, phone, email FROM companies ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to get companies: %w", err)
	}
	defer rows.Close()

	var companies []models.Company
	for rows.Next() {
		var c models.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate companies: %w", err)
	}
	return companies, nil
}

// ReadAllBills returns every bill in insertion order.
func (s *SQLiteStore) ReadAllBills(ctx context.Context) ([]models.Bill, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT seq, company_id, items, subtotal, cgst, sgst, total, created_at FROM bills ORDER BY seq",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get bills: %w", err)
	}
	defer rows.Close()

	var bills []models.Bill
	for rows.Next() {
		var (
			seq       int64
			companyID int
			rec       = make([]string, len(storage.BillHeaders))
		)
		if err := rows.Scan(&seq, &companyID, &rec[1], &rec[2], &rec[3], &rec[4], &rec[5], &rec[6]); err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		rec[0] = strconv.Itoa(companyID)

		b, err := storage.ParseBillRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("bill %d: %w", seq, err)
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}
	return bills, nil
}

// RewriteCompanies replaces the company table in one transaction.
func (s *SQLiteStore) RewriteCompanies(ctx context.Context, companies []models.Company) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM companies"); err != nil {
		return fmt.Errorf("failed to clear companies: %w", err)
	}
	for i := range companies {
		if err := insertCompany(ctx, tx, &companies[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RewriteBills replaces the bill table in one transaction.
func (s *SQLiteStore) RewriteBills(ctx context.Context, bills []models.Bill) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM bills"); err != nil {
		return fmt.Errorf("failed to clear bills: %w", err)
	}
	for i := range bills {
		if err := insertBill(ctx, tx, &bills[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertCompany(ctx context.Context, db execer, c *models.Company) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO companies (id, name, phone, email) VALUES (?, ?, ?, ?)",
		c.ID, c.Name, c.Phone, c.Email,
	)
	if err != nil {
		return fmt.Errorf("failed to insert company: %w", err)
	}
	return nil
}

func insertBill(ctx context.Context, db execer, b *models.Bill) error {
	rec := storage.BillRecord(b)
	_, err := db.ExecContext(ctx,
		"INSERT INTO bills (company_id, items, subtotal, cgst, sgst, total, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		b.CompanyID, rec[1], rec[2], rec[3], rec[4], rec[5], rec[6],
	)
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}
	return nil
}
