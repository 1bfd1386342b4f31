// Package csvstore provides a flat-file implementation of the storage.Store
// interface: one comma-separated file per table, each starting with a fixed
// header row.
package csvstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mmynk/billbook/internal/models"
	"github.com/mmynk/billbook/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store on top of two CSV files.
// Every call opens, uses and closes its file; no handle is kept.
type Store struct {
	companiesPath string
	billsPath     string
	seqPath       string
}

// New creates a Store for the given table paths. Parent directories and
// missing tables are created; existing files are left untouched.
func New(companiesPath, billsPath string) (*Store, error) {
	s := &Store{
		companiesPath: companiesPath,
		billsPath:     billsPath,
		seqPath:       companiesPath + ".seq",
	}
	if err := EnsureTable(companiesPath, storage.CompanyHeaders); err != nil {
		return nil, err
	}
	if err := EnsureTable(billsPath, storage.BillHeaders); err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureTable creates path with headers as its only row if it does not exist.
func EnsureTable(path string, headers []string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create table directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		f.Close()
		return fmt.Errorf("failed to write header to %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write header to %s: %w", path, err)
	}
	return f.Close()
}

// Close is a no-op; the store holds no open files.
func (s *Store) Close() error {
	return nil
}

// NextCompanyID reserves the next id from the sequence file.
// The result is never below the highest stored id plus one, so a missing or
// stale sequence file cannot cause an id to be reused.
func (s *Store) NextCompanyID(ctx context.Context) (int, error) {
	companies, err := s.ReadAllCompanies(ctx)
	if err != nil {
		return 0, err
	}

	next, err := s.readSeq()
	if err != nil {
		return 0, err
	}
	for _, c := range companies {
		if c.ID >= next {
			next = c.ID + 1
		}
	}
	if next < 1 {
		next = 1
	}

	if err := writeFileAtomic(s.seqPath, []byte(strconv.Itoa(next+1)+"\n")); err != nil {
		return 0, fmt.Errorf("failed to update company sequence: %w", err)
	}
	return next, nil
}

func (s *Store) readSeq() (int, error) {
	data, err := os.ReadFile(s.seqPath)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read company sequence: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: company sequence %q", storage.ErrMalformedRow, strings.TrimSpace(string(data)))
	}
	return n, nil
}

// AppendCompany appends c to the company table.
func (s *Store) AppendCompany(_ context.Context, c *models.Company) error {
	return appendRecord(s.companiesPath, storage.CompanyRecord(c))
}

// AppendBill appends b to the bill table.
func (s *Store) AppendBill(_ context.Context, b *models.Bill) error {
	return appendRecord(s.billsPath, storage.BillRecord(b))
}

// ReadAllCompanies returns the company table without its header.
func (s *Store) ReadAllCompanies(_ context.Context) ([]models.Company, error) {
	records, err := readRecords(s.companiesPath)
	if err != nil {
		return nil, err
	}

	companies := make([]models.Company, 0, len(records))
	for i, rec := range records {
		c, err := storage.ParseCompanyRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", s.companiesPath, i+2, err)
		}
		companies = append(companies, c)
	}
	return companies, nil
}

// ReadAllBills returns the bill table without its header.
func (s *Store) ReadAllBills(_ context.Context) ([]models.Bill, error) {
	records, err := readRecords(s.billsPath)
	if err != nil {
		return nil, err
	}

	bills := make([]models.Bill, 0, len(records))
	for i, rec := range records {
		b, err := storage.ParseBillRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", s.billsPath, i+2, err)
		}
		bills = append(bills, b)
	}
	return bills, nil
}

// RewriteCompanies replaces the company table body.
func (s *Store) RewriteCompanies(_ context.Context, companies []models.Company) error {
	records := make([][]string, len(companies))
	for i := range companies {
		records[i] = storage.CompanyRecord(&companies[i])
	}
	return rewriteTable(s.companiesPath, storage.CompanyHeaders, records)
}

// RewriteBills replaces the bill table body.
func (s *Store) RewriteBills(_ context.Context, bills []models.Bill) error {
	records := make([][]string, len(bills))
	for i := range bills {
		records[i] = storage.BillRecord(&bills[i])
	}
	return rewriteTable(s.billsPath, storage.BillHeaders, records)
}

func appendRecord(path string, rec []string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(rec); err != nil {
		f.Close()
		return fmt.Errorf("failed to append to %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to append to %s: %w", path, err)
	}
	return f.Close()
}

// readRecords returns every row after the header.
func readRecords(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	// Column counts are checked per row by the record parsers.
	r.FieldsPerRecord = -1

	var records [][]string
	header := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if header {
			header = false
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// rewriteTable writes headers and records to a temp file and renames it
// over path.
func rewriteTable(path string, headers []string, records [][]string) error {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(headers); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := writeFileAtomic(path, []byte(sb.String())); err != nil {
		return fmt.Errorf("failed to rewrite %s: %w", path, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
