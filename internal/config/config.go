package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Store backends.
const (
	StoreCSV    = "csv"
	StoreSQLite = "sqlite"
)

// Config is built once at startup and passed to every component.
type Config struct {
	// Store selects the record store backend: "csv" or "sqlite".
	Store string

	CompaniesFile string
	BillsFile     string
	DBPath        string
	InvoiceDir    string
	ReportFile    string

	CGSTRate decimal.Decimal
	SGSTRate decimal.Decimal
	Currency string

	// InvoicePDF also renders each invoice as PDF.
	InvoicePDF bool

	// MetricsFile, when set, receives the metrics on exit.
	MetricsFile string

	LogLevel string
}

// Load loads configuration from environment with sensible defaults.
// Precedence: explicit env var > .env file (if loaded by the caller) > default.
func Load() (Config, error) {
	cfg := Config{
		Store:         strings.ToLower(getEnv("BILLBOOK_STORE", StoreCSV)),
		CompaniesFile: getEnv("BILLBOOK_COMPANIES_FILE", "companies.csv"),
		BillsFile:     getEnv("BILLBOOK_BILLS_FILE", "billbook.csv"),
		DBPath:        getEnv("BILLBOOK_DB_PATH", "billbook.db"),
		InvoiceDir:    getEnv("BILLBOOK_INVOICE_DIR", "invoices"),
		ReportFile:    getEnv("BILLBOOK_REPORT_FILE", "Billing_Report.xlsx"),
		Currency:      getEnv("BILLBOOK_CURRENCY", "₹"),
		MetricsFile:   os.Getenv("BILLBOOK_METRICS_FILE"),
		LogLevel:      getEnv("LOG_LEVEL", "warn"),
	}

	switch cfg.Store {
	case StoreCSV, StoreSQLite:
	default:
		return Config{}, fmt.Errorf("BILLBOOK_STORE: unknown backend %q", cfg.Store)
	}

	var err error
	if cfg.CGSTRate, err = parseRate("BILLBOOK_CGST_RATE", "0.09"); err != nil {
		return Config{}, err
	}
	if cfg.SGSTRate, err = parseRate("BILLBOOK_SGST_RATE", "0.09"); err != nil {
		return Config{}, err
	}
	if cfg.InvoicePDF, err = parseBool("BILLBOOK_INVOICE_PDF", false); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseRate(key, def string) (decimal.Decimal, error) {
	v := getEnv(key, def)
	rate, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: invalid rate %q: %w", key, v, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Decimal{}, fmt.Errorf("%s: rate %s must be between 0 and 1", key, rate)
	}
	return rate, nil
}

func parseBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}
