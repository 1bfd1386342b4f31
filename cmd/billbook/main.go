package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/mmynk/billbook/internal/calculator"
	"github.com/mmynk/billbook/internal/config"
	"github.com/mmynk/billbook/internal/invoice"
	"github.com/mmynk/billbook/internal/metrics"
	"github.com/mmynk/billbook/internal/middleware"
	"github.com/mmynk/billbook/internal/report"
	"github.com/mmynk/billbook/internal/service"
	"github.com/mmynk/billbook/internal/shell"
	"github.com/mmynk/billbook/internal/storage"
	"github.com/mmynk/billbook/internal/storage/csvstore"
	"github.com/mmynk/billbook/internal/storage/sqlite"
	"github.com/mmynk/billbook/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "billbook:", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env next to the binary; real env vars take precedence.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	slog.Info("Storage initialized", "backend", cfg.Store)

	writer, err := invoice.NewWriter(invoice.Config{
		Dir:      cfg.InvoiceDir,
		Currency: cfg.Currency,
		PDF:      cfg.InvoicePDF,
	}, store)
	if err != nil {
		return err
	}

	m := metrics.New()
	svc := service.NewBillingService(
		store,
		calculator.New(calculator.Rates{CGST: cfg.CGSTRate, SGST: cfg.SGSTRate}, nil),
		writer,
		report.NewExporter(cfg.ReportFile, store),
		m,
	)

	sh := shell.New(svc, os.Stdin, os.Stdout, middleware.Logging(), middleware.Metrics(m))
	runErr := sh.Run(context.Background())

	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			slog.Error("Failed to write metrics", "path", cfg.MetricsFile, "error", err)
		}
	}
	return runErr
}

func openStore(cfg config.Config) (storage.Store, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		return sqlite.New(cfg.DBPath)
	default:
		return csvstore.New(cfg.CompaniesFile, cfg.BillsFile)
	}
}
