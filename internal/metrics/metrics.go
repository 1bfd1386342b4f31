// Package metrics holds the Prometheus instruments for billbook.
//
// billbook has no HTTP surface, so instead of being scraped the registry is
// written to a node-exporter textfile when the process exits.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Metrics bundles a private registry with the instruments registered on it.
type Metrics struct {
	registry *prometheus.Registry

	CompaniesAdded    prometheus.Counter
	CompaniesDeleted  prometheus.Counter
	BillsSaved        prometheus.Counter
	BilledAmount      prometheus.Counter
	InvoicesWritten   prometheus.Counter
	InvoicesSkipped   prometheus.Counter
	InvoicePDFErrors  prometheus.Counter
	ReportsExported   prometheus.Counter
	OperationDuration *prometheus.HistogramVec
}

// New creates and registers all instruments.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CompaniesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billbook_companies_added_total",
			Help: "Companies added.",
		}),
		CompaniesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billbook_companies_deleted_total",
			Help: "Companies removed by cascading delete.",
		}),
		BillsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billbook_bills_saved_total",
			Help: "Bills appended to the bill table.",
		}),
		BilledAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billbook_billed_amount_total",
			Help: "Sum of bill totals including tax.",
		}),
		InvoicesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billbook_invoices_written_total",
			Help: "Invoice files written.",
		}),
		InvoicesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billbook_invoices_skipped_total",
			Help: "Saved bills whose invoice could not be written.",
		}),
		InvoicePDFErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billbook_invoice_pdf_errors_total",
			Help: "Text invoices written whose PDF copy failed.",
		}),
		ReportsExported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billbook_reports_exported_total",
			Help: "Spreadsheet reports exported.",
		}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "billbook_operation_duration_seconds",
			Help:    "Duration of shell operations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"operation", "outcome"}),
	}

	m.registry.MustRegister(
		m.CompaniesAdded,
		m.CompaniesDeleted,
		m.BillsSaved,
		m.BilledAmount,
		m.InvoicesWritten,
		m.InvoicesSkipped,
		m.InvoicePDFErrors,
		m.ReportsExported,
		m.OperationDuration,
	)
	return m
}

// Registry returns the registry the instruments live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveBill records a saved bill.
func (m *Metrics) ObserveBill(total decimal.Decimal) {
	m.BillsSaved.Inc()
	m.BilledAmount.Add(total.InexactFloat64())
}

// ObserveOperation records how long a shell operation took.
func (m *Metrics) ObserveOperation(operation string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.OperationDuration.WithLabelValues(operation, outcome).Observe(d.Seconds())
}

// WriteTextfile writes the current values in the text exposition format,
// replacing path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
