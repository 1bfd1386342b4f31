package calculator

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/billbook/internal/models"
)

func item(name, price string, qty int) models.LineItem {
	return models.LineItem{Name: name, Price: decimal.RequireFromString(price), Quantity: qty}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name    string
		items   []models.LineItem
		wantErr error
		want    [4]string // subtotal, cgst, sgst, total
	}{
		{
			name:  "single widget line",
			items: []models.LineItem{item("Widget", "10.00", 3)},
			want:  [4]string{"30.00", "2.70", "2.70", "35.40"},
		},
		{
			name: "several lines",
			items: []models.LineItem{
				item("Pen", "19.99", 2),
				item("Paper", "5.25", 4),
			},
			// 60.98 * 0.09 = 5.4882
			want: [4]string{"60.98", "5.49", "5.49", "71.96"},
		},
		{
			name:  "taxes rounded before summing",
			items: []models.LineItem{item("Clip", "0.50", 1)},
			// 0.045 rounds up twice: 0.50 + 0.05 + 0.05 = 0.60, not round(0.59)
			want: [4]string{"0.50", "0.05", "0.05", "0.60"},
		},
		{
			name:  "zero quantity",
			items: []models.LineItem{item("Sample", "12.00", 0)},
			want:  [4]string{"0.00", "0.00", "0.00", "0.00"},
		},
		{
			name:    "no items should error",
			items:   nil,
			wantErr: ErrNoItems,
		},
		{
			name:    "negative price should error",
			items:   []models.LineItem{item("Refund", "-1.00", 1)},
			wantErr: ErrInvalidItem,
		},
		{
			name:    "negative quantity should error",
			items:   []models.LineItem{item("Return", "1.00", -2)},
			wantErr: ErrInvalidItem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(tt.items, DefaultRates)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Compute() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Compute() unexpected error: %v", err)
			}

			fields := []struct {
				label string
				value decimal.Decimal
			}{
				{"subtotal", got.Subtotal},
				{"cgst", got.CGST},
				{"sgst", got.SGST},
				{"total", got.Total},
			}
			for i, f := range fields {
				if s := f.value.StringFixed(2); s != tt.want[i] {
					t.Errorf("%s = %s, want %s", f.label, s, tt.want[i])
				}
			}
		})
	}
}

func TestCompute_SubtotalIsExactSum(t *testing.T) {
	items := []models.LineItem{
		item("A", "0.10", 3),
		item("B", "0.20", 7),
		item("C", "1234.567", 1),
	}
	got, err := Compute(items, DefaultRates)
	if err != nil {
		t.Fatalf("Compute() unexpected error: %v", err)
	}

	// 1234.567 is taken as 1234.57.
	want := decimal.RequireFromString("1236.27")
	if !got.Subtotal.Equal(want) {
		t.Errorf("subtotal = %s, want %s", got.Subtotal, want)
	}
}

func TestCompute_DoubleRounding(t *testing.T) {
	for _, price := range []string{"0.50", "1.50", "2.50", "10.05", "99.95", "123.45"} {
		t.Run(price, func(t *testing.T) {
			got, err := Compute([]models.LineItem{item("X", price, 1)}, DefaultRates)
			if err != nil {
				t.Fatalf("Compute() unexpected error: %v", err)
			}
			s := decimal.RequireFromString(price)
			tax := s.Mul(decimal.RequireFromString("0.09")).Round(2)
			want := tax.Add(tax).Add(s).Round(2)
			if !got.Total.Equal(want) {
				t.Errorf("total = %s, want %s", got.Total, want)
			}
		})
	}
}

func TestCalculator_NewBill(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
	calc := New(DefaultRates, func() time.Time { return fixed })

	items := []models.LineItem{item("Widget", "10.00", 3)}
	bill, err := calc.NewBill(7, items)
	if err != nil {
		t.Fatalf("NewBill() unexpected error: %v", err)
	}

	if bill.CompanyID != 7 {
		t.Errorf("CompanyID = %d, want 7", bill.CompanyID)
	}
	if got := bill.Stamp(); got != "2026-03-14 09:26:53" {
		t.Errorf("Stamp() = %q, want %q", got, "2026-03-14 09:26:53")
	}
	if got := bill.FileStamp(); got != "2026-03-14_09-26-53" {
		t.Errorf("FileStamp() = %q, want %q", got, "2026-03-14_09-26-53")
	}
	if bill.Timestamp.Nanosecond() != 0 {
		t.Errorf("Timestamp not truncated: %v", bill.Timestamp)
	}

	items[0].Name = "changed"
	if bill.Items[0].Name != "Widget" {
		t.Error("NewBill should copy items")
	}
}

func TestCalculator_NewBillNoItems(t *testing.T) {
	calc := New(DefaultRates, nil)
	if _, err := calc.NewBill(1, nil); !errors.Is(err, ErrNoItems) {
		t.Errorf("NewBill() error = %v, want ErrNoItems", err)
	}
}

func TestVerify(t *testing.T) {
	calc := New(DefaultRates, nil)
	bill, err := calc.NewBill(1, []models.LineItem{item("Widget", "10.00", 3)})
	if err != nil {
		t.Fatalf("NewBill() unexpected error: %v", err)
	}

	if err := Verify(bill, DefaultRates); err != nil {
		t.Errorf("Verify() on fresh bill = %v, want nil", err)
	}

	bill.Total = decimal.RequireFromString("99.99")
	if err := Verify(bill, DefaultRates); err == nil {
		t.Error("Verify() should report a tampered total")
	}
}

func TestCalculator_NewBillRoundsPrices(t *testing.T) {
	calc := New(DefaultRates, nil)
	bill, err := calc.NewBill(1, []models.LineItem{item("Bolt", "0.005", 100)})
	if err != nil {
		t.Fatalf("NewBill() unexpected error: %v", err)
	}

	if got := bill.Items[0].Price.String(); got != "0.01" {
		t.Errorf("stored price = %s, want 0.01", got)
	}
	got := []string{bill.Subtotal.StringFixed(2), bill.CGST.StringFixed(2), bill.SGST.StringFixed(2), bill.Total.StringFixed(2)}
	want := []string{"1.00", "0.09", "0.09", "1.18"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("figures = %v, want %v", got, want)
		}
	}
	if err := Verify(bill, DefaultRates); err != nil {
		t.Errorf("Verify() = %v, want nil", err)
	}
}
