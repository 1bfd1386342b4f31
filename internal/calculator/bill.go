package calculator

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/billbook/internal/models"
)

var (
	// ErrNoItems is returned when a bill is built without line items.
	ErrNoItems = errors.New("bill must have at least one item")
	// ErrInvalidItem is returned for negative prices or quantities.
	ErrInvalidItem = errors.New("invalid line item")
)

// Rates holds the two tax rates applied to every bill.
type Rates struct {
	CGST decimal.Decimal
	SGST decimal.Decimal
}

// DefaultRates is 9% CGST plus 9% SGST.
var DefaultRates = Rates{
	CGST: decimal.RequireFromString("0.09"),
	SGST: decimal.RequireFromString("0.09"),
}

// Totals are the derived figures of a bill.
type Totals struct {
	Subtotal decimal.Decimal
	CGST     decimal.Decimal
	SGST     decimal.Decimal
	Total    decimal.Decimal
}

// Compute derives bill totals from items.
//
// Unit prices are taken at 2 decimal places, the precision they are stored
// and printed with. The subtotal is exact over those prices. Each tax is rounded to 2 places on its own, and the
// total is rounded again after adding the rounded taxes, so Total may differ
// from round(subtotal * (1 + rates), 2) by a cent.
func Compute(items []models.LineItem, rates Rates) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, ErrNoItems
	}

	subtotal := decimal.Zero
	for i, item := range items {
		if item.Price.IsNegative() {
			return Totals{}, fmt.Errorf("%w: item %d (%s) has negative price %s", ErrInvalidItem, i+1, item.Name, item.Price)
		}
		if item.Quantity < 0 {
			return Totals{}, fmt.Errorf("%w: item %d (%s) has negative quantity %d", ErrInvalidItem, i+1, item.Name, item.Quantity)
		}
		subtotal = subtotal.Add(quantize(item).LineTotal())
	}

	cgst := subtotal.Mul(rates.CGST).Round(2)
	sgst := subtotal.Mul(rates.SGST).Round(2)
	total := subtotal.Add(cgst).Add(sgst).Round(2)

	return Totals{
		Subtotal: subtotal,
		CGST:     cgst,
		SGST:     sgst,
		Total:    total,
	}, nil
}

func quantize(item models.LineItem) models.LineItem {
	item.Price = item.Price.Round(2)
	return item
}

// Calculator builds bills stamped with the current time.
type Calculator struct {
	rates Rates
	now   func() time.Time
}

// New creates a Calculator. A nil now defaults to time.Now.
func New(rates Rates, now func() time.Time) *Calculator {
	if now == nil {
		now = time.Now
	}
	return &Calculator{rates: rates, now: now}
}

// Rates returns the tax rates this calculator applies.
func (c *Calculator) Rates() Rates {
	return c.rates
}

// NewBill computes a bill for companyID from items.
// The items slice is copied with prices rounded to 2 places.
func (c *Calculator) NewBill(companyID int, items []models.LineItem) (*models.Bill, error) {
	totals, err := Compute(items, c.rates)
	if err != nil {
		return nil, err
	}

	stored := make([]models.LineItem, len(items))
	for i, item := range items {
		stored[i] = quantize(item)
	}

	return &models.Bill{
		CompanyID: companyID,
		Items:     stored,
		Subtotal:  totals.Subtotal,
		CGST:      totals.CGST,
		SGST:      totals.SGST,
		Total:     totals.Total,
		Timestamp: c.now().Truncate(time.Second),
	}, nil
}

// Verify recomputes a stored bill's figures from its items and reports
// whether they match what was persisted. Stored figures are compared at two
// decimal places, which is the precision they are written with.
func Verify(bill *models.Bill, rates Rates) error {
	totals, err := Compute(bill.Items, rates)
	if err != nil {
		return err
	}

	checks := []struct {
		field     string
		got, want decimal.Decimal
	}{
		{"subtotal", bill.Subtotal, totals.Subtotal},
		{"cgst", bill.CGST, totals.CGST},
		{"sgst", bill.SGST, totals.SGST},
		{"total", bill.Total, totals.Total},
	}
	for _, c := range checks {
		if !c.got.Round(2).Equal(c.want.Round(2)) {
			return fmt.Errorf("bill for company %d at %s: stored %s %s, recomputed %s",
				bill.CompanyID, bill.Stamp(), c.field, c.got.StringFixed(2), c.want.StringFixed(2))
		}
	}
	return nil
}
