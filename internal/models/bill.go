package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the second-precision layout bills are stamped with.
const TimestampLayout = "2006-01-02 15:04:05"

// Bill represents a single purchase for one company.
// Subtotal, CGST, SGST and Total are derived from Items and are never
// edited independently.
type Bill struct {
	// CompanyID references Company.ID. It is not enforced.
	CompanyID int

	// Items are the purchased line items, in entry order.
	Items []LineItem

	// Subtotal is the sum of price x quantity over all items.
	Subtotal decimal.Decimal

	// CGST and SGST are the two tax halves, each rounded to 2 decimals.
	CGST decimal.Decimal
	SGST decimal.Decimal

	// Total is subtotal plus both taxes, rounded to 2 decimals.
	Total decimal.Decimal

	// Timestamp is the creation instant, truncated to the second.
	Timestamp time.Time
}

// Stamp returns the bill timestamp in TimestampLayout.
func (b *Bill) Stamp() string {
	return b.Timestamp.Format(TimestampLayout)
}

// FileStamp returns the timestamp with colons and spaces replaced so it can
// be used inside a file name.
func (b *Bill) FileStamp() string {
	return strings.NewReplacer(":", "-", " ", "_").Replace(b.Stamp())
}

// LineItem is one product entry on a bill.
type LineItem struct {
	// Name must not contain '@' or ';', which delimit the encoded item list.
	Name string

	// Price is the non-negative unit price.
	Price decimal.Decimal

	// Quantity is the number of units.
	Quantity int
}

// LineTotal returns price x quantity, unrounded.
func (i LineItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
