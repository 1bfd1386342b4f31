package storage

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/billbook/internal/models"
)

const (
	itemSeparator  = ";"
	fieldSeparator = "@"
)

// EncodeItems joins items as "name@price@qty" entries separated by ';'.
// Prices are written with two decimals. Names must not contain '@' or ';'.
func EncodeItems(items []models.LineItem) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.Name + fieldSeparator + item.Price.StringFixed(2) + fieldSeparator + strconv.Itoa(item.Quantity)
	}
	return strings.Join(parts, itemSeparator)
}

// DecodeItems parses the output of EncodeItems.
func DecodeItems(s string) ([]models.LineItem, error) {
	if s == "" {
		return nil, nil
	}

	entries := strings.Split(s, itemSeparator)
	items := make([]models.LineItem, 0, len(entries))
	for i, entry := range entries {
		fields := strings.Split(entry, fieldSeparator)
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: item %d %q: want name@price@qty", ErrMalformedRow, i+1, entry)
		}
		price, err := decimal.NewFromString(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: item %d price %q: %v", ErrMalformedRow, i+1, fields[1], err)
		}
		qty, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("%w: item %d quantity %q: %v", ErrMalformedRow, i+1, fields[2], err)
		}
		items = append(items, models.LineItem{Name: fields[0], Price: price, Quantity: qty})
	}
	return items, nil
}

// CompanyRecord returns the table row for c.
func CompanyRecord(c *models.Company) []string {
	return []string{strconv.Itoa(c.ID), c.Name, c.Phone, c.Email}
}

// ParseCompanyRecord decodes a company table row.
func ParseCompanyRecord(rec []string) (models.Company, error) {
	if len(rec) != len(CompanyHeaders) {
		return models.Company{}, fmt.Errorf("%w: want %d columns, got %d", ErrMalformedRow, len(CompanyHeaders), len(rec))
	}
	id, err := strconv.Atoi(rec[0])
	if err != nil {
		return models.Company{}, fmt.Errorf("%w: company id %q: %v", ErrMalformedRow, rec[0], err)
	}
	return models.Company{ID: id, Name: rec[1], Phone: rec[2], Email: rec[3]}, nil
}

// BillRecord returns the table row for b. Money columns use two decimals.
func BillRecord(b *models.Bill) []string {
	return []string{
		strconv.Itoa(b.CompanyID),
		EncodeItems(b.Items),
		b.Subtotal.StringFixed(2),
		b.CGST.StringFixed(2),
		b.SGST.StringFixed(2),
		b.Total.StringFixed(2),
		b.Stamp(),
	}
}

// ParseBillRecord decodes a bill table row. Timestamps are read in local time.
func ParseBillRecord(rec []string) (models.Bill, error) {
	if len(rec) != len(BillHeaders) {
		return models.Bill{}, fmt.Errorf("%w: want %d columns, got %d", ErrMalformedRow, len(BillHeaders), len(rec))
	}

	companyID, err := strconv.Atoi(rec[0])
	if err != nil {
		return models.Bill{}, fmt.Errorf("%w: company id %q: %v", ErrMalformedRow, rec[0], err)
	}
	items, err := DecodeItems(rec[1])
	if err != nil {
		return models.Bill{}, err
	}

	var amounts [4]decimal.Decimal
	for i, col := range rec[2:6] {
		amounts[i], err = decimal.NewFromString(col)
		if err != nil {
			return models.Bill{}, fmt.Errorf("%w: %s %q: %v", ErrMalformedRow, BillHeaders[i+2], col, err)
		}
	}

	ts, err := time.ParseInLocation(models.TimestampLayout, rec[6], time.Local)
	if err != nil {
		return models.Bill{}, fmt.Errorf("%w: timestamp %q: %v", ErrMalformedRow, rec[6], err)
	}

	return models.Bill{
		CompanyID: companyID,
		Items:     items,
		Subtotal:  amounts[0],
		CGST:      amounts[1],
		SGST:      amounts[2],
		Total:     amounts[3],
		Timestamp: ts,
	}, nil
}
