// Package models defines the core domain models for billbook.
//
// # Models
//
//   - Company: a customer that purchases are billed to
//   - LineItem: one product entry inside a bill
//   - Bill: a single purchase with its derived tax figures
//
// Relationships are kept as plain integer ids rather than pointers. A bill's
// CompanyID is a soft reference: nothing guarantees the company still exists.
//
// Money is held as decimal.Decimal so that the persisted two-decimal figures
// can be reproduced exactly from the line items.
package models
