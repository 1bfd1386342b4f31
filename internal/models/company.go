package models

// Company is a customer that bills are recorded against.
type Company struct {
	// ID is assigned from the store's persisted counter and never reused.
	ID int

	// Name is free text.
	Name string

	// Phone is an optional leading '+' followed by 7-15 digits.
	Phone string

	// Email is a coarse local@domain.tld address.
	Email string
}
