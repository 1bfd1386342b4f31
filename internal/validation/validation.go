// Package validation provides the coarse format checks applied to user input
// before anything is written.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidPhone is returned when a phone number fails IsValidPhone.
	ErrInvalidPhone = errors.New("bad phone format")
	// ErrInvalidEmail is returned when an address fails IsValidEmail.
	ErrInvalidEmail = errors.New("bad email")
	// ErrInvalidItemName is returned for empty item names or names that
	// contain the item-list delimiters.
	ErrInvalidItemName = errors.New("invalid item name")
)

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)
)

// ItemDelimiters are the characters reserved by the encoded item list.
const ItemDelimiters = "@;"

// IsValidPhone reports whether s is an optional '+' followed by 7-15 digits.
func IsValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// IsValidEmail reports whether s looks like local@domain.tld.
// This only catches obviously malformed input.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// companyInput mirrors the add-company form. Field order decides which
// failure is reported first.
type companyInput struct {
	Name  string
	Phone string `validate:"billphone"`
	Email string `validate:"billemail"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("billphone", func(fl validator.FieldLevel) bool {
		return IsValidPhone(fl.Field().String())
	})
	_ = v.RegisterValidation("billemail", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	})
	return v
}

// ValidateCompany checks the add-company form. The phone is checked before
// the email; only the first failure is returned.
func ValidateCompany(name, phone, email string) error {
	err := validate.Struct(companyInput{Name: name, Phone: phone, Email: email})
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate company: %w", err)
	}
	switch verrs[0].Tag() {
	case "billphone":
		return fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	case "billemail":
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	default:
		return fmt.Errorf("validate company: %w", err)
	}
}

// ValidateItemName rejects empty names and names containing '@' or ';'.
func ValidateItemName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidItemName)
	}
	if strings.ContainsAny(name, ItemDelimiters) {
		return fmt.Errorf("%w: %q must not contain '@' or ';'", ErrInvalidItemName, name)
	}
	return nil
}
