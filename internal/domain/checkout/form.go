package checkout

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/qualitytime/storefront/internal/domain/order"
)

// DeliveryMethod selects office pickup or home delivery.
type DeliveryMethod = order.DeliveryMethod

const (
	DeliveryOffice = order.DeliveryOffice
	DeliveryHome   = order.DeliveryHome
)

// ValidationError reports the first invalid form field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Form is the shipping form filled in at checkout.
type Form struct {
	Name         string
	Email        string
	Phone        string
	Wilaya       string
	Municipality string
	Address      string
	Delivery     DeliveryMethod
}

// Normalize returns the form with whitespace trimmed, the phone number
// stripped of separators and the wilaya in canonical form. It does not
// validate.
func (f Form) Normalize() Form {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')':
			return -1
		}
		return r
	}, f.Phone)
	if w, ok := LookupWilaya(f.Wilaya); ok {
		f.Wilaya = w
	}
	f.Municipality = strings.TrimSpace(f.Municipality)
	f.Address = strings.TrimSpace(f.Address)
	f.Delivery = DeliveryMethod(strings.ToUpper(strings.TrimSpace(string(f.Delivery))))
	return f
}

// Validate checks a normalized form.
func (f Form) Validate() error {
	if utf8.RuneCountInString(f.Name) < 2 {
		return &ValidationError{Field: "name", Reason: "at least 2 characters required"}
	}
	if f.Email != "" {
		if _, err := mail.ParseAddress(f.Email); err != nil {
			return &ValidationError{Field: "email", Reason: "not a valid address"}
		}
	}
	if !validPhone(f.Phone) {
		return &ValidationError{Field: "phone", Reason: "9 to 15 digits expected"}
	}
	if _, ok := LookupWilaya(f.Wilaya); !ok {
		return &ValidationError{Field: "wilaya", Reason: "unknown province"}
	}
	if f.Municipality == "" {
		return &ValidationError{Field: "municipality", Reason: "required"}
	}
	if f.Address == "" {
		return &ValidationError{Field: "address", Reason: "required"}
	}
	if !f.Delivery.Valid() {
		return &ValidationError{Field: "delivery", Reason: "must be OFFICE or HOME"}
	}
	return nil
}

func validPhone(s string) bool {
	s = strings.TrimPrefix(s, "+")
	if len(s) < 9 || len(s) > 15 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
