package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	// Ethereum-style address: 0x followed by exactly 40 hex characters.
	// Pattern match only, no checksum verification.
	walletAddressRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	referenceRegex     = regexp.MustCompile(`^REF-[A-Z0-9]{8}$`)
)

// IsWalletAddress reports whether s is a well-formed recipient address.
func IsWalletAddress(s string) bool {
	return walletAddressRegex.MatchString(s)
}

// IsPaymentReference reports whether s is a well-formed payment reference.
func IsPaymentReference(s string) bool {
	return referenceRegex.MatchString(s)
}

// Validator collects field validation errors
type Validator struct {
	Errors map[string]string
}

// New creates a new validator
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid checks if there are any validation errors
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError adds an error to the validator
func (v *Validator) AddError(field, message string) {
	if _, exists := v.Errors[field]; !exists {
		v.Errors[field] = message
	}
}

// Check adds an error if the condition is false
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// First returns one error message, for single-message API responses.
func (v *Validator) First() string {
	for _, msg := range v.Errors {
		return msg
	}
	return ""
}

// Required checks that a string is not blank
func (v *Validator) Required(field, value string) {
	v.Check(strings.TrimSpace(value) != "", field, "must not be empty")
}

// Email validates email format
func (v *Validator) Email(field, email string) {
	v.Check(emailRegex.MatchString(email), field, "must be a valid email address")
}

// Phone validates phone number format
func (v *Validator) Phone(field, phone string) {
	v.Check(phoneRegex.MatchString(phone), field, "must be a valid phone number")
}

// WalletAddress validates the recipient address format
func (v *Validator) WalletAddress(field, address string) {
	v.Check(IsWalletAddress(address), field, "must be a 0x-prefixed 40 character hex address")
}

// Range checks if a number is between min and max inclusive
func (v *Validator) Range(field string, value float64, min, max float64) {
	v.Check(value >= min && value <= max, field, fmt.Sprintf("must be between %v and %v", min, max))
}

// MinLength checks if a string has at least n characters
func (v *Validator) MinLength(field string, value string, n int) {
	v.Check(len(value) >= n, field, fmt.Sprintf("must be at least %d characters long", n))
}

// MaxLength checks if a string has at most n characters
func (v *Validator) MaxLength(field string, value string, n int) {
	v.Check(len(value) <= n, field, fmt.Sprintf("must not be more than %d characters long", n))
}

// Password validates password strength
func (v *Validator) Password(field, password string) {
	v.MinLength(field, password, 8)

	var (
		hasUpper   bool
		hasLower   bool
		hasNumber  bool
		hasSpecial bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	v.Check(hasUpper, field, "must contain at least one uppercase letter")
	v.Check(hasLower, field, "must contain at least one lowercase letter")
	v.Check(hasNumber, field, "must contain at least one number")
	v.Check(hasSpecial, field, "must contain at least one special character")
}
