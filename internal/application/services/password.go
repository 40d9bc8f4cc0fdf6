package services

import (
	"unicode"

	"github.com/NuncEstBibendum/agrolink-api/internal/apperr"
)

const MinPasswordLength = 8

// ValidatePassword enforces the account password policy: at least
// MinPasswordLength characters with a lower-case letter, an upper-case
// letter, a digit and a symbol.
func ValidatePassword(password string) error {
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	length := 0
	for _, r := range password {
		length++
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsSpace(r):
			hasSymbol = true
		}
	}
	if length < MinPasswordLength || !hasLower || !hasUpper || !hasDigit || !hasSymbol {
		return apperr.Invalid("password does not meet the security policy")
	}
	return nil
}
