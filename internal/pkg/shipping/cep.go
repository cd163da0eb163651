package shipping

import (
	"errors"
	"strings"
)

// ErrInvalidCEP marks a postal code that is not 8 digits after stripping
// formatting. Callers surface it as a validation error, never as a fallback
// price.
var ErrInvalidCEP = errors.New("invalid CEP: expected 8 digits")

// NormalizeCEP strips non-digit characters and validates the result has
// exactly 8 digits.
func NormalizeCEP(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	cep := b.String()
	if len(cep) != 8 {
		return "", ErrInvalidCEP
	}
	return cep, nil
}
