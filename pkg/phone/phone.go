package phone

import (
	"strings"

	pkgerrors "github.com/freshoils/freshoils-backend/pkg/errors"
)

const (
	minDigits = 7
	maxDigits = 15
)

// Normalize canonicalizes a raw phone number into E.164 form. Numbers without
// a leading "+" get the default country code prefixed. Separators and common
// formatting characters are stripped before validation.
func Normalize(raw, defaultCountryCode string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "phone number is required")
	}

	hasPlus := strings.HasPrefix(trimmed, "+")
	digits := stripFormatting(trimmed)
	if digits == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "phone number must contain digits")
	}
	if strings.ContainsFunc(digits, func(r rune) bool { return r < '0' || r > '9' }) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "phone number contains invalid characters")
	}

	var normalized string
	if hasPlus {
		normalized = "+" + digits
	} else {
		cc := strings.TrimSpace(defaultCountryCode)
		if cc == "" {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "phone number must include a country code")
		}
		cc = "+" + strings.TrimPrefix(stripFormatting(cc), "0")
		// Local numbers often carry a trunk prefix that the country code replaces.
		normalized = cc + strings.TrimPrefix(digits, "0")
	}

	digitCount := len(normalized) - 1
	if digitCount < minDigits || digitCount > maxDigits {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "phone number length is invalid")
	}
	if normalized[1] == '0' {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "phone number country code is invalid")
	}

	return normalized, nil
}

func stripFormatting(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch r {
		case ' ', '-', '(', ')', '.', '+':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
