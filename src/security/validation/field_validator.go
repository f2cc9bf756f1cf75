package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrValidationFailed = errors.New("validation failed")

// NormalizeCNPJ strips punctuation from a user supplied CNPJ and checks it
// has 14 digits. A leading zero on a 15-digit value is dropped.
func NormalizeCNPJ(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: cnpj cannot be empty", ErrValidationFailed)
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '/' || r == '-' || r == ' ':
		default:
			return "", fmt.Errorf("%w: cnpj '%s' contains invalid characters", ErrValidationFailed, s)
		}
	}
	digits := b.String()
	if len(digits) == 15 && digits[0] == '0' {
		digits = digits[1:]
	}
	if len(digits) != 14 {
		return "", fmt.Errorf("%w: cnpj '%s' must have 14 digits", ErrValidationFailed, s)
	}
	return digits, nil
}

// CNPJChecksumValid verifies the two check digits of a 14-digit CNPJ.
func CNPJChecksumValid(cnpj string) bool {
	if len(cnpj) != 14 {
		return false
	}
	allSame := true
	for i := 1; i < 14; i++ {
		if cnpj[i] != cnpj[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}

	checkDigit := func(n int) byte {
		weights := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}[13-n:]
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(cnpj[i]-'0') * weights[i]
		}
		rem := sum % 11
		if rem < 2 {
			return '0'
		}
		return byte('0' + 11 - rem)
	}
	return checkDigit(12) == cnpj[12] && checkDigit(13) == cnpj[13]
}

// ValidateProcessID checks that a process id is a UUID.
func ValidateProcessID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: invalid process id '%s'", ErrValidationFailed, id)
	}
	return nil
}
