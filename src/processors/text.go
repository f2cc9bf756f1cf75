package processors

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// upper is the only normalization applied before comparing headers and
// keywords. Accents and spacing are significant, so "Agência" never
// matches "AGENCIA". A Caser is stateful, hence one per call.
func upper(s string) string {
	return cases.Upper(language.BrazilianPortuguese).String(s)
}
