package validation

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var strictHTMLPolicy = bluemonday.StrictPolicy()

// SanitizeText strips all markup from text received from outside sources,
// such as company names returned by the CNPJ API. Entities escaped by the
// policy are decoded again so "A & B" stays readable.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictHTMLPolicy.Sanitize(s)))
}

// SanitizeForFormulaInjection makes a CSV cell inert in spreadsheet software
// by quoting values whose first non-space character starts a formula.
func SanitizeForFormulaInjection(s string) string {
	trimmed := strings.TrimLeft(s, " ")
	if trimmed == "" {
		return s
	}
	switch trimmed[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

// StripUnprintable drops control and other non-printable runes, keeping tabs
// and line breaks.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsPrint(r), r == '\t', r == '\n', r == '\r':
			return r
		}
		return -1
	}, s)
}
