package processors

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/rafaavmsilva/Menu/src/logger"
	"github.com/rafaavmsilva/Menu/src/models"
)

// Tried in order; the first pattern that matches anywhere wins.
var cnpjPatterns = []*regexp.Regexp{
	regexp.MustCompile(`CNPJ[:\s]*(\d{14,15})`),
	regexp.MustCompile(`CNPJ[:\s]*(\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2})`),
	regexp.MustCompile(`\b(\d{14,15})\b`),
	regexp.MustCompile(`\b(\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2})\b`),
}

// CompanyResolver looks up a normalized 14-digit CNPJ.
type CompanyResolver interface {
	Resolve(ctx context.Context, cnpj string) (*models.CompanyRecord, bool)
}

// CNPJMatch is an identifier found in a description.
type CNPJMatch struct {
	CNPJ string // normalized, 14 digits
	Text string // the full matched substring, prefix included
}

// ExtractCNPJ finds the first CNPJ-like token in description and normalizes it.
// A 15-digit token loses its leading zero; any other length besides 14 is rejected.
// A 15-digit token without a leading zero is not supported.
func ExtractCNPJ(description string) (CNPJMatch, bool) {
	for _, re := range cnpjPatterns {
		m := re.FindStringSubmatch(description)
		if m == nil {
			continue
		}
		digits := onlyDigits(m[1])
		if len(digits) == 15 && digits[0] == '0' {
			digits = digits[1:]
		}
		if len(digits) != 14 {
			return CNPJMatch{}, false
		}
		return CNPJMatch{CNPJ: digits, Text: m[0]}, true
	}
	return CNPJMatch{}, false
}

// CNPJExtractor rewrites receivable descriptions with the counterparty name.
type CNPJExtractor struct {
	resolver CompanyResolver
}

func NewCNPJExtractor(resolver CompanyResolver) *CNPJExtractor {
	return &CNPJExtractor{resolver: resolver}
}

// Enrich returns the possibly rewritten description and the extracted CNPJ.
// Only PIX RECEBIDO, TED RECEBIDA and PAGAMENTO descriptions are inspected.
// When the lookup fails the description is returned unchanged but the
// CNPJ is still reported.
func (e *CNPJExtractor) Enrich(ctx context.Context, description, label string) (string, string) {
	if !slices.Contains(ReceivableLabels, label) {
		return description, ""
	}

	match, ok := ExtractCNPJ(description)
	if !ok {
		return description, ""
	}

	company, found := e.resolver.Resolve(ctx, match.CNPJ)
	if !found {
		logger.FromContext(ctx).Debug("CNPJ not resolved, keeping description", "cnpj", match.CNPJ)
		return description, match.CNPJ
	}
	return strings.ReplaceAll(description, match.Text, enrichedName(company.FormalName(), match.CNPJ)), match.CNPJ
}

// ReplaceIdentifier rewrites every occurrence of cnpj (raw, zero-padded or
// punctuated, with an optional "CNPJ:" prefix) into "<name> (CNPJ: <cnpj>)".
// Descriptions that already carry the enriched form are left alone.
func ReplaceIdentifier(description, cnpj, name string) string {
	replacement := enrichedName(name, cnpj)
	if strings.Contains(description, "(CNPJ: "+cnpj+")") {
		return description
	}
	re := regexp.MustCompile(`(?:CNPJ[:\s]*)?(?:0?` + regexp.QuoteMeta(cnpj) + `|` + regexp.QuoteMeta(models.FormatCNPJ(cnpj)) + `)`)
	return re.ReplaceAllLiteralString(description, replacement)
}

// IdentifierNeedles are the substrings that mark a description as mentioning cnpj.
func IdentifierNeedles(cnpj string) []string {
	return []string{cnpj, models.FormatCNPJ(cnpj)}
}

func enrichedName(name, cnpj string) string {
	return fmt.Sprintf("%s (CNPJ: %s)", name, cnpj)
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
