package models

import "time"

// CompanyRecord is the cached result of a successful CNPJ lookup.
type CompanyRecord struct {
	CNPJ      string    `json:"cnpj"`
	Name      string    `json:"name"`       // Razão social
	TradeName string    `json:"trade_name"` // Nome fantasia
	Status    string    `json:"status,omitempty"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// FormalName returns the razão social, falling back to the trade name.
func (c CompanyRecord) FormalName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.TradeName
}

// DisplayName prefers the trade name.
func (c CompanyRecord) DisplayName() string {
	if c.TradeName != "" {
		return c.TradeName
	}
	return c.Name
}

// FormatCNPJ renders a 14-digit CNPJ as 99.999.999/9999-99.
// Anything else is returned unchanged.
func FormatCNPJ(cnpj string) string {
	if len(cnpj) != 14 {
		return cnpj
	}
	return cnpj[0:2] + "." + cnpj[2:5] + "." + cnpj[5:8] + "/" + cnpj[8:12] + "-" + cnpj[12:14]
}
