package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionTypeIncome  = "receita"
	TransactionTypeExpense = "despesa"
)

// Transaction represents one normalized, classified bank-statement row.
type Transaction struct {
	ID              int64           `json:"id,omitempty"` // Database primary key
	Date            time.Time       `json:"date"`
	Description     string          `json:"description"`        // Post-enrichment description
	Document        string          `json:"document,omitempty"` // Extracted CNPJ (14 digits), if any
	Value           decimal.Decimal `json:"value"`
	Type            string          `json:"type"`                 // Classification label, e.g. "PIX RECEBIDO"
	Identifier      string          `json:"identifier,omitempty"` // Reserved
	TransactionType string          `json:"transaction_type"`     // "receita" or "despesa"
	CreatedAt       time.Time       `json:"created_at,omitempty"`
}

// TypeSummary aggregates persisted transactions by classification label.
type TypeSummary struct {
	Type    string          `json:"type"`
	Count   int             `json:"count"`
	Total   decimal.Decimal `json:"total"`
	Details []string        `json:"details"`
}
