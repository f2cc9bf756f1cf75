package processors

import (
	"strings"

	"github.com/rafaavmsilva/Menu/src/models"
	"github.com/shopspring/decimal"
)

const (
	LabelPixReceived   = "PIX RECEBIDO"
	LabelPixSent       = "PIX ENVIADO"
	LabelTedReceived   = "TED RECEBIDA"
	LabelTedSent       = "TED ENVIADA"
	LabelPayment       = "PAGAMENTO"
	LabelFee           = "TARIFA"
	LabelIOF           = "IOF"
	LabelRedemption    = "RESGATE"
	LabelInvestment    = "APLICACAO"
	LabelPurchase      = "COMPRA"
	LabelClearing      = "COMPENSACAO"
	LabelCheque        = "CHEQUE"
	LabelTransfer      = "TRANSFERENCIA"
	LabelInterest      = "JUROS"
	LabelPenalty       = "MULTA"
	LabelGenericCredit = "CREDITO"
	LabelGenericDebit  = "DEBITO"
)

// ClassificationRule assigns Label when any keyword occurs in a description.
type ClassificationRule struct {
	Label    string
	Keywords []string
}

// ClassificationRules is evaluated top to bottom and the first hit wins,
// so a description with both "PAGAMENTO" and "TARIFA" is a PAGAMENTO.
// Keywords are upper case and matched verbatim against the upper-cased
// description, so accented spellings are listed next to plain ones.
var ClassificationRules = []ClassificationRule{
	{Label: LabelPixReceived, Keywords: []string{"PIX RECEBIDO"}},
	{Label: LabelPixSent, Keywords: []string{"PIX ENVIADO"}},
	{Label: LabelTedReceived, Keywords: []string{"TED RECEBIDA", "TED CREDIT"}},
	{Label: LabelTedSent, Keywords: []string{"TED ENVIADA", "TED DEBIT"}},
	{Label: LabelPayment, Keywords: []string{"PAGAMENTO", "PGTO", "PAG"}},
	{Label: LabelFee, Keywords: []string{"TARIFA", "TAR"}},
	{Label: LabelIOF, Keywords: []string{"IOF"}},
	{Label: LabelRedemption, Keywords: []string{"RESGATE"}},
	{Label: LabelInvestment, Keywords: []string{"APLICACAO", "APLICAÇÃO"}},
	{Label: LabelPurchase, Keywords: []string{"COMPRA"}},
	{Label: LabelClearing, Keywords: []string{"COMPENSACAO", "COMPENSAÇÃO"}},
	{Label: LabelCheque, Keywords: []string{"CHEQUE"}},
	{Label: LabelTransfer, Keywords: []string{"TRANSFERENCIA", "TRANSF"}},
	{Label: LabelInterest, Keywords: []string{"JUROS"}},
	{Label: LabelPenalty, Keywords: []string{"MULTA"}},
}

// ReceivableLabels are the labels eligible for CNPJ enrichment.
var ReceivableLabels = []string{LabelPixReceived, LabelTedReceived, LabelPayment}

// Classify returns exactly one label for a description and signed value.
func Classify(description string, value decimal.Decimal) string {
	desc := upper(description)
	for _, rule := range ClassificationRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(desc, kw) {
				return rule.Label
			}
		}
	}

	positive := value.IsPositive()
	switch {
	case strings.Contains(desc, "PIX"):
		return pick(positive, LabelPixReceived, LabelPixSent)
	case strings.Contains(desc, "TED"):
		return pick(positive, LabelTedReceived, LabelTedSent)
	default:
		return pick(positive, LabelGenericCredit, LabelGenericDebit)
	}
}

// TransactionType is "receita" for positive values and "despesa" otherwise.
func TransactionType(value decimal.Decimal) string {
	return pick(value.IsPositive(), models.TransactionTypeIncome, models.TransactionTypeExpense)
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
