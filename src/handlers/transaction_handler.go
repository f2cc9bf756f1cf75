package handlers

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rafaavmsilva/Menu/src/logger"
	"github.com/rafaavmsilva/Menu/src/model"
	"github.com/rafaavmsilva/Menu/src/models"
	"github.com/rafaavmsilva/Menu/src/processors"
	"github.com/rafaavmsilva/Menu/src/security/validation"
	"github.com/rafaavmsilva/Menu/src/services"
	"github.com/rafaavmsilva/Menu/src/utils"
	"github.com/shopspring/decimal"
)

// TransactionReader is the read side of the transaction store.
type TransactionReader interface {
	List(ctx context.Context, filter model.TransactionFilter) ([]models.Transaction, error)
	SummarizeByType(ctx context.Context, exclude ...string) ([]models.TypeSummary, error)
}

type TransactionHandler struct {
	store     TransactionReader
	companies services.CompanyLookupService
}

func NewTransactionHandler(store TransactionReader, companies services.CompanyLookupService) *TransactionHandler {
	return &TransactionHandler{store: store, companies: companies}
}

func (h *TransactionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}

	txs, err := h.store.List(r.Context(), filter)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list transactions", "error", err)
		utils.SendJSONError(w, "Falha ao consultar transações", http.StatusInternalServerError)
		return
	}
	utils.WriteJSONWithETag(w, r, txs)
}

// HandleSummary groups everything except the receivable labels.
func (h *TransactionHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.SummarizeByType(r.Context(), processors.ReceivableLabels...)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to summarize transactions", "error", err)
		utils.SendJSONError(w, "Falha ao gerar o resumo", http.StatusInternalServerError)
		return
	}
	utils.WriteJSONWithETag(w, r, summary)
}

func (h *TransactionHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}
	log := logger.FromContext(r.Context())

	txs, err := h.store.List(r.Context(), filter)
	if err != nil {
		log.Error("Failed to list transactions for export", "error", err)
		utils.SendJSONError(w, "Falha ao exportar transações", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transacoes.csv"`)

	cw := csv.NewWriter(w)
	cw.Comma = ';'
	cw.Write([]string{"date", "description", "document", "value", "type", "transaction_type"})
	for _, tx := range txs {
		cw.Write([]string{
			tx.Date.Format("2006-01-02"),
			validation.SanitizeForFormulaInjection(tx.Description),
			validation.SanitizeForFormulaInjection(tx.Document),
			tx.Value.StringFixed(2),
			validation.SanitizeForFormulaInjection(tx.Type),
			tx.TransactionType,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Error("Failed to write CSV export", "error", err)
	}
}

type receivableTransaction struct {
	Date           string          `json:"date"`
	Description    string          `json:"description"`
	Value          decimal.Decimal `json:"value"`
	Type           string          `json:"type"`
	Document       string          `json:"document,omitempty"`
	HasCompanyInfo bool            `json:"has_company_info"`
}

type receivableTotals struct {
	PixRecebido decimal.Decimal `json:"pix_recebido"`
	TedRecebida decimal.Decimal `json:"ted_recebida"`
	Pagamento   decimal.Decimal `json:"pagamento"`
}

type receivablesResponse struct {
	Transactions []receivableTransaction `json:"transactions"`
	Totals       receivableTotals        `json:"totals"`
	Tipo         string                  `json:"tipo"`
	FailedCNPJs  int                     `json:"failed_cnpjs"`
}

// HandleRecebidos lists receivable transactions with per-label totals. Rows
// whose CNPJ resolves get a display description built from the company name.
func (h *TransactionHandler) HandleRecebidos(w http.ResponseWriter, r *http.Request) {
	tipo := strings.TrimSpace(r.URL.Query().Get("tipo"))
	if tipo == "" {
		tipo = "todos"
	}

	filter := model.TransactionFilter{Types: processors.ReceivableLabels}
	if tipo != "todos" {
		filter.Type = tipo
	}

	txs, err := h.store.List(r.Context(), filter)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list receivables", "tipo", tipo, "error", err)
		utils.SendJSONError(w, "Falha ao consultar recebimentos", http.StatusInternalServerError)
		return
	}

	resp := receivablesResponse{
		Transactions: make([]receivableTransaction, 0, len(txs)),
		Totals:       receivableTotals{PixRecebido: decimal.Zero, TedRecebida: decimal.Zero, Pagamento: decimal.Zero},
		Tipo:         tipo,
	}

	names := map[string]string{}
	for _, tx := range txs {
		switch tx.Type {
		case processors.LabelPixReceived:
			resp.Totals.PixRecebido = resp.Totals.PixRecebido.Add(tx.Value)
		case processors.LabelTedReceived:
			resp.Totals.TedRecebida = resp.Totals.TedRecebida.Add(tx.Value)
		case processors.LabelPayment:
			resp.Totals.Pagamento = resp.Totals.Pagamento.Add(tx.Value.Abs())
		}

		view := receivableTransaction{
			Date:        tx.Date.Format("2006-01-02"),
			Description: tx.Description,
			Value:       tx.Value,
			Type:        tx.Type,
			Document:    tx.Document,
		}
		if tx.Document != "" {
			name, seen := names[tx.Document]
			if !seen {
				if company, ok := h.companies.Resolve(r.Context(), tx.Document); ok {
					name = company.DisplayName()
				}
				names[tx.Document] = name
			}
			if name != "" {
				view.Description = receivableDescription(tx.Type, name, tx.Document)
				view.HasCompanyInfo = true
			}
		}
		resp.Transactions = append(resp.Transactions, view)
	}
	resp.FailedCNPJs = h.companies.FailedCount()

	utils.WriteJSON(w, http.StatusOK, resp)
}

func receivableDescription(label, name, cnpj string) string {
	shortID := strings.TrimLeft(cnpj, "0")
	if shortID == "" {
		shortID = "0"
	}
	if label == processors.LabelPayment {
		return fmt.Sprintf("PAGAMENTO A FORNECEDORES %s (%s)", name, shortID)
	}
	return fmt.Sprintf("%s %s (%s)", label, name, shortID)
}

func parseFilter(w http.ResponseWriter, r *http.Request) (model.TransactionFilter, bool) {
	q := r.URL.Query()
	filter := model.TransactionFilter{Type: strings.TrimSpace(q.Get("type"))}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			utils.SendJSONError(w, "Parâmetro 'limit' inválido", http.StatusBadRequest)
			return filter, false
		}
		filter.Limit = limit
	}
	return filter, true
}
