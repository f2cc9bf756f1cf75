package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rafaavmsilva/Menu/src/logger"
	"github.com/rafaavmsilva/Menu/src/security/validation"
	"github.com/rafaavmsilva/Menu/src/services"
	"github.com/rafaavmsilva/Menu/src/utils"
)

type CNPJHandler struct {
	service services.CompanyLookupService
}

func NewCNPJHandler(service services.CompanyLookupService) *CNPJHandler {
	return &CNPJHandler{service: service}
}

type verifyCNPJResponse struct {
	Valid       bool   `json:"valid"`
	CompanyName string `json:"company_name,omitempty"`
	CNPJ        string `json:"cnpj"`
}

// HandleVerify resolves a single CNPJ. Malformed input is a 400; a well-formed
// CNPJ that cannot be resolved is {"valid": false}.
func (h *CNPJHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "cnpj")
	cnpj, err := validation.NormalizeCNPJ(raw)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := verifyCNPJResponse{CNPJ: cnpj}
	if !validation.CNPJChecksumValid(cnpj) {
		logger.FromContext(r.Context()).Debug("CNPJ failed checksum, skipping lookup", "cnpj", cnpj)
		utils.WriteJSON(w, http.StatusOK, resp)
		return
	}

	if company, ok := h.service.Resolve(r.Context(), cnpj); ok {
		resp.Valid = true
		resp.CompanyName = company.DisplayName()
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *CNPJHandler) HandleListFailed(w http.ResponseWriter, r *http.Request) {
	failed := h.service.FailedCNPJs()
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"count": len(failed),
		"cnpjs": failed,
	})
}

// HandleRetry runs one bulk retry pass over the failed set.
func (h *CNPJHandler) HandleRetry(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.RetryFailed(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("CNPJ retry finished with errors", "error", err)
	}
	if report == nil {
		utils.SendJSONError(w, "Falha ao reprocessar CNPJs", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, report)
}
