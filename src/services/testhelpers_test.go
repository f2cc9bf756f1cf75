package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rafaavmsilva/Menu/src/database"
	"github.com/rafaavmsilva/Menu/src/model"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// fakeCNPJAPI serves BrasilAPI-shaped responses for the companies it knows.
type fakeCNPJAPI struct {
	mu        sync.Mutex
	companies map[string]brasilAPIResponse
	calls     map[string]int
	server    *httptest.Server
}

func newFakeCNPJAPI(t *testing.T) *fakeCNPJAPI {
	t.Helper()
	api := &fakeCNPJAPI{companies: map[string]brasilAPIResponse{}, calls: map[string]int{}}
	api.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/cnpj/")
		api.mu.Lock()
		api.calls[id]++
		company, ok := api.companies[id]
		api.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"CNPJ não encontrado"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(company)
	}))
	t.Cleanup(api.server.Close)
	return api
}

func (a *fakeCNPJAPI) add(id, razao, fantasia string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.companies[id] = brasilAPIResponse{CNPJ: id, RazaoSocial: razao, NomeFantasia: fantasia, Municipio: "SAO PAULO", UF: "SP"}
}

func (a *fakeCNPJAPI) callCount(id string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[id]
}

func (a *fakeCNPJAPI) config() CNPJServiceConfig {
	return CNPJServiceConfig{BaseURL: a.server.URL + "/cnpj", RetryPause: 0}
}

func newTestStore(t *testing.T) *model.TransactionStore {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.ResetSchema(db))
	return model.NewTransactionStore(db)
}

func writeStatement(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "extrato.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}
