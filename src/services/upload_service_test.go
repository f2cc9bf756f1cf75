package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rafaavmsilva/Menu/src/model"
	"github.com/rafaavmsilva/Menu/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUploadService(t *testing.T) (*UploadService, *model.TransactionStore, *fakeCNPJAPI, *CNPJService) {
	t.Helper()
	api := newFakeCNPJAPI(t)
	store := newTestStore(t)
	cnpj := NewCNPJService(api.config(), store)
	svc := NewUploadService(NewJobTracker(time.Minute, time.Minute), store, cnpj, 2)
	return svc, store, api, cnpj
}

func waitTerminal(t *testing.T, svc *UploadService, id string) models.UploadJob {
	t.Helper()
	var job models.UploadJob
	require.Eventually(t, func() bool {
		var err error
		job, err = svc.Poll(id)
		return err == nil && job.Status.IsTerminal()
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

func TestUploadImportsStatement(t *testing.T) {
	svc, store, api, cnpj := newTestUploadService(t)
	api.add(acmeCNPJ, "ACME COMERCIO LTDA", "Acme")

	path := writeStatement(t, [][]any{
		{"Data", "Histórico", "Valor"},
		{"05/01/2024", "PIX RECEBIDO CNPJ 12345678000195", "150,00"},
		{"06/01/2024", "PAGAMENTO FORNECEDOR", "-80,00"},
	})

	id := svc.Start(path, "extrato.xlsx")
	job := waitTerminal(t, svc, id)

	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, "Processamento concluído! 2 transações importadas.", job.Message)
	assert.Equal(t, 2, job.Current)
	assert.Equal(t, 2, job.Total)
	assert.Equal(t, 2, job.Inserted)
	assert.Zero(t, cnpj.FailedCount())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "processed file is removed")

	txs, err := store.List(context.Background(), model.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 2)

	payment, pix := txs[0], txs[1]
	assert.Equal(t, "PAGAMENTO", payment.Type)
	assert.Equal(t, models.TransactionTypeExpense, payment.TransactionType)
	assert.Equal(t, "2024-01-06", payment.Date.Format("2006-01-02"))

	assert.Equal(t, "PIX RECEBIDO", pix.Type)
	assert.Equal(t, models.TransactionTypeIncome, pix.TransactionType)
	assert.Equal(t, "PIX RECEBIDO ACME COMERCIO LTDA (CNPJ: 12345678000195)", pix.Description)
	assert.Equal(t, acmeCNPJ, pix.Document)
	assert.Equal(t, "150", pix.Value.String())
}

func TestUploadSkipsBadRowsButCountsThem(t *testing.T) {
	svc, store, _, cnpj := newTestUploadService(t)

	path := writeStatement(t, [][]any{
		{"DATA", "DESCRICAO", "VALOR"},
		{"não é data", "COMPRA", "10,00"},
		{"07/01/2024", "TED RECEBIDA 12.345.678/0001-95", "1.234,56"},
		{"08/01/2024", "TARIFA", "abc"},
	})

	id := svc.Start(path, "extrato.xlsx")
	job := waitTerminal(t, svc, id)

	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, 3, job.Total)
	assert.Equal(t, 3, job.Current)
	assert.Equal(t, 1, job.Inserted)
	assert.Equal(t, 2, job.Skipped)

	// The lookup failed, so the raw description and document are kept.
	txs, err := store.List(context.Background(), model.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "TED RECEBIDA 12.345.678/0001-95", txs[0].Description)
	assert.Equal(t, acmeCNPJ, txs[0].Document)
	assert.Equal(t, "1234.56", txs[0].Value.String())
	assert.Equal(t, []string{acmeCNPJ}, cnpj.FailedCNPJs())
}

func TestUploadMissingColumnsKeepsFile(t *testing.T) {
	svc, store, _, _ := newTestUploadService(t)

	path := writeStatement(t, [][]any{
		{"Quando", "Histórico", "Valor"},
		{"05/01/2024", "PIX RECEBIDO", "10,00"},
	})

	id := svc.Start(path, "extrato.xlsx")
	job := waitTerminal(t, svc, id)

	assert.Equal(t, models.JobStatusError, job.Status)
	assert.Contains(t, job.Message, "Erro: ")
	assert.Contains(t, job.Message, "Colunas disponíveis: [Quando, Histórico, Valor]")

	_, err := os.Stat(path)
	assert.NoError(t, err, "failed upload keeps its file")

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUploadUnreadableFile(t *testing.T) {
	svc, _, _, _ := newTestUploadService(t)

	path := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o600))

	job := waitTerminal(t, svc, svc.Start(path, "broken.xlsx"))
	assert.Equal(t, models.JobStatusError, job.Status)
	assert.Contains(t, job.Message, "Erro: ")
}

func TestPollUnknownProcess(t *testing.T) {
	svc, _, _, _ := newTestUploadService(t)
	_, err := svc.Poll("00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestImportRunsSynchronously(t *testing.T) {
	svc, _, _, _ := newTestUploadService(t)

	path := writeStatement(t, [][]any{
		{"Data", "Histórico", "Valor"},
		{"05/01/2024", "JUROS S/ SALDO", "-3,10"},
	})

	job, err := svc.Import(context.Background(), path, "extrato.xlsx")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, 1, job.Inserted)
}

func TestConcurrentUploadsAreIsolated(t *testing.T) {
	svc, store, _, _ := newTestUploadService(t)

	var ids []string
	for i := 0; i < 4; i++ {
		path := writeStatement(t, [][]any{
			{"Data", "Histórico", "Valor"},
			{"05/01/2024", "COMPRA CARTAO", "-10,00"},
			{"06/01/2024", "COMPRA CARTAO", "-20,00"},
		})
		ids = append(ids, svc.Start(path, "extrato.xlsx"))
	}
	svc.Wait()

	for _, id := range ids {
		job, err := svc.Poll(id)
		require.NoError(t, err)
		assert.Equal(t, models.JobStatusCompleted, job.Status)
		assert.Equal(t, 2, job.Inserted)
	}
	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, count)
}

func TestImportLegacyXLS(t *testing.T) {
	svc, store, api, _ := newTestUploadService(t)
	api.add(acmeCNPJ, "ACME COMERCIO LTDA", "Acme")

	fixture, err := os.ReadFile(filepath.Join("..", "parsers", "spreadsheet", "testdata", "extrato.xls"))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "extrato.xls")
	require.NoError(t, os.WriteFile(path, fixture, 0o600))

	job, err := svc.Import(context.Background(), path, "extrato.xls")
	require.NoError(t, err)
	assert.Equal(t, 3, job.Total)
	assert.Equal(t, 3, job.Inserted)

	txs, err := store.List(context.Background(), model.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 3)

	payment, fee, pix := txs[0], txs[1], txs[2]
	assert.Equal(t, "2024-01-08", payment.Date.Format("2006-01-02"))
	assert.Equal(t, "PAGAMENTO", payment.Type)
	assert.Equal(t, "-80", payment.Value.String())

	assert.Equal(t, "2024-01-06", fee.Date.Format("2006-01-02"), "unpadded day/month")
	assert.Equal(t, "TARIFA", fee.Type)
	assert.Equal(t, "-9.9", fee.Value.String())

	assert.Equal(t, "2024-01-05", pix.Date.Format("2006-01-02"))
	assert.Equal(t, acmeCNPJ, pix.Document)
	assert.Contains(t, pix.Description, "ACME COMERCIO LTDA")
	assert.Equal(t, "150.5", pix.Value.String())
}
