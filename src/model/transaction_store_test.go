package model

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rafaavmsilva/Menu/src/database"
	"github.com/rafaavmsilva/Menu/src/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *TransactionStore {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.ResetSchema(db))
	return NewTransactionStore(db)
}

func tx(date, desc, value, label string) models.Transaction {
	d, _ := time.Parse("2006-01-02", date)
	v := decimal.RequireFromString(value)
	kind := models.TransactionTypeExpense
	if v.IsPositive() {
		kind = models.TransactionTypeIncome
	}
	return models.Transaction{Date: d, Description: desc, Value: v, Type: label, TransactionType: kind}
}

func TestInsertBatchAndList(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first := tx("2024-01-05", "PIX RECEBIDO CNPJ 12345678000195", "150.00", "PIX RECEBIDO")
	first.Document = "12345678000195"
	n, err := store.InsertBatch(ctx, []models.Transaction{
		first,
		tx("2024-01-06", "PAGAMENTO FORNECEDOR", "-80.00", "PAGAMENTO"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := store.List(ctx, TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "PAGAMENTO", all[0].Type)
	assert.Equal(t, models.TransactionTypeExpense, all[0].TransactionType)
	assert.True(t, all[0].Value.Equal(decimal.NewFromInt(-80)))
	assert.Empty(t, all[0].Document)
	assert.Equal(t, "12345678000195", all[1].Document)
	assert.Equal(t, "2024-01-05", all[1].Date.Format("2006-01-02"))
	assert.False(t, all[1].CreatedAt.IsZero())

	pix, err := store.List(ctx, TransactionFilter{Type: "PIX RECEBIDO"})
	require.NoError(t, err)
	require.Len(t, pix, 1)
	assert.Equal(t, models.TransactionTypeIncome, pix[0].TransactionType)
}

func TestInsertBatchSkipsFailingRows(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	bad := tx("2024-01-07", "TARIFA", "-5", "TARIFA")
	bad.TransactionType = "invalid"

	n, err := store.InsertBatch(ctx, []models.Transaction{
		tx("2024-01-05", "COMPRA", "-10", "COMPRA"),
		bad,
		tx("2024-01-06", "JUROS", "2.5", "JUROS"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSummarizeByType(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.InsertBatch(ctx, []models.Transaction{
		tx("2024-01-05", "TARIFA A", "-5.10", "TARIFA"),
		tx("2024-01-06", "TARIFA B", "-4.90", "TARIFA"),
		tx("2024-01-06", "COMPRA", "-20", "COMPRA"),
	})
	require.NoError(t, err)

	summary, err := store.SummarizeByType(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, "COMPRA", summary[0].Type)
	assert.Equal(t, "TARIFA", summary[1].Type)
	assert.Equal(t, 2, summary[1].Count)
	assert.True(t, summary[1].Total.Equal(decimal.NewFromInt(-10)), summary[1].Total.String())
	assert.Equal(t, []string{"TARIFA A (-5.10)", "TARIFA B (-4.90)"}, summary[1].Details)
}

func TestSummarizeByTypeExcludes(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.InsertBatch(ctx, []models.Transaction{
		tx("2024-01-05", "PIX RECEBIDO X", "100", "PIX RECEBIDO"),
		tx("2024-01-05", "PAGAMENTO Y", "-40", "PAGAMENTO"),
		tx("2024-01-06", "COMPRA", "-20", "COMPRA"),
	})
	require.NoError(t, err)

	summary, err := store.SummarizeByType(ctx, "PIX RECEBIDO", "PAGAMENTO")
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, "COMPRA", summary[0].Type)
	assert.Equal(t, 1, summary[0].Count)
}

func TestListByTypes(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.InsertBatch(ctx, []models.Transaction{
		tx("2024-01-05", "PIX RECEBIDO X", "100", "PIX RECEBIDO"),
		tx("2024-01-06", "TED RECEBIDA Y", "50", "TED RECEBIDA"),
		tx("2024-01-07", "COMPRA", "-20", "COMPRA"),
	})
	require.NoError(t, err)

	got, err := store.List(ctx, TransactionFilter{Types: []string{"PIX RECEBIDO", "TED RECEBIDA"}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "TED RECEBIDA", got[0].Type)

	limited, err := store.List(ctx, TransactionFilter{Types: []string{"PIX RECEBIDO", "TED RECEBIDA"}, Type: "PIX RECEBIDO", Limit: 5})
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestRewriteDescriptions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.InsertBatch(ctx, []models.Transaction{
		tx("2024-01-05", "PIX RECEBIDO 12345678000195", "10", "PIX RECEBIDO"),
		tx("2024-01-05", "TED RECEBIDA 12.345.678/0001-95", "10", "TED RECEBIDA"),
		tx("2024-01-05", "PAGAMENTO OUTRO", "-10", "PAGAMENTO"),
	})
	require.NoError(t, err)

	updated, err := store.RewriteDescriptions(ctx, []string{"12345678000195", "12.345.678/0001-95"}, func(s string) string {
		s = strings.ReplaceAll(s, "12345678000195", "ACME")
		return strings.ReplaceAll(s, "12.345.678/0001-95", "ACME")
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated)

	all, err := store.List(ctx, TransactionFilter{})
	require.NoError(t, err)
	var descs []string
	for _, tx := range all {
		descs = append(descs, tx.Description)
	}
	assert.ElementsMatch(t, []string{"PIX RECEBIDO ACME", "TED RECEBIDA ACME", "PAGAMENTO OUTRO"}, descs)
}

func TestRewriteDescriptionsNoNeedles(t *testing.T) {
	store := newTestStore(t)
	n, err := store.RewriteDescriptions(context.Background(), nil, func(s string) string { return s })
	require.NoError(t, err)
	assert.Zero(t, n)
}
