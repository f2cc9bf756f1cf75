package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveColumns(t *testing.T) {
	cols, err := ResolveColumns([]string{"Agência", "DATA", "histórico", "Documento", "valor"})
	require.NoError(t, err)
	assert.Equal(t, ColumnMap{Date: "DATA", Description: "histórico", Value: "valor"}, cols)
}

func TestResolveColumnsAccentsAreSignificant(t *testing.T) {
	cols, err := ResolveColumns([]string{"Agência", "Data", "Histórico", "Valor"})
	require.NoError(t, err)
	assert.Equal(t, "Data", cols.Date, "Agência is not the AGENCIA alias")

	cols, err = ResolveColumns([]string{"Agencia", "Data", "Histórico", "Valor"})
	require.NoError(t, err)
	assert.Equal(t, "Agencia", cols.Date)

	_, err = ResolveColumns([]string{"Data", "Historico", "Valor"})
	require.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "descrição")
}

func TestResolveColumnsFirstDeclaredWins(t *testing.T) {
	cols, err := ResolveColumns([]string{"Conta", "Descrição", "Dt", "Data", "Quantia", "Valor"})
	require.NoError(t, err)
	assert.Equal(t, "Conta", cols.Description)
	assert.Equal(t, "Dt", cols.Date)
	assert.Equal(t, "Quantia", cols.Value)
}

func TestResolveColumnsUnnamedValue(t *testing.T) {
	cols, err := ResolveColumns([]string{"Data", "Unnamed: 1", "Histórico", "Doc", "Unnamed: 4"})
	require.NoError(t, err)
	assert.Equal(t, "Unnamed: 4", cols.Value)
}

func TestResolveColumnsMissing(t *testing.T) {
	_, err := ResolveColumns([]string{"Data", "Observação", "Saldo"})
	require.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "descrição")
	assert.Contains(t, err.Error(), "valor")
	assert.Contains(t, err.Error(), "Data, Observação, Saldo")
}

func TestUpper(t *testing.T) {
	assert.Equal(t, "HISTÓRICO", upper("Histórico"))
	assert.Equal(t, "  COMPENSAÇÃO   DE CHEQUE ", upper("  compensação   de cheque "))
}
