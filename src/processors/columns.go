package processors

import (
	"errors"
	"fmt"
	"strings"
)

var ErrMissingColumns = errors.New("colunas necessárias não encontradas")

// Accepted header names per logical field. Matching ignores case only.
var (
	DateAliases        = []string{"Data", "DATE", "DT", "AGENCIA"}
	DescriptionAliases = []string{"Histórico", "HISTORIC", "DESCRIÇÃO", "DESCRICAO", "CONTA"}
	ValueAliases       = []string{"Valor", "VALUE", "QUANTIA", "Unnamed: 4"}
)

// ColumnMap holds the actual header names chosen for each logical field.
type ColumnMap struct {
	Date        string
	Description string
	Value       string
}

// FindMatchingColumn returns the first declared column whose name matches any alias.
func FindMatchingColumn(headers []string, aliases []string) (string, bool) {
	wanted := make(map[string]struct{}, len(aliases))
	for _, a := range aliases {
		wanted[upper(a)] = struct{}{}
	}
	for _, h := range headers {
		if _, ok := wanted[upper(h)]; ok {
			return h, true
		}
	}
	return "", false
}

// ResolveColumns maps the date, description and value fields onto headers.
// If any field is unresolved the whole file is rejected.
func ResolveColumns(headers []string) (ColumnMap, error) {
	var (
		cols    ColumnMap
		missing []string
		ok      bool
	)
	if cols.Date, ok = FindMatchingColumn(headers, DateAliases); !ok {
		missing = append(missing, "data")
	}
	if cols.Description, ok = FindMatchingColumn(headers, DescriptionAliases); !ok {
		missing = append(missing, "descrição")
	}
	if cols.Value, ok = FindMatchingColumn(headers, ValueAliases); !ok {
		missing = append(missing, "valor")
	}
	if len(missing) > 0 {
		return ColumnMap{}, fmt.Errorf("%w (%s). Colunas disponíveis: [%s]",
			ErrMissingColumns, strings.Join(missing, ", "), strings.Join(headers, ", "))
	}
	return cols, nil
}
