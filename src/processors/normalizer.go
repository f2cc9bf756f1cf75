package processors

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/rafaavmsilva/Menu/src/parsers/spreadsheet"
	"github.com/rafaavmsilva/Menu/src/security/validation"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ErrRowSkipped wraps every reason a row is left out of the import.
var ErrRowSkipped = errors.New("row skipped")

// Largest serial Excel accepts (9999-12-31).
const maxExcelSerial = 2958465

var (
	plainNumber     = regexp.MustCompile(`^[+-]?\d+(\.\d+)?([eE][+-]?\d+)?$`)
	dottedThousands = regexp.MustCompile(`^[+-]?\d{1,3}(\.\d{3})+$`)
)

// NormalizedRow is a statement row with a parsed date and signed value.
type NormalizedRow struct {
	Date        time.Time
	Description string
	Value       decimal.Decimal
}

// NormalizeRow converts one raw row using the resolved columns.
func NormalizeRow(row spreadsheet.Row, cols ColumnMap) (NormalizedRow, error) {
	dateCell, descCell, valueCell := row[cols.Date], row[cols.Description], row[cols.Value]
	if dateCell.Text == "" || descCell.Text == "" || valueCell.Text == "" {
		return NormalizedRow{}, fmt.Errorf("%w: campo obrigatório vazio", ErrRowSkipped)
	}

	date, err := ParseDate(dateCell.Text)
	if err != nil {
		return NormalizedRow{}, fmt.Errorf("%w: %v", ErrRowSkipped, err)
	}

	description := strings.TrimSpace(validation.StripUnprintable(descCell.Text))
	if description == "" {
		return NormalizedRow{}, fmt.Errorf("%w: descrição vazia", ErrRowSkipped)
	}

	var value decimal.Decimal
	if valueCell.Numeric {
		value, err = decimal.NewFromString(valueCell.Text)
	} else {
		value, err = ParseValue(valueCell.Text)
	}
	if err != nil {
		return NormalizedRow{}, fmt.Errorf("%w: valor inválido %q: %v", ErrRowSkipped, valueCell.Text, err)
	}

	return NormalizedRow{Date: date, Description: description, Value: value}, nil
}

// ParseDate tries day/month/year (zero padding optional), year-month-day,
// a native spreadsheet date (Excel serial or timestamp) and finally a
// generic day-first parse.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2/1/2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), nil
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial > 0 && serial <= maxExcelSerial {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return dateOnly(t), nil
			}
		}
		return time.Time{}, fmt.Errorf("data fora do intervalo: %q", s)
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), nil
		}
	}

	t, err := dateparse.ParseAny(s, dateparse.PreferMonthFirst(false))
	if err != nil {
		return time.Time{}, fmt.Errorf("data não reconhecida: %q", s)
	}
	return dateOnly(t), nil
}

// ParseValue parses a textual amount such as "R$ 1.234,56" or "-80,00".
func ParseValue(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(s, "R$", ""))
	cleaned = strings.Join(strings.Fields(cleaned), "")

	switch {
	case strings.Contains(cleaned, ","):
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case dottedThousands.MatchString(cleaned):
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	case plainNumber.MatchString(cleaned):
		// Already machine formatted, e.g. a number rendered by the .xls reader.
	default:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}
	return decimal.NewFromString(cleaned)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
