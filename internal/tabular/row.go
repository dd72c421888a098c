// Package tabular maps transactions to and from the fixed spreadsheet layout
// shared by CSV files and the Google Sheets backend.
package tabular

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"saldo/internal/core"
)

// Column positions of the tabular layout.
const (
	ColID = iota
	ColDate
	ColType
	ColAmount
	ColNote
	ColCounterparty
	ColWithdrawable
	ColCustomLabel
	ColPositive
	NumColumns
)

const (
	yes = "Yes"
	no  = "No"
)

var header = []string{
	"ID / Identificativo",
	"Date / Data",
	"Type / Tipo",
	"Amount / Importo",
	"Note / Nota",
	"Counterparty / Controparte",
	"Withdrawable / Prelevabile",
	"Custom Label / Etichetta",
	"Positive / Positivo",
}

// Italian type codes accepted on import.
var typeAliases = map[string]core.Type{
	"entrata":        core.TypeIncome,
	"uscita":         core.TypeExpense,
	"deposito":       core.TypeDeposit,
	"prestito":       core.TypeBorrowIn,
	"rimborso":       core.TypeRepayLoan,
	"investimento":   core.TypeInvestment,
	"personalizzato": core.TypeCustom,
}

var (
	ErrBlankRow    = errors.New("blank row")
	ErrInvalidFlag = errors.New("invalid yes/no flag")
)

// Header returns the bilingual header row.
func Header() []string {
	out := make([]string, len(header))
	copy(out, header)
	return out
}

// IsHeader reports whether row looks like a header row.
func IsHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(row[0], "\ufeff")))
	return first == "id" || first == strings.ToLower(header[ColID]) || first == "identificativo"
}

// Codec decodes rows, filling in a missing date or id.
type Codec struct {
	Today func() core.Date
	NewID func() string
}

// NewCodec returns a codec using the current day and random UUIDs.
func NewCodec() Codec {
	return Codec{Today: core.Today, NewID: uuid.NewString}
}

// EncodeRow renders t in column order. Flags are written only for the types
// that carry them.
func EncodeRow(t core.Transaction) []string {
	row := make([]string, NumColumns)
	row[ColID] = t.ID
	row[ColDate] = t.Date.String()
	row[ColType] = string(t.Type())
	row[ColAmount] = t.Amount.Decimal()
	row[ColNote] = t.Note
	row[ColCounterparty] = t.Counterparty()
	if w, ok := t.Withdrawable(); ok {
		row[ColWithdrawable] = flag(w)
	}
	if label, positive, ok := t.CustomLabel(); ok {
		row[ColCustomLabel] = label
		row[ColPositive] = flag(positive)
	}
	return row
}

// DecodeRow parses one row. Short rows are padded with blanks.
func (c Codec) DecodeRow(row []string) (core.Transaction, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	if isBlank(row) {
		return core.Transaction{}, ErrBlankRow
	}

	typ, err := parseType(cell(ColType))
	if err != nil {
		return core.Transaction{}, err
	}
	cents, err := core.ParseDecimalToCents(cell(ColAmount))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", cell(ColAmount), err)
	}
	withdrawable, err := parseFlag(cell(ColWithdrawable))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("withdrawable: %w", err)
	}
	positive, err := parseFlag(cell(ColPositive))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("positive: %w", err)
	}
	details, err := core.NewDetails(typ, cell(ColCounterparty), withdrawable, cell(ColCustomLabel), positive)
	if err != nil {
		return core.Transaction{}, err
	}

	var date core.Date
	if s := cell(ColDate); s != "" {
		if date, err = core.ParseDate(s); err != nil {
			return core.Transaction{}, err
		}
	} else {
		date = c.today()
	}
	id := cell(ColID)
	if id == "" {
		id = c.newID()
	}

	t := core.Transaction{
		ID:      id,
		Date:    date,
		Amount:  core.Money{Cents: cents},
		Details: details,
		Note:    cell(ColNote),
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func (c Codec) today() core.Date {
	if c.Today == nil {
		return core.Today()
	}
	return c.Today()
}

func (c Codec) newID() string {
	if c.NewID == nil {
		return uuid.NewString()
	}
	return c.NewID()
}

func parseType(s string) (core.Type, error) {
	if t, ok := typeAliases[strings.ToLower(s)]; ok {
		return t, nil
	}
	return core.ParseType(s)
}

func flag(b bool) string {
	if b {
		return yes
	}
	return no
}

func parseFlag(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "no", "n", "false", "0":
		return false, nil
	case "yes", "y", "true", "1", "si", "sì":
		return true, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidFlag, s)
	}
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
