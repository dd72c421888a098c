package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"saldo/internal/core"
	"saldo/internal/tabular"
)

// Sheets serial day numbers count from this date.
var serialEpoch = core.NewDate(1899, 12, 30)

func (c *Client) decodeRows(ctx context.Context, values [][]interface{}) ([]core.Transaction, map[string]int) {
	var txns []core.Transaction
	index := map[string]int{}
	for i, raw := range values {
		row, err := cellsToRow(raw)
		if err != nil {
			slog.WarnContext(ctx, "Skipping sheet row", "row", i+1, "error", err)
			continue
		}
		if i == 0 && tabular.IsHeader(row) {
			continue
		}
		t, err := c.codec.DecodeRow(row)
		if errors.Is(err, tabular.ErrBlankRow) {
			continue
		}
		if err != nil {
			slog.WarnContext(ctx, "Skipping sheet row", "row", i+1, "error", err)
			continue
		}
		if _, dup := index[t.ID]; dup {
			slog.WarnContext(ctx, "Duplicate id in sheet, keeping first", "row", i+1, "id", t.ID)
			continue
		}
		index[t.ID] = i + 1
		txns = append(txns, t)
	}
	slices.SortStableFunc(txns, func(a, b core.Transaction) int { return a.Date.Compare(b.Date) })
	return txns, index
}

// cellsToRow converts unformatted cell values into tabular strings. Numeric
// dates are Sheets serial days; numeric amounts are rounded to cents.
func cellsToRow(cells []interface{}) ([]string, error) {
	row := make([]string, len(cells))
	for i, v := range cells {
		switch x := v.(type) {
		case nil:
		case string:
			row[i] = strings.TrimSpace(x)
		case bool:
			if x {
				row[i] = "Yes"
			} else {
				row[i] = "No"
			}
		case float64:
			switch i {
			case tabular.ColDate:
				row[i] = serialEpoch.AddDays(int(x)).String()
			case tabular.ColAmount:
				cents, err := core.CentsFromFloat(x)
				if err != nil {
					return nil, fmt.Errorf("amount %v: %w", x, err)
				}
				row[i] = core.Money{Cents: cents}.Decimal()
			default:
				row[i] = strconv.FormatFloat(x, 'f', -1, 64)
			}
		default:
			row[i] = strings.TrimSpace(fmt.Sprint(x))
		}
	}
	return row, nil
}

func toCells(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}
