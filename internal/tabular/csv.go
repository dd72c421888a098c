package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"saldo/internal/core"
)

// RowError reports a row that could not be imported. Row is 1-based and
// counts the header.
type RowError struct {
	Row int   `json:"row"`
	Err error `json:"-"`
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }
func (e RowError) Unwrap() error { return e.Err }

// Result is the outcome of an import.
type Result struct {
	Transactions []core.Transaction
	Errors       []RowError
}

// Import reads a CSV file in the tabular layout. The header row is optional
// and blank rows are skipped. Unparsable rows are reported in Result.Errors
// and do not abort the import; duplicate ids keep the first occurrence.
// The returned error is set only when the file itself cannot be read.
func (c Codec) Import(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var res Result
	seen := map[string]bool{}
	for n := 1; ; n++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read csv: %w", err)
		}
		if n == 1 && IsHeader(row) {
			continue
		}
		t, err := c.DecodeRow(row)
		if errors.Is(err, ErrBlankRow) {
			continue
		}
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: n, Err: err})
			continue
		}
		if seen[t.ID] {
			res.Errors = append(res.Errors, RowError{Row: n, Err: fmt.Errorf("%w: %s", core.ErrDuplicateID, t.ID)})
			continue
		}
		seen[t.ID] = true
		res.Transactions = append(res.Transactions, t)
	}
	return res, nil
}

// Export writes the header followed by one row per transaction.
func Export(w io.Writer, txns []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range txns {
		if err := cw.Write(EncodeRow(t)); err != nil {
			return fmt.Errorf("write %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
