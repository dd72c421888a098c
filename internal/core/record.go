package core

import (
	"encoding/json"
	"fmt"
)

// Record is the flat serialized form of a Transaction. Attributes that do not
// belong to the transaction's type are omitted.
type Record struct {
	ID             string   `json:"id"`
	Date           Date     `json:"date"`
	Amount         int64    `json:"amount"` // cents
	Type           Type     `json:"type"`
	Counterparty   *string  `json:"counterparty,omitempty"`
	IsWithdrawable *bool    `json:"isWithdrawable,omitempty"`
	CustomLabel    *string  `json:"customLabel,omitempty"`
	IsPositive     *bool    `json:"isPositive,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	Note           string   `json:"note,omitempty"`
}

// ToRecord flattens t.
func ToRecord(t Transaction) Record {
	r := Record{
		ID:     t.ID,
		Date:   t.Date,
		Amount: t.Amount.Cents,
		Type:   t.Type(),
		Tags:   t.Tags,
		Note:   t.Note,
	}
	switch d := t.Details.(type) {
	case BorrowIn:
		r.Counterparty = &d.Counterparty
	case RepayLoan:
		r.Counterparty = &d.Counterparty
	case Investment:
		r.IsWithdrawable = &d.Withdrawable
	case Custom:
		r.CustomLabel = &d.Label
		r.IsPositive = &d.Positive
	}
	return r
}

// Transaction rebuilds the typed transaction. Missing optional attributes take
// their zero value.
func (r Record) Transaction() (Transaction, error) {
	details, err := NewDetails(r.Type, deref(r.Counterparty), derefBool(r.IsWithdrawable), deref(r.CustomLabel), derefBool(r.IsPositive))
	if err != nil {
		return Transaction{}, fmt.Errorf("record %s: %w", r.ID, err)
	}
	return Transaction{
		ID:      r.ID,
		Date:    r.Date,
		Amount:  Money{Cents: r.Amount},
		Details: details,
		Tags:    NormalizeTags(r.Tags),
		Note:    r.Note,
	}, nil
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToRecord(t))
}

func (t *Transaction) UnmarshalJSON(b []byte) error {
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	parsed, err := r.Transaction()
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefBool(b *bool) bool {
	return b != nil && *b
}
