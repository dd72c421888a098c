package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ISODate is the wire format for dates in records, CSV and query strings.
const ISODate = "2006-01-02"

const (
	TypeUnknown    Type = ""
	TypeIncome     Type = "income"
	TypeExpense    Type = "expense"
	TypeDeposit    Type = "deposit"
	TypeBorrowIn   Type = "borrow"
	TypeRepayLoan  Type = "repay"
	TypeInvestment Type = "investment"
	TypeCustom     Type = "custom"
)

type (
	// Type names the variant of a transaction.
	Type string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Details is the per-type payload of a transaction. The set of
	// implementations is closed: Income, Expense, Deposit, BorrowIn,
	// RepayLoan, Investment and Custom.
	Details interface {
		kind() Type
	}

	Income  struct{}
	Expense struct{}
	Deposit struct{}

	BorrowIn struct {
		Counterparty string // lender
	}

	RepayLoan struct {
		Counterparty string // lender being repaid
	}

	Investment struct {
		// Withdrawable marks money that still counts as spendable.
		Withdrawable bool
	}

	Custom struct {
		Label    string
		Positive bool
	}

	// Transaction is a dated cash-affecting event. It is replaced
	// wholesale on edit and never mutated in place.
	Transaction struct {
		ID      string
		Date    Date
		Amount  Money // never negative; direction comes from Details
		Details Details
		Tags    []string
		Note    string
	}
)

func (Income) kind() Type     { return TypeIncome }
func (Expense) kind() Type    { return TypeExpense }
func (Deposit) kind() Type    { return TypeDeposit }
func (BorrowIn) kind() Type   { return TypeBorrowIn }
func (RepayLoan) kind() Type  { return TypeRepayLoan }
func (Investment) kind() Type { return TypeInvestment }
func (Custom) kind() Type     { return TypeCustom }

var (
	ErrInvalidDay    = errors.New("invalid day")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrEmptyID       = errors.New("empty transaction id")
	ErrNoteTooLong   = errors.New("note too long (max 500 characters)")
	ErrLabelTooLong  = errors.New("label too long (max 100 characters)")
	ErrNotFound      = errors.New("transaction not found")
	ErrDuplicateID   = errors.New("duplicate transaction id")
)

// Types returns every known transaction type in display order.
func Types() []Type {
	return []Type{TypeIncome, TypeExpense, TypeDeposit, TypeBorrowIn, TypeRepayLoan, TypeInvestment, TypeCustom}
}

// ParseType maps a type code (case-insensitive) to a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return TypeUnknown, fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

func (t Type) IsValid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeDeposit, TypeBorrowIn, TypeRepayLoan, TypeInvestment, TypeCustom:
		return true
	default:
		return false
	}
}

func (t Type) String() string {
	if t == TypeUnknown {
		return "unknown"
	}
	return string(t)
}

// NewDetails builds the variant for typ from flat attributes. Attributes that
// do not belong to typ are ignored.
func NewDetails(typ Type, counterparty string, withdrawable bool, label string, positive bool) (Details, error) {
	switch typ {
	case TypeIncome:
		return Income{}, nil
	case TypeExpense:
		return Expense{}, nil
	case TypeDeposit:
		return Deposit{}, nil
	case TypeBorrowIn:
		return BorrowIn{Counterparty: strings.TrimSpace(counterparty)}, nil
	case TypeRepayLoan:
		return RepayLoan{Counterparty: strings.TrimSpace(counterparty)}, nil
	case TypeInvestment:
		return Investment{Withdrawable: withdrawable}, nil
	case TypeCustom:
		return Custom{Label: strings.TrimSpace(label), Positive: positive}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, string(typ))
	}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	// Check basic ranges
	_, month, day := d.Time.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day. Out of range values are
// normalized the way time.Date does.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Today returns the current local calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD date. Single digit months and days are accepted.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(ISODate, s)
	if err != nil {
		t, err = time.Parse("2006-1-2", s)
		if err != nil {
			return Date{}, fmt.Errorf("%w %q: want YYYY-MM-DD", ErrInvalidDate, s)
		}
	}
	return DateOf(t), nil
}

// MustParseDate is like ParseDate but panics on error.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after o.
func (d Date) Compare(o Date) int { return d.Time.Compare(o.Time) }

// AddDays returns the date n days later (earlier when n is negative).
func (d Date) AddDays(n int) Date {
	return NewDate(d.Year(), d.Month(), d.Day()+n)
}

// DaysUntil returns the number of whole days from d to o. Both dates sit
// on UTC midnight, so Unix seconds divide evenly into days.
func (d Date) DaysUntil(o Date) int {
	return int((o.Unix() - d.Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(ISODate)
}

// IsEmpty returns true if the date is zero (for backward compatibility with optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) Neg() Money        { return Money{Cents: -m.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }
func (m Money) IsNegative() bool  { return m.Cents < 0 }
func (m Money) IsPositive() bool  { return m.Cents > 0 }

// MarshalJSON encodes the amount as an integer number of cents.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(m.Cents, 10)), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	cents, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, b)
	}
	m.Cents = cents
	return nil
}

func (m Money) Abs() Money {
	if m.Cents < 0 {
		return m.Neg()
	}
	return m
}

// Type reports the variant carried by Details. Missing or foreign details
// report TypeUnknown.
func (t Transaction) Type() Type {
	if t.Details == nil {
		return TypeUnknown
	}
	return t.Details.kind()
}

// Counterparty returns the lender for loan transactions, "" otherwise.
func (t Transaction) Counterparty() string {
	switch d := t.Details.(type) {
	case BorrowIn:
		return d.Counterparty
	case RepayLoan:
		return d.Counterparty
	}
	return ""
}

// Withdrawable reports the investment flag; ok is false for other types.
func (t Transaction) Withdrawable() (withdrawable, ok bool) {
	if d, isInv := t.Details.(Investment); isInv {
		return d.Withdrawable, true
	}
	return false, false
}

// CustomLabel returns the label and sign flag; ok is false for non-custom types.
func (t Transaction) CustomLabel() (label string, positive, ok bool) {
	if d, isCustom := t.Details.(Custom); isCustom {
		return d.Label, d.Positive, true
	}
	return "", false, false
}

// HasTag reports whether t carries tag, ignoring case.
func (t Transaction) HasTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	for _, have := range t.Tags {
		if strings.EqualFold(have, tag) {
			return true
		}
	}
	return false
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type().IsValid() {
		return ErrInvalidType
	}
	if len(t.Note) > 500 {
		return ErrNoteTooLong
	}
	if label, _, ok := t.CustomLabel(); ok && len(label) > 100 {
		return ErrLabelTooLong
	}
	if len(t.Counterparty()) > 100 {
		return ErrLabelTooLong
	}
	return nil
}

// NormalizeTags trims tags, drops empties and case-insensitive duplicates
// while preserving first-seen order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
