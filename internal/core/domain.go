package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the format written to disk and shown to the user.
const DateLayout = "2006-01-02"

// inputLayout also accepts one-digit months and days ("2024-3-1").
const inputLayout = "2006-1-2"

type (
	Date struct {
		time.Time
		// raw is the stored text when it is not in DateLayout; it is written back unchanged.
		raw string
	}

	Expense struct {
		Date     Date   `json:"date"`
		Category string `json:"category"`
		Amount   Money  `json:"amount"`
		Notes    string `json:"notes"`
		ID       string `json:"id,omitempty"` // Stable identifier, empty for legacy records

		// raw holds a stored element that does not decode as a record.
		raw string
	}

	// expenseRecord is Expense without its JSON methods.
	expenseRecord Expense

	// Draft holds raw, unvalidated input for a new expense.
	Draft struct {
		Date     string
		Category string
		Amount   string
		Notes    string
	}

	// Expenses is the ordered collection. Positions shown to the user are 1-based.
	Expenses []Expense
)

var (
	ErrInvalidDate     = errors.New("invalid date format, use YYYY-MM-DD")
	ErrEmptyCategory   = errors.New("category is required")
	ErrInvalidAmount   = errors.New("amount must be a positive number")
	ErrAmountFormat    = errors.New("invalid amount entered")
	ErrIndexOutOfRange = errors.New("invalid expense number")
	ErrInputFormat     = errors.New("please enter a valid number")
)

// Field names reported by ValidationError.
const (
	FieldDate     = "date"
	FieldCategory = "category"
	FieldAmount   = "amount"
)

// ValidationError reports which input field rejected an add.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses YYYY-MM-DD. Blank input yields the calendar day of now.
func ParseDate(s string, now time.Time) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DateOf(now), nil
	}
	t, err := time.Parse(inputLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// DateFromString reads a stored date. Text in DateLayout is used as is;
// anything else is kept verbatim, with Time set when it still reads as a date.
func DateFromString(s string) Date {
	if s == "" {
		return Date{}
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}
	}
	d := Date{raw: s}
	if t, err := time.Parse(inputLayout, strings.TrimSpace(s)); err == nil {
		d.Time = t
	}
	return d
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
// Stored text that was not in that layout is returned unchanged.
func (d Date) String() string {
	if d.raw != "" {
		return d.raw
	}
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*d = DateFromString(s)
	return nil
}

func (e Expense) MarshalJSON() ([]byte, error) {
	if e.raw != "" {
		return []byte(e.raw), nil
	}
	return json.Marshal(expenseRecord(e))
}

// UnmarshalJSON never fails: an element that is not a readable record is kept
// verbatim and saved back unchanged.
func (e *Expense) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*e = Expense{raw: "null"}
		return nil
	}
	var rec expenseRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		*e = Expense{raw: string(data)}
		return nil
	}
	*e = Expense(rec)
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return &ValidationError{Field: FieldDate, Err: err}
	}
	if strings.TrimSpace(e.Category) == "" {
		return &ValidationError{Field: FieldCategory, Err: ErrEmptyCategory}
	}
	if err := e.Amount.Validate(); err != nil {
		return &ValidationError{Field: FieldAmount, Err: err}
	}
	return nil
}

// Expense validates the draft and returns the normalized record with a fresh ID.
// Fields are checked in prompt order: date, category, amount.
func (d Draft) Expense(now time.Time) (Expense, error) {
	date, err := ParseDate(d.Date, now)
	if err != nil {
		return Expense{}, &ValidationError{Field: FieldDate, Err: err}
	}
	category := strings.TrimSpace(d.Category)
	if category == "" {
		return Expense{}, &ValidationError{Field: FieldCategory, Err: ErrEmptyCategory}
	}
	amount, err := ParseAmount(d.Amount)
	if err != nil {
		return Expense{}, &ValidationError{Field: FieldAmount, Err: err}
	}
	return Expense{
		ID:       uuid.NewString(),
		Date:     date,
		Category: category,
		Amount:   amount,
		Notes:    strings.TrimSpace(d.Notes),
	}, nil
}

// Add validates d and returns a new collection with the expense appended.
// On failure the receiver is returned unchanged.
func (c Expenses) Add(d Draft, now time.Time) (Expenses, Expense, error) {
	e, err := d.Expense(now)
	if err != nil {
		return c, Expense{}, err
	}
	return c.Append(e), e, nil
}

// Append returns a new collection with e at the end. The receiver is not modified.
func (c Expenses) Append(e Expense) Expenses {
	out := make(Expenses, len(c), len(c)+1)
	copy(out, c)
	return append(out, e)
}

// Remove drops the expense at the 1-based position and returns it.
func (c Expenses) Remove(position int) (Expenses, Expense, error) {
	if position < 1 || position > len(c) {
		return c, Expense{}, ErrIndexOutOfRange
	}
	i := position - 1
	removed := c[i]
	out := make(Expenses, 0, len(c)-1)
	out = append(out, c[:i]...)
	out = append(out, c[i+1:]...)
	return out, removed, nil
}

// ParsePosition reads a 1-based position typed by the user.
func ParsePosition(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrInputFormat
	}
	return n, nil
}
