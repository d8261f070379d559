package core

import (
	"errors"
	"strings"
	"time"
)

// Categories is the closed set of spending categories, in display order.
// The set is fixed: categories are never created, renamed or deleted at
// runtime. Records carrying a label outside this set are rendered with the
// DefaultCategory treatment instead of failing.
var Categories = []string{
	"Food",
	"Utilities",
	"Rent",
	"Shopping",
	"Entertainment",
	"Transportation",
	"Healthcare",
	"Others",
}

// DefaultCategory is the visual fallback for unknown category labels.
const DefaultCategory = "Others"

const maxDescriptionLen = 200

type (
	// Date is a calendar day; the time-of-day portion is always midnight UTC.
	Date struct {
		time.Time
	}

	// MonthKey is a "YYYY-MM" bucket key, e.g. "2025-01".
	MonthKey string

	// Transaction is a single recorded expense.
	Transaction struct {
		ID          string
		Amount      Money
		Date        Date
		Description string // optional, may be empty
		Category    string
	}

	// Budget is a spending ceiling for one category in one calendar month.
	Budget struct {
		ID       string
		Category string
		Month    MonthKey
		Amount   Money
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

// ValidCategory reports whether name belongs to the closed category set.
func ValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// CategoryOrDefault returns name if it belongs to the closed set, otherwise
// DefaultCategory.
func CategoryOrDefault(name string) string {
	if ValidCategory(name) {
		return name
	}
	return DefaultCategory
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Key returns the month bucket the date falls into.
func (d Date) Key() MonthKey {
	return MonthKey(d.Format("2006-01"))
}

// MonthOf returns the month key containing t.
func MonthOf(t time.Time) MonthKey {
	return MonthKey(t.Format("2006-01"))
}

// ParseMonthKey validates and normalizes a "YYYY-MM" string.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalidMonth
	}
	return MonthKey(t.Format("2006-01")), nil
}

func (m MonthKey) Validate() error {
	_, err := ParseMonthKey(string(m))
	return err
}

// Time returns midnight UTC on the first day of the month. Malformed keys
// yield the zero time.
func (m MonthKey) Time() time.Time {
	t, err := time.Parse("2006-01", string(m))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Prev returns the immediately preceding calendar month.
func (m MonthKey) Prev() MonthKey {
	t := m.Time()
	if t.IsZero() {
		return ""
	}
	return MonthKey(t.AddDate(0, -1, 0).Format("2006-01"))
}

// Label renders the key for display, e.g. "Jan 2025". Malformed keys are
// returned as-is so rendering never fails.
func (m MonthKey) Label() string {
	t := m.Time()
	if t.IsZero() {
		return string(m)
	}
	return t.Format("Jan 2006")
}

// LongLabel renders the key as "January 2025".
func (m MonthKey) LongLabel() string {
	t := m.Time()
	if t.IsZero() {
		return string(m)
	}
	return t.Format("January 2006")
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if len(t.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if !ValidCategory(t.Category) {
		return ErrUnknownCategory
	}
	return nil
}

func (b Budget) Validate() error {
	if err := b.Month.Validate(); err != nil {
		return err
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if !ValidCategory(b.Category) {
		return ErrUnknownCategory
	}
	return nil
}
