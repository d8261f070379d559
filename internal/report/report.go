// Package report derives chart- and insight-ready summaries from the raw
// transaction and budget collections. Every function is pure: it reads the
// snapshots it is given and recomputes from scratch, so results are always
// consistent with the current state.
package report

import (
	"sort"

	"fintrack/internal/core"
)

// MonthTotal is one row of the monthly spending series.
type MonthTotal struct {
	Month core.MonthKey
	Label string
	Total core.Money
}

// CategoryTotal is one row of the per-category breakdown.
type CategoryTotal struct {
	Category string
	Total    core.Money
}

// Summary is the dashboard headline: overall totals plus the top category
// and the most recent transaction.
type Summary struct {
	Total       core.Money
	Count       int
	TopCategory *CategoryTotal
	Latest      *core.Transaction
}

// MonthDelta compares one month's total against the immediately preceding
// calendar month.
type MonthDelta struct {
	Month    core.MonthKey
	Current  core.Money
	Previous core.Money
	Delta    core.Money // Current - Previous
	// PercentChange is 0 when the previous month has no spending, so the
	// value is always finite.
	PercentChange float64
}

// MonthlyTotals buckets transactions by month and sums amounts per bucket.
// Rows are sorted ascending by the raw "YYYY-MM" key, which is chronological
// across year boundaries; the display label is derived afterwards.
func MonthlyTotals(transactions []core.Transaction) []MonthTotal {
	buckets := make(map[core.MonthKey]int64)
	for _, t := range transactions {
		buckets[t.Date.Key()] += t.Amount.Cents
	}

	rows := make([]MonthTotal, 0, len(buckets))
	for key, cents := range buckets {
		rows = append(rows, MonthTotal{Month: key, Label: key.Label(), Total: core.Money{Cents: cents}})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Month < rows[j].Month })
	return rows
}

// CategoryTotals buckets all transactions by category and sums amounts,
// sorted descending by total. Labels outside the closed set are kept as-is
// (the view layer falls back to the default treatment); ties are broken by
// canonical category order so output is deterministic.
func CategoryTotals(transactions []core.Transaction) []CategoryTotal {
	buckets := make(map[string]int64)
	for _, t := range transactions {
		buckets[t.Category] += t.Amount.Cents
	}

	rows := make([]CategoryTotal, 0, len(buckets))
	for name, cents := range buckets {
		rows = append(rows, CategoryTotal{Category: name, Total: core.Money{Cents: cents}})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total.Cents != rows[j].Total.Cents {
			return rows[i].Total.Cents > rows[j].Total.Cents
		}
		ri, rj := categoryRank(rows[i].Category), categoryRank(rows[j].Category)
		if ri != rj {
			return ri < rj
		}
		return rows[i].Category < rows[j].Category
	})
	return rows
}

// TopCategories returns at most n of the highest-spending categories.
func TopCategories(transactions []core.Transaction, n int) []CategoryTotal {
	rows := CategoryTotals(transactions)
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// Summarize computes the overall dashboard headline.
func Summarize(transactions []core.Transaction) Summary {
	s := Summary{Count: len(transactions)}
	for _, t := range transactions {
		s.Total.Cents += t.Amount.Cents
	}
	if top := TopCategories(transactions, 1); len(top) > 0 {
		s.TopCategory = &top[0]
	}
	for i := range transactions {
		if s.Latest == nil || transactions[i].Date.After(s.Latest.Date.Time) {
			s.Latest = &transactions[i]
		}
	}
	return s
}

// MonthTotalFor sums the transactions falling into one month.
func MonthTotalFor(transactions []core.Transaction, month core.MonthKey) core.Money {
	var cents int64
	for _, t := range transactions {
		if t.Date.Key() == month {
			cents += t.Amount.Cents
		}
	}
	return core.Money{Cents: cents}
}

// MonthOverMonth compares the given month's total with the preceding one.
func MonthOverMonth(transactions []core.Transaction, month core.MonthKey) MonthDelta {
	cur := MonthTotalFor(transactions, month)
	prev := MonthTotalFor(transactions, month.Prev())

	d := MonthDelta{
		Month:    month,
		Current:  cur,
		Previous: prev,
		Delta:    cur.Sub(prev),
	}
	if prev.Cents > 0 {
		d.PercentChange = float64(d.Delta.Cents) / float64(prev.Cents) * 100
	}
	return d
}

// categoryRank orders known categories by their canonical position; unknown
// labels sort after all known ones, alphabetically via the caller's tie-break.
func categoryRank(name string) int {
	for i, c := range core.Categories {
		if c == name {
			return i
		}
	}
	return len(core.Categories)
}
