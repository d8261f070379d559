// This file implements parsing and validation of form input. Parsing
// produces user-facing error messages; domain validation proper lives in the
// store so the two layers reject the same data for the same reasons.
package http

import (
	"errors"
	"net/url"
	"strings"

	"fintrack/internal/core"
)

// sanitizeInput trims whitespace and strips control characters except tab,
// newline and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// ParseTransactionForm builds a transaction from form values. The returned
// error message is safe to show the user.
func ParseTransactionForm(form url.Values) (core.Transaction, error) {
	amountStr := strings.TrimSpace(form.Get("amount"))
	if amountStr == "" {
		return core.Transaction{}, errors.New("Amount is required")
	}
	cents, err := core.ParseAmountToCents(amountStr)
	if err != nil {
		return core.Transaction{}, errors.New("Amount must be a non-negative number like 12.50")
	}

	dateStr := strings.TrimSpace(form.Get("date"))
	if dateStr == "" {
		return core.Transaction{}, errors.New("Date is required")
	}
	date, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Transaction{}, errors.New("Date must be a valid calendar date")
	}

	category := sanitizeInput(form.Get("category"))
	if category == "" {
		return core.Transaction{}, errors.New("Category is required")
	}
	if !core.ValidCategory(category) {
		return core.Transaction{}, errors.New("Category must be one of the known categories")
	}

	return core.Transaction{
		Amount:      core.Money{Cents: cents},
		Date:        date,
		Description: sanitizeInput(form.Get("description")),
		Category:    category,
	}, nil
}

// ParseBudgetForm builds a budget from form values.
func ParseBudgetForm(form url.Values) (core.Budget, error) {
	amountStr := strings.TrimSpace(form.Get("amount"))
	if amountStr == "" {
		return core.Budget{}, errors.New("Budget amount is required")
	}
	cents, err := core.ParseAmountToCents(amountStr)
	if err != nil {
		return core.Budget{}, errors.New("Budget amount must be a non-negative number")
	}

	month := core.MonthKey(strings.TrimSpace(form.Get("month")))
	if err := month.Validate(); err != nil {
		return core.Budget{}, errors.New("Month must look like 2025-06")
	}

	category := sanitizeInput(form.Get("category"))
	if !core.ValidCategory(category) {
		return core.Budget{}, errors.New("Category must be one of the known categories")
	}

	return core.Budget{
		Category: category,
		Month:    month,
		Amount:   core.Money{Cents: cents},
	}, nil
}

// ParseMonthParam reads a month query parameter, falling back to the month
// of fallback when absent or malformed.
func ParseMonthParam(query url.Values, fallback core.MonthKey) core.MonthKey {
	raw := core.MonthKey(strings.TrimSpace(query.Get("month")))
	if raw.Validate() == nil {
		return raw
	}
	return fallback
}
