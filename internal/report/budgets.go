package report

import (
	"sort"

	"fintrack/internal/core"
)

// Status classifies a budget row by how much of the ceiling is used.
type Status string

const (
	StatusOnTrack    Status = "success"
	StatusNearLimit  Status = "warning"
	StatusOverBudget Status = "danger"
)

// BudgetRow is one row of the budget-vs-actual comparison for a month.
// Budgets drive the row set: categories with spending but no budget do not
// appear here.
type BudgetRow struct {
	Category   string
	Budget     core.Money
	Actual     core.Money
	Difference core.Money // Budget - Actual, negative when over
	// PercentUsed is always finite. For a zero budget it is pinned: 100
	// when anything was spent, 0 otherwise.
	PercentUsed float64
	Status      Status
}

// Classify maps a (budget, actual) pair to a status and a finite
// percent-used value. Exactly 80% is still on-track; the thresholds are
// strict. A zero budget cannot produce a ratio, so it is classified by
// rule: any spending is over-budget, none is on-track.
func Classify(budget, actual core.Money) (Status, float64) {
	if budget.Cents == 0 {
		if actual.Cents > 0 {
			return StatusOverBudget, 100
		}
		return StatusOnTrack, 0
	}
	pct := float64(actual.Cents) / float64(budget.Cents) * 100
	switch {
	case pct > 100:
		return StatusOverBudget, pct
	case pct > 80:
		return StatusNearLimit, pct
	default:
		return StatusOnTrack, pct
	}
}

// BudgetComparison left-joins the month's budgets with actual spending per
// category. Rows come back in canonical category order.
func BudgetComparison(transactions []core.Transaction, budgets []core.Budget, month core.MonthKey) []BudgetRow {
	actual := make(map[string]int64)
	for _, t := range transactions {
		if t.Date.Key() == month {
			actual[t.Category] += t.Amount.Cents
		}
	}

	var rows []BudgetRow
	for _, b := range budgets {
		if b.Month != month {
			continue
		}
		spent := core.Money{Cents: actual[b.Category]}
		status, pct := Classify(b.Amount, spent)
		rows = append(rows, BudgetRow{
			Category:    b.Category,
			Budget:      b.Amount,
			Actual:      spent,
			Difference:  b.Amount.Sub(spent),
			PercentUsed: pct,
			Status:      status,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		ri, rj := categoryRank(rows[i].Category), categoryRank(rows[j].Category)
		if ri != rj {
			return ri < rj
		}
		return rows[i].Category < rows[j].Category
	})
	return rows
}
