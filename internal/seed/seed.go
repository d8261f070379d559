// Package seed supplies the one-time initial data source. The store treats
// the result as an opaque seed; ids are assigned on load.
package seed

import (
	"math"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"fintrack/internal/core"
)

// Demo returns a small fixed dataset, re-dated relative to now so the
// current-month views are populated out of the box.
func Demo(now time.Time) ([]core.Transaction, []core.Budget) {
	month := core.MonthOf(now)
	y, m := now.Year(), int(now.Month())
	prev := now.AddDate(0, -1, 0)
	older := now.AddDate(0, -2, 0)

	transactions := []core.Transaction{
		{Amount: dollars(1200), Date: core.NewDate(y, m, 1), Description: "Rent payment", Category: "Rent"},
		{Amount: dollars(150), Date: core.NewDate(y, m, 3), Description: "Electricity and water", Category: "Utilities"},
		{Amount: dollars(300), Date: core.NewDate(y, m, 5), Description: "Groceries", Category: "Food"},
		{Amount: dollars(1200), Date: core.NewDate(prev.Year(), int(prev.Month()), 1), Description: "Rent payment", Category: "Rent"},
		{Amount: dollars(85), Date: core.NewDate(prev.Year(), int(prev.Month()), 10), Description: "Groceries", Category: "Food"},
		{Amount: dollars(45), Date: core.NewDate(prev.Year(), int(prev.Month()), 14), Description: "Gas station", Category: "Transportation"},
		{Amount: dollars(150), Date: core.NewDate(prev.Year(), int(prev.Month()), 18), Description: "New shoes", Category: "Shopping"},
		{Amount: dollars(200), Date: core.NewDate(older.Year(), int(older.Month()), 2), Description: "Insurance", Category: "Healthcare"},
		{Amount: dollars(75), Date: core.NewDate(older.Year(), int(older.Month()), 9), Description: "Restaurant", Category: "Food"},
		{Amount: dollars(120), Date: core.NewDate(older.Year(), int(older.Month()), 20), Description: "Utilities", Category: "Utilities"},
	}

	budgets := []core.Budget{
		{Category: "Food", Month: month, Amount: dollars(400)},
		{Category: "Rent", Month: month, Amount: dollars(1200)},
		{Category: "Utilities", Month: month, Amount: dollars(200)},
		{Category: "Shopping", Month: month, Amount: dollars(300)},
		{Category: "Entertainment", Month: month, Amount: dollars(150)},
	}

	return transactions, budgets
}

// Random generates n fake transactions spread over the last four months and
// a budget for every category in the current month.
func Random(now time.Time, n int) ([]core.Transaction, []core.Budget) {
	rng := rand.New(rand.NewSource(now.UnixNano()))

	transactions := make([]core.Transaction, 0, n)
	for i := 0; i < n; i++ {
		day := now.AddDate(0, 0, -rng.Intn(120))
		transactions = append(transactions, core.Transaction{
			Amount:      price(2, 500),
			Date:        core.NewDate(day.Year(), int(day.Month()), day.Day()),
			Description: gofakeit.ProductName(),
			Category:    core.Categories[rng.Intn(len(core.Categories))],
		})
	}

	month := core.MonthOf(now)
	budgets := make([]core.Budget, 0, len(core.Categories))
	for _, c := range core.Categories {
		budgets = append(budgets, core.Budget{
			Category: c,
			Month:    month,
			Amount:   price(100, 1500),
		})
	}

	return transactions, budgets
}

func dollars(d int64) core.Money {
	return core.Money{Cents: d * 100}
}

func price(min, max float64) core.Money {
	return core.Money{Cents: int64(math.Round(gofakeit.Price(min, max) * 100))}
}
