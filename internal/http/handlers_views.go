package http

import (
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strconv"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/report"
)

// View models are cached per store version; Loading is injected at render
// time because it is not part of the derived state.

type txVM struct {
	ID          string
	DateISO     string
	DateLabel   string
	Description string
	Category    string
	CategoryCSS string
	Amount      string
}

type budgetRowVM struct {
	ID           string
	Category     string
	Budget       string
	Actual       string
	Difference   string
	Overspent    bool
	PercentLabel string
	BarWidth     int
	Status       string
}

type pieSlice struct {
	Category string
	Amount   string
	Percent  string
	Color    string
}

type monthBarVM struct {
	Label string
	Total string
	Width int
}

type dashboardData struct {
	Loading bool

	MonthLabel string
	Total      string
	HasTrend   bool
	TrendUp    bool
	TrendLabel string

	HasTransactions bool
	Recent          []txVM

	HasBudgets bool
	BudgetRows []budgetRowVM

	HasPie      bool
	PieGradient template.CSS
	PieLegend   []pieSlice
}

type transactionsData struct {
	Loading bool
	Rows    []txVM
	Count   int
}

type monthOption struct {
	Key      string
	Label    string
	Selected bool
}

type budgetsData struct {
	Loading    bool
	Month      string
	MonthLabel string
	Months     []monthOption
	Rows       []budgetRowVM
}

type insightCardVM struct {
	Category     string
	Status       string
	Message      string
	PercentLabel string
}

type insightsData struct {
	Loading bool

	HasData bool
	Months  []monthBarVM
	Top     []budgetTopVM

	MonthLabel  string
	HasBudgets  bool
	BudgetCards []insightCardVM

	Total       string
	Count       int
	TopCategory string
	TopAmount   string
	LatestDesc  string
	LatestDate  string

	HasTrend   bool
	TrendUp    bool
	TrendLabel string
}

type budgetTopVM struct {
	Category string
	Amount   string
	Width    int
}

var categoryColors = map[string]string{
	"Food":           "#6366f1",
	"Utilities":      "#f59e0b",
	"Rent":           "#10b981",
	"Shopping":       "#ef4444",
	"Entertainment":  "#3b82f6",
	"Transportation": "#8b5cf6",
	"Healthcare":     "#14b8a6",
	"Others":         "#94a3b8",
}

func categoryColor(name string) string {
	if c, ok := categoryColors[name]; ok {
		return c
	}
	return categoryColors[core.DefaultCategory]
}

// categoryCSS maps a category label to a badge class suffix; anything not
// in the closed set degrades to the default treatment.
func categoryCSS(name string) string {
	if !core.ValidCategory(name) {
		name = core.DefaultCategory
	}
	switch name {
	case "Food":
		return "food"
	case "Utilities":
		return "utilities"
	case "Rent":
		return "rent"
	case "Shopping":
		return "shopping"
	case "Entertainment":
		return "entertainment"
	case "Transportation":
		return "transportation"
	case "Healthcare":
		return "healthcare"
	default:
		return "others"
	}
}

// byDateDesc orders a snapshot newest date first; records sharing a date
// keep their stored order (latest insertion first). Lists render in date
// order, not insertion order: a record added later with an older date must
// not float to the top.
func byDateDesc(txs []core.Transaction) []core.Transaction {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.After(txs[j].Date.Time)
	})
	return txs
}

func txView(t core.Transaction) txVM {
	return txVM{
		ID:          t.ID,
		DateISO:     t.Date.Format("2006-01-02"),
		DateLabel:   t.Date.Format("Jan 2, 2006"),
		Description: t.Description,
		Category:    t.Category,
		CategoryCSS: categoryCSS(t.Category),
		Amount:      formatUSD(t.Amount.Cents),
	}
}

func budgetRowView(row report.BudgetRow, id string) budgetRowVM {
	width := int(row.PercentUsed + 0.5)
	if width > 100 {
		width = 100
	}
	diff := row.Difference
	over := diff.Cents < 0
	if over {
		diff.Cents = -diff.Cents
	}
	return budgetRowVM{
		ID:           id,
		Category:     row.Category,
		Budget:       formatUSD(row.Budget.Cents),
		Actual:       formatUSD(row.Actual.Cents),
		Difference:   formatUSD(diff.Cents),
		Overspent:    over,
		PercentLabel: strconv.FormatFloat(row.PercentUsed, 'f', 0, 64) + "%",
		BarWidth:     width,
		Status:       string(row.Status),
	}
}

func trendLabel(d report.MonthDelta) (label string, up, has bool) {
	if d.Previous.Cents == 0 {
		return "", false, false
	}
	delta := d.Delta
	up = delta.Cents > 0
	if delta.Cents < 0 {
		delta.Cents = -delta.Cents
	}
	if d.Delta.Cents == 0 {
		return "same as last month", false, true
	}
	dir := "less"
	if up {
		dir = "more"
	}
	return fmt.Sprintf("%s %s than last month (%.1f%%)", formatUSD(delta.Cents), dir, abs(d.PercentChange)), up, true
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func (s *Server) buildDashboard(month core.MonthKey) dashboardData {
	txs := byDateDesc(s.store.Transactions())
	budgets := s.store.Budgets()

	data := dashboardData{
		MonthLabel: month.LongLabel(),
		Total:      formatUSD(report.MonthTotalFor(txs, month).Cents),
	}

	data.TrendLabel, data.TrendUp, data.HasTrend = trendLabel(report.MonthOverMonth(txs, month))

	// Recent activity, five newest by date
	for i, t := range txs {
		if i == 5 {
			break
		}
		data.Recent = append(data.Recent, txView(t))
	}
	data.HasTransactions = len(data.Recent) > 0

	for _, row := range report.BudgetComparison(txs, budgets, month) {
		data.BudgetRows = append(data.BudgetRows, budgetRowView(row, budgetID(budgets, row.Category, month)))
	}
	data.HasBudgets = len(data.BudgetRows) > 0

	// Category pie for the selected month
	var monthTxs []core.Transaction
	for _, t := range txs {
		if t.Date.Key() == month {
			monthTxs = append(monthTxs, t)
		}
	}
	cats := report.CategoryTotals(monthTxs)
	var total int64
	for _, c := range cats {
		total += c.Total.Cents
	}
	if total > 0 {
		gradient := "conic-gradient("
		var cursor float64
		for i, c := range cats {
			pct := float64(c.Total.Cents) / float64(total) * 100
			end := cursor + pct
			if i == len(cats)-1 {
				end = 100
			}
			if i > 0 {
				gradient += ", "
			}
			gradient += fmt.Sprintf("%s %.2f%% %.2f%%", categoryColor(c.Category), cursor, end)
			data.PieLegend = append(data.PieLegend, pieSlice{
				Category: c.Category,
				Amount:   formatUSD(c.Total.Cents),
				Percent:  strconv.FormatFloat(pct, 'f', 1, 64) + "%",
				Color:    categoryColor(c.Category),
			})
			cursor = end
		}
		gradient += ")"
		data.PieGradient = template.CSS(gradient)
		data.HasPie = true
	}

	return data
}

func budgetID(budgets []core.Budget, category string, month core.MonthKey) string {
	for _, b := range budgets {
		if b.Category == category && b.Month == month {
			return b.ID
		}
	}
	return ""
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	month := core.MonthOf(s.now())
	// The version is read before the compute callback snapshots the store.
	// A mutation landing in between caches data newer than the key claims,
	// which can only serve fresher state, never stale; the next request
	// reads the bumped version and misses this entry anyway. Same holds for
	// the other view handlers below.
	key := cache.Key("dashboard", s.store.Version(), string(month))
	data := s.dashCache.GetOrCompute(key, func() dashboardData { return s.buildDashboard(month) })
	data.Loading = s.store.Loading()
	s.render(w, r, "view_dashboard", data)
}

func (s *Server) buildTransactions() transactionsData {
	txs := byDateDesc(s.store.Transactions())
	data := transactionsData{Count: len(txs)}
	for _, t := range txs {
		data.Rows = append(data.Rows, txView(t))
	}
	return data
}

func (s *Server) handleTransactionsView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	key := cache.Key("transactions", s.store.Version())
	data := s.txCache.GetOrCompute(key, s.buildTransactions)
	data.Loading = s.store.Loading()
	s.render(w, r, "view_transactions", data)
}

func (s *Server) buildBudgets(month core.MonthKey) budgetsData {
	txs := s.store.Transactions()
	budgets := s.store.Budgets()

	data := budgetsData{
		Month:      string(month),
		MonthLabel: month.LongLabel(),
	}
	for _, row := range report.BudgetComparison(txs, budgets, month) {
		data.Rows = append(data.Rows, budgetRowView(row, budgetID(budgets, row.Category, month)))
	}

	// Month picker: six months back and two forward around now
	cursor := core.MonthOf(s.now().AddDate(0, 2, 0))
	for i := 0; i < 9; i++ {
		data.Months = append(data.Months, monthOption{
			Key:      string(cursor),
			Label:    cursor.Label(),
			Selected: cursor == month,
		})
		cursor = cursor.Prev()
	}
	return data
}

func (s *Server) handleBudgetsView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	month := ParseMonthParam(r.URL.Query(), core.MonthOf(s.now()))
	key := cache.Key("budgets", s.store.Version(), string(month))
	data := s.budgetCache.GetOrCompute(key, func() budgetsData { return s.buildBudgets(month) })
	data.Loading = s.store.Loading()
	s.render(w, r, "view_budgets", data)
}

func (s *Server) buildInsights(month core.MonthKey) insightsData {
	txs := s.store.Transactions()
	data := insightsData{HasData: len(txs) > 0}
	if !data.HasData {
		return data
	}

	months := report.MonthlyTotals(txs)
	var maxCents int64
	for _, m := range months {
		if m.Total.Cents > maxCents {
			maxCents = m.Total.Cents
		}
	}
	for _, m := range months {
		data.Months = append(data.Months, monthBarVM{
			Label: m.Label,
			Total: formatUSD(m.Total.Cents),
			Width: barWidth(m.Total.Cents, maxCents),
		})
	}

	top := report.TopCategories(txs, 5)
	var topMax int64
	if len(top) > 0 {
		topMax = top[0].Total.Cents
	}
	for _, c := range top {
		data.Top = append(data.Top, budgetTopVM{
			Category: c.Category,
			Amount:   formatUSD(c.Total.Cents),
			Width:    barWidth(c.Total.Cents, topMax),
		})
	}

	sum := report.Summarize(txs)
	data.Total = formatUSD(sum.Total.Cents)
	data.Count = sum.Count
	if sum.TopCategory != nil {
		data.TopCategory = sum.TopCategory.Category
		data.TopAmount = formatUSD(sum.TopCategory.Total.Cents)
	}
	if sum.Latest != nil {
		data.LatestDesc = sum.Latest.Description
		data.LatestDate = sum.Latest.Date.Format("Jan 2, 2006")
	}

	data.TrendLabel, data.TrendUp, data.HasTrend = trendLabel(report.MonthOverMonth(txs, month))

	data.MonthLabel = month.LongLabel()
	for _, row := range report.BudgetComparison(txs, s.store.Budgets(), month) {
		data.BudgetCards = append(data.BudgetCards, insightCard(row))
	}
	data.HasBudgets = len(data.BudgetCards) > 0
	return data
}

// insightCard turns a budget comparison row into a one-line verdict for the
// current month.
func insightCard(row report.BudgetRow) insightCardVM {
	diff := row.Difference
	if diff.Cents < 0 {
		diff.Cents = -diff.Cents
	}
	var msg string
	switch row.Status {
	case report.StatusOverBudget:
		msg = fmt.Sprintf("You have exceeded your %s budget by %s.", row.Category, formatUSD(diff.Cents))
	case report.StatusNearLimit:
		msg = fmt.Sprintf("You are close to your %s budget limit. %s remaining.", row.Category, formatUSD(diff.Cents))
	default:
		msg = fmt.Sprintf("You are within your %s budget. %s remaining.", row.Category, formatUSD(diff.Cents))
	}
	return insightCardVM{
		Category:     row.Category,
		Status:       string(row.Status),
		Message:      msg,
		PercentLabel: strconv.FormatFloat(row.PercentUsed, 'f', 0, 64) + "% used",
	}
}

// barWidth scales a value against the series max as a rounded percent,
// keeping tiny non-zero values visible.
func barWidth(cents, maxCents int64) int {
	if maxCents <= 0 || cents <= 0 {
		return 0
	}
	w := int((cents*100 + maxCents/2) / maxCents)
	if w < 2 {
		w = 2
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (s *Server) handleInsightsView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	month := core.MonthOf(s.now())
	key := cache.Key("insights", s.store.Version(), string(month))
	data := s.insightsCache.GetOrCompute(key, func() insightsData { return s.buildInsights(month) })
	data.Loading = s.store.Loading()
	s.render(w, r, "view_insights", data)
}
