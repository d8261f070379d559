package http

import (
	"log/slog"
	"net/http"

	"fintrack/internal/core"
)

type budgetFormVM struct {
	Mode       string // "create" or "edit"
	Action     string
	ID         string
	Amount     string
	Month      string
	Category   string
	Categories []string
}

func (s *Server) emptyBudgetForm() budgetFormVM {
	return budgetFormVM{
		Mode:       "create",
		Action:     "/budgets",
		Month:      string(core.MonthOf(s.now())),
		Categories: core.Categories,
	}
}

func (s *Server) handleBudgetForm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	data := s.emptyBudgetForm()
	if id := r.URL.Query().Get("id"); id != "" {
		if b, ok := s.store.Budget(id); ok {
			data = budgetFormVM{
				Mode:       "edit",
				Action:     "/budgets/update",
				ID:         b.ID,
				Amount:     centsToInput(b.Amount.Cents),
				Month:      string(b.Month),
				Category:   b.Category,
				Categories: core.Categories,
			}
		}
	}
	s.render(w, r, "budget_form", data)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		BadRequestError("Invalid form data").Write(w)
		return
	}

	b, err := ParseBudgetForm(r.Form)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	ctx, notes := withCollector(r.Context())
	err = s.store.AddBudget(ctx, b)
	resp := NewHTMXResponse().TriggerNotifications(notes.list())
	if err != nil {
		s.writeMutationError(w, resp, err)
		return
	}

	resp.TriggerBudgetsChanged(string(b.Month)).TriggerFormReset().Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid form data").Write(w)
		return
	}

	id := sanitizeInput(r.Form.Get("id"))
	if id == "" {
		UnprocessableEntityError("Missing record id").Write(w)
		return
	}
	b, err := ParseBudgetForm(r.Form)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	ctx, notes := withCollector(r.Context())
	err = s.store.UpdateBudget(ctx, id, b)
	resp := NewHTMXResponse().TriggerNotifications(notes.list())
	if err != nil {
		s.writeMutationError(w, resp, err)
		return
	}

	resp.TriggerBudgetsChanged(string(b.Month)).TriggerFormReset().Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		MethodNotAllowedError("POST, DELETE").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid form data").Write(w)
		return
	}
	id := sanitizeInput(r.Form.Get("id"))
	if id == "" {
		id = sanitizeInput(r.URL.Query().Get("id"))
	}
	if id == "" {
		UnprocessableEntityError("Missing record id").Write(w)
		return
	}

	month := ""
	if b, ok := s.store.Budget(id); ok {
		month = string(b.Month)
	}

	ctx, notes := withCollector(r.Context())
	err := s.store.DeleteBudget(ctx, id)
	resp := NewHTMXResponse().TriggerNotifications(notes.list())
	if err != nil {
		s.writeMutationError(w, resp, err)
		return
	}
	resp.TriggerBudgetsChanged(month).Write(w)
}
