package http

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type transactionFormVM struct {
	Mode        string // "create" or "edit"
	Action      string
	ID          string
	Amount      string
	Date        string
	Description string
	Category    string
	Categories  []string
}

func (s *Server) emptyTransactionForm() transactionFormVM {
	return transactionFormVM{
		Mode:       "create",
		Action:     "/transactions",
		Date:       s.now().Format("2006-01-02"),
		Categories: core.Categories,
	}
}

// handleTransactionForm serves the form partial; with an id it prefills for
// editing, an unknown id falls back to an empty create form.
func (s *Server) handleTransactionForm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	data := s.emptyTransactionForm()
	if id := r.URL.Query().Get("id"); id != "" {
		if tx, ok := s.store.Transaction(id); ok {
			data = transactionFormVM{
				Mode:        "edit",
				Action:      "/transactions/update",
				ID:          tx.ID,
				Amount:      centsToInput(tx.Amount.Cents),
				Date:        tx.Date.Format("2006-01-02"),
				Description: tx.Description,
				Category:    tx.Category,
				Categories:  core.Categories,
			}
		}
	}
	s.render(w, r, "transaction_form", data)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		BadRequestError("Invalid form data").Write(w)
		return
	}

	tx, err := ParseTransactionForm(r.Form)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	ctx, notes := withCollector(r.Context())
	err = s.store.AddTransaction(ctx, tx)
	resp := NewHTMXResponse().TriggerNotifications(notes.list())
	if err != nil {
		s.writeMutationError(w, resp, err)
		return
	}

	// The view refreshes itself on the trigger, so an empty body is enough;
	// it clears the form message slot.
	resp.TriggerTransactionsChanged().TriggerFormReset().Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
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
	tx, err := ParseTransactionForm(r.Form)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	ctx, notes := withCollector(r.Context())
	err = s.store.UpdateTransaction(ctx, id, tx)
	resp := NewHTMXResponse().TriggerNotifications(notes.list())
	if err != nil {
		s.writeMutationError(w, resp, err)
		return
	}

	resp.TriggerTransactionsChanged().TriggerFormReset().Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
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

	ctx, notes := withCollector(r.Context())
	err := s.store.DeleteTransaction(ctx, id)
	resp := NewHTMXResponse().TriggerNotifications(notes.list())
	if err != nil {
		s.writeMutationError(w, resp, err)
		return
	}
	resp.TriggerTransactionsChanged().Write(w)
}

// writeMutationError maps a store error to a status and inline fragment,
// keeping any already-collected notification triggers on the response.
func (s *Server) writeMutationError(w http.ResponseWriter, resp *HTMXResponseBuilder, err error) {
	status := http.StatusUnprocessableEntity
	if errors.Is(err, store.ErrBusy) {
		status = http.StatusConflict
	}
	resp.Status(status).
		BodyHTML(`<div class="form-error">` + template.HTMLEscapeString(userMessage(err)) + `</div>`).
		Write(w)
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrBusy):
		return "Another save is in progress. Please wait."
	case errors.Is(err, store.ErrBudgetExists):
		return "A budget for this category and month already exists. Edit it instead."
	default:
		return err.Error()
	}
}

// centsToInput formats cents as a plain decimal suitable for a form value.
func centsToInput(cents int64) string {
	return strconv.FormatInt(cents/100, 10) + "." + twoDigits(cents%100)
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
