// Package http provides the HTTP server and handler implementations.
//
// This file implements a fluent builder for HTMX responses: HX-Trigger
// headers, toast notifications and consistent error fragments.
package http

import (
	"encoding/json"
	"html/template"
	"net/http"

	"fintrack/internal/store"
)

// HTMXResponseBuilder accumulates triggers, headers and a body, then writes
// them in one shot.
type HTMXResponseBuilder struct {
	triggers   map[string]interface{}
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewHTMXResponse creates a new response builder with default 200 status.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]interface{}),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
func (b *HTMXResponseBuilder) Trigger(name string, data interface{}) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerNotification adds a show-notification trigger carrying the toast
// payload the client renders.
func (b *HTMXResponseBuilder) TriggerNotification(n store.Notification) *HTMXResponseBuilder {
	return b.Trigger("show-notification", map[string]string{
		"title":       n.Title,
		"description": n.Description,
		"variant":     string(n.Variant),
	})
}

// TriggerNotifications flushes a whole collector batch.
func (b *HTMXResponseBuilder) TriggerNotifications(notes []store.Notification) *HTMXResponseBuilder {
	for _, n := range notes {
		b.TriggerNotification(n)
	}
	return b
}

// TriggerTransactionsChanged tells listening views to re-fetch transaction
// derived partials.
func (b *HTMXResponseBuilder) TriggerTransactionsChanged() *HTMXResponseBuilder {
	return b.Trigger("transactions:changed", struct{}{})
}

// TriggerBudgetsChanged tells listening views to re-fetch budget partials
// for the given month.
func (b *HTMXResponseBuilder) TriggerBudgetsChanged(month string) *HTMXResponseBuilder {
	return b.Trigger("budgets:changed", map[string]string{"month": month})
}

// TriggerFormReset adds the form:reset trigger.
func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger("form:reset", struct{}{})
}

// Header adds a custom header to the response.
func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the response body as bytes.
func (b *HTMXResponseBuilder) Body(content []byte) *HTMXResponseBuilder {
	b.body = content
	return b
}

// BodyHTML sets the response body as HTML content.
func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = []byte(html)
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.triggers) > 0 {
		if triggerJSON, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse creates an error response with an HTML-escaped inline
// fragment, the shape every form swaps into its error slot.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	escaped := template.HTMLEscapeString(message)
	return NewHTMXResponse().
		Status(statusCode).
		BodyHTML(`<div class="form-error">` + escaped + `</div>`)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// ConflictError creates a 409 Conflict error response.
func ConflictError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusConflict, message)
}

// MethodNotAllowedError creates a 405 response with an Allow header.
func MethodNotAllowedError(allowedMethods string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowedMethods)
}
