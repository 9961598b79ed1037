// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing HTMX responses.
// It provides a type-safe, fluent API for building HX-Trigger headers and
// consistent response formatting.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"rateio/internal/core"
)

// HX-Trigger event names the page listens for.
const (
	EventFormReset           = "form:reset"
	EventParticipantsChanged = "participants:changed"
	EventExpensesChanged     = "expenses:changed"
	EventShoppingChanged     = "shopping:changed"
	EventOverviewRefresh     = "overview:refresh"
	EventNotification        = "show-notification"
)

// HTMXResponseBuilder provides a fluent API for building HTMX responses.
// It encapsulates the construction of HX-Trigger headers and response bodies.
type HTMXResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewHTMXResponse creates a new response builder with default 200 status.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
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
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	if data == nil {
		data = struct{}{}
	}
	b.triggers[name] = data
	return b
}

func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger(EventFormReset, nil)
}

func (b *HTMXResponseBuilder) TriggerParticipantsChanged() *HTMXResponseBuilder {
	return b.Trigger(EventParticipantsChanged, nil)
}

func (b *HTMXResponseBuilder) TriggerExpensesChanged() *HTMXResponseBuilder {
	return b.Trigger(EventExpensesChanged, nil)
}

func (b *HTMXResponseBuilder) TriggerShoppingChanged() *HTMXResponseBuilder {
	return b.Trigger(EventShoppingChanged, nil)
}

// TriggerOverviewRefresh asks the overview section to reload totals and chart.
func (b *HTMXResponseBuilder) TriggerOverviewRefresh() *HTMXResponseBuilder {
	return b.Trigger(EventOverviewRefresh, nil)
}

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

// TriggerNotification adds a show-notification trigger with the specified parameters.
func (b *HTMXResponseBuilder) TriggerNotification(notifType NotificationType, message string) *HTMXResponseBuilder {
	return b.Trigger(EventNotification, map[string]string{
		"type":    string(notifType),
		"message": message,
	})
}

// TriggerErrorNotification carries a message the page shows as a blocking alert.
func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationError, message)
}

// Header adds a custom header to the response.
func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers[name] = value
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
		triggerJSON, err := json.Marshal(b.triggers)
		if err == nil {
			w.Header().Set("HX-Trigger", asciiJSON(triggerJSON))
		}
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// asciiJSON escapes non-ASCII runes as \uXXXX. Header values are read as
// latin-1 by browsers, so accented messages must not travel as raw UTF-8.
func asciiJSON(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, r := range string(b) {
		switch {
		case r < utf8.RuneSelf:
			sb.WriteRune(r)
		case r > 0xFFFF:
			r1, r2 := utf16.EncodeRune(r)
			fmt.Fprintf(&sb, `\u%04x\u%04x`, r1, r2)
		default:
			fmt.Fprintf(&sb, `\u%04x`, r)
		}
	}
	return sb.String()
}

// StatusFor maps a service error to the response status: undecodable
// forms are 400, validation failures 422, unknown ids 404, anything else 500.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadForm):
		return http.StatusBadRequest
	case core.IsValidationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// FailureMessage formats the alert text shown for a failed action,
// e.g. "Erro ao adicionar despesa: invalid amount".
func FailureMessage(action string, err error) string {
	return fmt.Sprintf("Erro ao %s: %s", action, err.Error())
}

// ErrorResponse creates the standard failure response: an error
// notification trigger plus an escaped HTML fragment.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(statusCode).
		TriggerErrorNotification(message).
		BodyHTML(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`)
}

// ActionError builds the failure response for action from err.
func ActionError(action string, err error) *HTMXResponseBuilder {
	return ErrorResponse(StatusFor(err), FailureMessage(action, err))
}

// MethodNotAllowedError creates a 405 Method Not Allowed error response.
func MethodNotAllowedError(allowedMethods string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowedMethods)
}
