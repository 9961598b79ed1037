package http

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"rateio/internal/core"
	"rateio/internal/log"
)

// templateFuncs are the formatting helpers available to every template.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"brl":       core.FormatBRL,
		"dateBR":    core.FormatDateBR,
		"percent":   formatPercent,
		"quantity":  formatQuantity,
		"typeLabel": func(t core.ParticipantType) string { return t.Label() },
		"catLabel":  func(c core.ShoppingCategory) string { return c.Label() },
	}
}

// formatPercent renders a share with two decimals, e.g. "33.33%".
func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64) + "%"
}

// formatQuantity drops trailing zeros: 2 -> "2", 1.5 -> "1.5".
func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

// withTimeout bounds every request context so a stalled store cannot hang
// a partial forever.
func withTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// fail logs err and writes the error notification response for action.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, component, op, action string, err error) {
	status := StatusFor(err)
	logger := log.FromContext(r.Context()).WithComponent(component)
	if status >= http.StatusInternalServerError {
		log.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, op, nil)
	} else {
		fields := log.NewFields().WithError(err).WithOperation(op)
		logger.WarnContext(r.Context(), "Request rejected", fields.ToSlice()...)
	}
	ActionError(action, err).Write(w)
}

// render executes a named template, logging and answering 500 on failure.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(),
			"Template execution failed",
			log.FieldError, err,
			"template", name)
		http.Error(w, "Erro ao renderizar página", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
