package http

import (
	"bytes"
	"io"
	"mime"
	"net/http"

	"rateio/internal/core"
	"rateio/internal/export"
	"rateio/internal/log"
)

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.exportExpenses(w, r, "exportar CSV", export.CSVFilename, "text/csv; charset=utf-8", export.WriteCSV)
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	s.exportExpenses(w, r, "exportar PDF", export.PDFFilename, "application/pdf", export.WritePDF)
}

// exportExpenses renders the full expense list into a buffer first so a
// failure can still answer with a proper status.
func (s *Server) exportExpenses(w http.ResponseWriter, r *http.Request, action, filename, contentType string,
	write func(io.Writer, []core.Expense) error) {
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentExport)

	expenses, err := s.svc.Expenses.ListExpenses(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "Export load failed", log.FieldError, err, log.FieldOperation, log.OpExport)
		http.Error(w, FailureMessage(action, err), StatusFor(err))
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, expenses); err != nil {
		logger.ErrorContext(r.Context(), "Export render failed", log.FieldError, err, log.FieldOperation, log.OpExport)
		http.Error(w, FailureMessage(action, err), http.StatusInternalServerError)
		return
	}

	logger.InfoContext(r.Context(), "Expenses exported",
		log.FieldOperation, log.OpExport,
		"file", filename,
		"count", len(expenses))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	_, _ = buf.WriteTo(w)
}
