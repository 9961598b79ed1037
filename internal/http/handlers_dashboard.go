package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"rateio/internal/core"
	"rateio/internal/export"
	"rateio/internal/log"
)

type overviewView struct {
	Summary      core.Summary
	AdultsLabel  string
	ChartVersion int64
}

// handleOverview renders the totals, the category table and the chart image.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Dashboard.Summary(r.Context())
	if err != nil {
		s.fail(w, r, log.ComponentDashboard, log.OpRender, "carregar resumo", err)
		return
	}
	s.render(w, r, "overview.html", overviewView{
		Summary:      sum,
		AdultsLabel:  adultsLabel(sum.TotalAdults),
		ChartVersion: time.Now().UnixNano(),
	})
}

// adultsLabel is the participant counter text, e.g. "3 adultos".
func adultsLabel(n int) string {
	return strconv.Itoa(n) + " adultos"
}

// handleSummaryJSON exposes the dashboard aggregates for scripts and tests.
func (s *Server) handleSummaryJSON(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Dashboard.Summary(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Summary failed", log.FieldError, err)
		writeJSON(w, StatusFor(err), map[string]string{"error": FailureMessage("carregar resumo", err)})
		return
	}

	type category struct {
		Name        string  `json:"name"`
		AmountCents int64   `json:"amount_cents"`
		Percentage  float64 `json:"percentage"`
	}
	out := struct {
		Participants         int        `json:"participants"`
		TotalAdults          int        `json:"total_adults"`
		TotalCouples         int        `json:"total_couples"`
		TotalChildren        int        `json:"total_children"`
		TotalExpenseCents    int64      `json:"total_expense_cents"`
		CostPerPersonCents   int64      `json:"cost_per_person_cents"`
		AmountPerCoupleCents int64      `json:"amount_per_couple_cents"`
		Categories           []category `json:"categories"`
	}{
		Participants:         sum.Participants,
		TotalAdults:          sum.TotalAdults,
		TotalCouples:         sum.TotalCouples,
		TotalChildren:        sum.TotalChildren,
		TotalExpenseCents:    sum.TotalExpense.Cents,
		CostPerPersonCents:   sum.CostPerPerson.Cents,
		AmountPerCoupleCents: sum.AmountPerCouple.Cents,
		Categories:           make([]category, 0, len(sum.Categories)),
	}
	for _, c := range sum.Categories {
		out.Categories = append(out.Categories, category{Name: c.Name, AmountCents: c.Amount.Cents, Percentage: c.Percentage})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleChart renders the category pie chart. With no expenses it answers
// 204 and the page shows its placeholder.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Dashboard.Summary(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Chart data failed", log.FieldError, err)
		http.Error(w, FailureMessage("gerar gráfico", err), StatusFor(err))
		return
	}

	var buf bytes.Buffer
	err = export.RenderPieChart(&buf, sum.Categories, export.DefaultChartSize)
	if errors.Is(err, export.ErrNoChartData) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentExport).ErrorContext(r.Context(),
			"Chart render failed", log.FieldError, err, log.FieldOperation, log.OpRender)
		http.Error(w, FailureMessage("gerar gráfico", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

// handleAmountMask re-renders the amount input with the live mask applied.
func (s *Server) handleAmountMask(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "amount_input.html", core.MaskAmountInput(r.URL.Query().Get("amount")))
}
