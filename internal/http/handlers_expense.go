package http

import (
	"net/http"

	"rateio/internal/log"
)

func (s *Server) handleExpenseList(w http.ResponseWriter, r *http.Request) {
	es, err := s.svc.Expenses.ListExpenses(r.Context())
	if err != nil {
		s.fail(w, r, log.ComponentExpense, log.OpList, "carregar despesas", err)
		return
	}
	s.render(w, r, "expenses.html", es)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	e, err := ParseExpenseForm(r)
	if err != nil {
		s.fail(w, r, log.ComponentExpense, log.OpCreate, "adicionar despesa", err)
		return
	}

	saved, err := s.svc.Expenses.CreateExpense(r.Context(), e)
	if err != nil {
		s.fail(w, r, log.ComponentExpense, log.OpCreate, "adicionar despesa", err)
		return
	}

	log.NewStructuredLogger(log.FromContext(r.Context()).WithComponent(log.ComponentExpense)).
		LogExpenseCreated(r.Context(), saved.ID, saved.Description, saved.Amount.Cents, saved.Category)

	NewHTMXResponse().
		TriggerFormReset().
		TriggerExpensesChanged().
		TriggerOverviewRefresh().
		Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err == nil {
		err = s.svc.Expenses.DeleteExpense(r.Context(), id)
	}
	if err != nil {
		s.fail(w, r, log.ComponentExpense, log.OpDelete, "excluir despesa", err)
		return
	}

	NewHTMXResponse().
		TriggerExpensesChanged().
		TriggerOverviewRefresh().
		Write(w)
}
