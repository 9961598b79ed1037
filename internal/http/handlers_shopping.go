package http

import (
	"net/http"

	"rateio/internal/log"
)

func (s *Server) handleShoppingList(w http.ResponseWriter, r *http.Request) {
	sections, err := s.svc.Shopping.Sections(r.Context())
	if err != nil {
		s.fail(w, r, log.ComponentShopping, log.OpList, "carregar a lista de compras", err)
		return
	}
	s.render(w, r, "shopping.html", sections)
}

func (s *Server) handleCreateShoppingItem(w http.ResponseWriter, r *http.Request) {
	f, err := ParseShoppingForm(r)
	if err != nil {
		s.fail(w, r, log.ComponentShopping, log.OpCreate, "adicionar item", err)
		return
	}

	item, err := s.svc.Shopping.AddItem(r.Context(), f.Name, f.Category, f.Quantity)
	if err != nil {
		s.fail(w, r, log.ComponentShopping, log.OpCreate, "adicionar item", err)
		return
	}

	log.FromContext(r.Context()).WithComponent(log.ComponentShopping).InfoContext(r.Context(),
		"Shopping item created",
		log.NewFields().WithEntity("shopping_item", item.ID).WithOperation(log.OpCreate).ToSlice()...)

	NewHTMXResponse().
		TriggerFormReset().
		TriggerShoppingChanged().
		Write(w)
}

func (s *Server) handleToggleShoppingItem(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		s.fail(w, r, log.ComponentShopping, log.OpToggle, "atualizar item", err)
		return
	}
	completed, err := ParseCompleted(r)
	if err == nil {
		err = s.svc.Shopping.SetCompleted(r.Context(), id, completed)
	}
	if err != nil {
		s.fail(w, r, log.ComponentShopping, log.OpToggle, "atualizar item", err)
		return
	}

	NewHTMXResponse().TriggerShoppingChanged().Write(w)
}

func (s *Server) handleDeleteShoppingItem(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err == nil {
		err = s.svc.Shopping.RemoveItem(r.Context(), id)
	}
	if err != nil {
		s.fail(w, r, log.ComponentShopping, log.OpDelete, "excluir item", err)
		return
	}

	NewHTMXResponse().TriggerShoppingChanged().Write(w)
}
