package http

import (
	"net/http"

	"rateio/internal/log"
)

func (s *Server) handleParticipantList(w http.ResponseWriter, r *http.Request) {
	ps, err := s.svc.Participants.ListParticipants(r.Context())
	if err != nil {
		s.fail(w, r, log.ComponentParticipant, log.OpList, "carregar participantes", err)
		return
	}
	s.render(w, r, "participants.html", ps)
}

func (s *Server) handleCreateParticipant(w http.ResponseWriter, r *http.Request) {
	p, err := ParseParticipantForm(r)
	if err != nil {
		s.fail(w, r, log.ComponentParticipant, log.OpCreate, "adicionar participante", err)
		return
	}

	saved, err := s.svc.Participants.AddParticipant(r.Context(), p)
	if err != nil {
		s.fail(w, r, log.ComponentParticipant, log.OpCreate, "adicionar participante", err)
		return
	}

	log.FromContext(r.Context()).WithComponent(log.ComponentParticipant).InfoContext(r.Context(),
		"Participant created",
		log.NewFields().WithEntity("participant", saved.ID).WithOperation(log.OpCreate).ToSlice()...)

	NewHTMXResponse().
		TriggerFormReset().
		TriggerParticipantsChanged().
		TriggerOverviewRefresh().
		Write(w)
}

func (s *Server) handleDeleteParticipant(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err == nil {
		err = s.svc.Participants.RemoveParticipant(r.Context(), id)
	}
	if err != nil {
		s.fail(w, r, log.ComponentParticipant, log.OpDelete, "excluir participante", err)
		return
	}

	NewHTMXResponse().
		TriggerParticipantsChanged().
		TriggerOverviewRefresh().
		Write(w)
}
