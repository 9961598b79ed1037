package services

import (
	"context"
	"fmt"
	"strings"

	"rateio/internal/core"
	"rateio/internal/ports"
)

type ParticipantService struct {
	store ports.ParticipantStore
	opts  options
}

func NewParticipantService(store ports.ParticipantStore, opts ...Option) *ParticipantService {
	return &ParticipantService{store: store, opts: buildOptions(opts)}
}

func (s *ParticipantService) AddParticipant(ctx context.Context, p core.Participant) (core.Participant, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := p.Validate(); err != nil {
		return core.Participant{}, err
	}
	saved, err := s.store.CreateParticipant(ctx, p)
	if err != nil {
		return core.Participant{}, fmt.Errorf("save participant: %w", err)
	}
	s.opts.invalidator.Invalidate()
	s.opts.recorder.Mutation("participant", "create")
	return saved, nil
}

func (s *ParticipantService) ListParticipants(ctx context.Context) ([]core.Participant, error) {
	ps, err := s.store.ListParticipants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return ps, nil
}

func (s *ParticipantService) RemoveParticipant(ctx context.Context, id int64) error {
	if err := s.store.DeleteParticipant(ctx, id); err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	s.opts.invalidator.Invalidate()
	s.opts.recorder.Mutation("participant", "delete")
	return nil
}
