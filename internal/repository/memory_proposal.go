package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/internal/domain"
)

// InMemoryProposalRepository serializes every Update under one lock, which
// makes each find-modify-save atomic.
type InMemoryProposalRepository struct {
	mu        sync.RWMutex
	proposals map[uuid.UUID]*domain.Proposal
}

func NewInMemoryProposalRepository() *InMemoryProposalRepository {
	return &InMemoryProposalRepository{
		proposals: make(map[uuid.UUID]*domain.Proposal),
	}
}

func (r *InMemoryProposalRepository) Create(ctx context.Context, proposal *domain.Proposal) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.proposals[proposal.ID] = proposal.Clone()
	return nil
}

func (r *InMemoryProposalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.proposals[id]
	if !ok {
		return nil, ErrProposalNotFound
	}
	return p.Clone(), nil
}

func (r *InMemoryProposalRepository) ListBySpace(ctx context.Context, spaceID uuid.UUID) ([]*domain.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Proposal, 0)
	for _, p := range r.proposals {
		if p.SpaceID == spaceID {
			result = append(result, p.Clone())
		}
	}
	slices.SortFunc(result, func(a, b *domain.Proposal) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return result, nil
}

func (r *InMemoryProposalRepository) Update(ctx context.Context, id uuid.UUID, mutate ProposalMutation) (*domain.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.proposals[id]
	if !ok {
		return nil, ErrProposalNotFound
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}

	r.proposals[id] = next
	return next.Clone(), nil
}

func (r *InMemoryProposalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.proposals[id]; !ok {
		return ErrProposalNotFound
	}
	delete(r.proposals, id)
	return nil
}
