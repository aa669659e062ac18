package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/internal/domain"
)

type InMemoryEventRepository struct {
	mu     sync.RWMutex
	events map[uuid.UUID]*domain.Event
}

func NewInMemoryEventRepository() *InMemoryEventRepository {
	return &InMemoryEventRepository{
		events: make(map[uuid.UUID]*domain.Event),
	}
}

func (r *InMemoryEventRepository) Create(ctx context.Context, event *domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[event.ID] = event.Clone()
	return nil
}

func (r *InMemoryEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	return e.Clone(), nil
}

// ListBySpace returns events overlapping [from, to]. An empty bound is open.
func (r *InMemoryEventRepository) ListBySpace(ctx context.Context, spaceID uuid.UUID, from, to string) ([]*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Event, 0)
	for _, e := range r.events {
		if e.SpaceID != spaceID {
			continue
		}
		if from != "" && e.EndDate < from {
			continue
		}
		if to != "" && e.StartDate > to {
			continue
		}
		result = append(result, e.Clone())
	}
	slices.SortFunc(result, func(a, b *domain.Event) int {
		return cmp.Or(cmp.Compare(a.StartDate, b.StartDate), a.CreatedAt.Compare(b.CreatedAt))
	})
	return result, nil
}

func (r *InMemoryEventRepository) Update(ctx context.Context, id uuid.UUID, mutate EventMutation) (*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}

	r.events[id] = next
	return next.Clone(), nil
}

func (r *InMemoryEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[id]; !ok {
		return ErrEventNotFound
	}
	delete(r.events, id)
	return nil
}
