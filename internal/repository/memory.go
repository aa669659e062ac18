package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/internal/domain"
)

type InMemoryUserRepository struct {
	mu     sync.RWMutex
	users  map[uuid.UUID]*domain.User
	tokens map[string]uuid.UUID
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users:  make(map[uuid.UUID]*domain.User),
		tokens: make(map[string]uuid.UUID),
	}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[user.Token]; ok {
		return ErrUserTokenExists
	}

	cp := *user
	r.users[user.ID] = &cp
	r.tokens[user.Token] = user.ID
	return nil
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	cp := *user
	return &cp, nil
}

func (r *InMemoryUserRepository) GetByToken(ctx context.Context, token string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.tokens[token]
	if !ok {
		return nil, ErrUserNotFound
	}
	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	cp := *user
	return &cp, nil
}

type InMemorySpaceRepository struct {
	mu      sync.RWMutex
	spaces  map[uuid.UUID]*domain.Space
	codes   map[string]uuid.UUID
	members map[uuid.UUID][]domain.SpaceMember
}

func NewInMemorySpaceRepository() *InMemorySpaceRepository {
	return &InMemorySpaceRepository{
		spaces:  make(map[uuid.UUID]*domain.Space),
		codes:   make(map[string]uuid.UUID),
		members: make(map[uuid.UUID][]domain.SpaceMember),
	}
}

func (r *InMemorySpaceRepository) Create(ctx context.Context, space *domain.Space) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.codes[space.InviteCode]; ok {
		return ErrInviteCodeExists
	}

	cp := *space
	r.spaces[space.ID] = &cp
	r.codes[space.InviteCode] = space.ID
	return nil
}

func (r *InMemorySpaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Space, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	space, ok := r.spaces[id]
	if !ok {
		return nil, ErrSpaceNotFound
	}

	cp := *space
	return &cp, nil
}

func (r *InMemorySpaceRepository) GetByInviteCode(ctx context.Context, code string) (*domain.Space, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.codes[code]
	if !ok {
		return nil, ErrSpaceNotFound
	}
	space, ok := r.spaces[id]
	if !ok {
		return nil, ErrSpaceNotFound
	}

	cp := *space
	return &cp, nil
}

func (r *InMemorySpaceRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Space, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Space, 0)
	for spaceID, members := range r.members {
		for _, m := range members {
			if m.UserID != userID {
				continue
			}
			if space, ok := r.spaces[spaceID]; ok {
				cp := *space
				result = append(result, &cp)
			}
			break
		}
	}
	slices.SortFunc(result, func(a, b *domain.Space) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return result, nil
}

// Delete removes the space with its invite code and membership rows.
func (r *InMemorySpaceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	space, ok := r.spaces[id]
	if !ok {
		return ErrSpaceNotFound
	}
	delete(r.codes, space.InviteCode)
	delete(r.members, id)
	delete(r.spaces, id)
	return nil
}

func (r *InMemorySpaceRepository) AddMember(ctx context.Context, member *domain.SpaceMember) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.spaces[member.SpaceID]; !ok {
		return ErrSpaceNotFound
	}
	for _, m := range r.members[member.SpaceID] {
		if m.UserID == member.UserID {
			return ErrMemberExists
		}
	}

	r.members[member.SpaceID] = append(r.members[member.SpaceID], *member)
	return nil
}

func (r *InMemorySpaceRepository) RemoveMember(ctx context.Context, spaceID, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.members[spaceID]
	idx := slices.IndexFunc(members, func(m domain.SpaceMember) bool { return m.UserID == userID })
	if idx < 0 {
		return ErrMemberNotFound
	}

	r.members[spaceID] = slices.Delete(slices.Clone(members), idx, idx+1)
	return nil
}

func (r *InMemorySpaceRepository) GetMember(ctx context.Context, spaceID, userID uuid.UUID) (*domain.SpaceMember, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.members[spaceID] {
		if m.UserID == userID {
			cp := m
			return &cp, nil
		}
	}
	return nil, ErrMemberNotFound
}

func (r *InMemorySpaceRepository) ListMembers(ctx context.Context, spaceID uuid.UUID) ([]domain.SpaceMember, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.spaces[spaceID]; !ok {
		return nil, ErrSpaceNotFound
	}
	return slices.Clone(r.members[spaceID]), nil
}
