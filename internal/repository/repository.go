package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/internal/domain"
)

var ErrNotFound = errors.New("not found")

var (
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrSpaceNotFound        = fmt.Errorf("space %w", ErrNotFound)
	ErrMemberNotFound       = fmt.Errorf("member %w", ErrNotFound)
	ErrProposalNotFound     = fmt.Errorf("proposal %w", ErrNotFound)
	ErrEventNotFound        = fmt.Errorf("event %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)

	ErrUserTokenExists  = errors.New("user token already exists")
	ErrInviteCodeExists = errors.New("space invite code already exists")
	ErrMemberExists     = errors.New("user is already a member of the space")
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByToken(ctx context.Context, token string) (*domain.User, error)
}

// SpaceRepository stores spaces and their membership rows. Member reads
// always hit the store, there is no roster cache anywhere.
type SpaceRepository interface {
	Create(ctx context.Context, space *domain.Space) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Space, error)
	GetByInviteCode(ctx context.Context, code string) (*domain.Space, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Space, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AddMember(ctx context.Context, member *domain.SpaceMember) error
	RemoveMember(ctx context.Context, spaceID, userID uuid.UUID) error
	GetMember(ctx context.Context, spaceID, userID uuid.UUID) (*domain.SpaceMember, error)
	ListMembers(ctx context.Context, spaceID uuid.UUID) ([]domain.SpaceMember, error)
}

// ProposalMutation changes a proposal inside an atomic find-modify-save.
// Returning an error aborts the update and leaves the stored proposal as is.
type ProposalMutation func(p *domain.Proposal) error

type ProposalRepository interface {
	Create(ctx context.Context, proposal *domain.Proposal) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Proposal, error)
	ListBySpace(ctx context.Context, spaceID uuid.UUID) ([]*domain.Proposal, error)
	Update(ctx context.Context, id uuid.UUID, mutate ProposalMutation) (*domain.Proposal, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type EventMutation func(e *domain.Event) error

type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	ListBySpace(ctx context.Context, spaceID uuid.UUID, from, to string) ([]*domain.Event, error)
	Update(ctx context.Context, id uuid.UUID, mutate EventMutation) (*domain.Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type NotificationRepository interface {
	CreateBatch(ctx context.Context, notifications []*domain.Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	DeleteByRelated(ctx context.Context, relatedID uuid.UUID) error
}

type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByRelated(ctx context.Context, relatedID uuid.UUID) ([]*domain.Comment, error)
	DeleteByRelated(ctx context.Context, relatedID uuid.UUID) error
}

// Store bundles every repository behind one storage backend.
type Store struct {
	Users         UserRepository
	Spaces        SpaceRepository
	Proposals     ProposalRepository
	Events        EventRepository
	Notifications NotificationRepository
	Comments      CommentRepository
}

func NewInMemoryStore() *Store {
	return &Store{
		Users:         NewInMemoryUserRepository(),
		Spaces:        NewInMemorySpaceRepository(),
		Proposals:     NewInMemoryProposalRepository(),
		Events:        NewInMemoryEventRepository(),
		Notifications: NewInMemoryNotificationRepository(),
		Comments:      NewInMemoryCommentRepository(),
	}
}
