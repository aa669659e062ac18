package service

import (
	"context"
	"errors"
	"log/slog"

	ical "github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/internal/domain"
	"github.com/immxrtalbeast/huddle/internal/repository"
)

//go:generate mockgen -destination=mocks/push_sender_mock.go -package=mocks github.com/immxrtalbeast/huddle/internal/service PushSender

// Broadcaster pushes live frames to connected users. Implementations must
// not block and must not fail the caller.
type Broadcaster interface {
	PushToUser(userID uuid.UUID, eventType string, payload any) int
	PushToSpaceMembers(ctx context.Context, spaceID uuid.UUID, eventType string, payload any, exclude ...uuid.UUID) int
}

// PushSender delivers a notification outside the app (web push, mail...).
// It is invoked after the live frame and its failures are only logged.
type PushSender interface {
	Send(ctx context.Context, n *domain.Notification) error
}

type UserInteractor interface {
	Register(ctx context.Context, name, color string) (*domain.User, error)
	ResolveToken(ctx context.Context, token string) (*domain.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type SpaceInteractor interface {
	CreateSpace(ctx context.Context, actor *domain.User, name string) (*domain.Space, error)
	JoinSpace(ctx context.Context, actor *domain.User, inviteCode string) (*domain.Space, error)
	LeaveSpace(ctx context.Context, actor *domain.User, spaceID uuid.UUID) error
	ListSpaces(ctx context.Context, actor *domain.User) ([]*domain.Space, error)
	ListMembers(ctx context.Context, actor *domain.User, spaceID uuid.UUID) ([]domain.SpaceMember, error)
}

type ProposalInteractor interface {
	CreateProposal(ctx context.Context, actor *domain.User, spaceID uuid.UUID, in CreateProposalInput) (*domain.Proposal, error)
	GetProposal(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.Proposal, error)
	GetPublicProposal(ctx context.Context, id uuid.UUID) (*domain.Proposal, error)
	ListProposals(ctx context.Context, actor *domain.User, spaceID uuid.UUID) ([]*domain.Proposal, error)
	CastVote(ctx context.Context, actor *domain.User, id uuid.UUID, date, choice string) (*domain.Proposal, error)
	CastGuestVote(ctx context.Context, id uuid.UUID, name, date, choice string) (*domain.Proposal, error)
	ConfirmProposal(ctx context.Context, actor *domain.User, id uuid.UUID, date string) (*domain.Proposal, *domain.Event, error)
	CancelProposal(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.Proposal, error)
	DeleteProposal(ctx context.Context, actor *domain.User, id uuid.UUID) error
}

type EventInteractor interface {
	CreateEvent(ctx context.Context, actor *domain.User, spaceID uuid.UUID, in EventInput) (*domain.Event, error)
	GetEvent(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.Event, error)
	UpdateEvent(ctx context.Context, actor *domain.User, id uuid.UUID, patch EventPatch) (*domain.Event, error)
	DeleteEvent(ctx context.Context, actor *domain.User, id uuid.UUID) error
	RespondEvent(ctx context.Context, actor *domain.User, id uuid.UUID, rsvp, comment string) (*domain.Event, error)
	ListEvents(ctx context.Context, actor *domain.User, spaceID uuid.UUID, from, to string) ([]*domain.Event, error)
	ExportCalendar(ctx context.Context, actor *domain.User, spaceID uuid.UUID) (*ical.Calendar, error)
}

type NotificationInteractor interface {
	ListNotifications(ctx context.Context, actor *domain.User, unreadOnly bool, limit int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, actor *domain.User, id uuid.UUID) error
	MarkAllRead(ctx context.Context, actor *domain.User) error
}

type CommentInteractor interface {
	AddComment(ctx context.Context, actor *domain.User, relatedType string, relatedID uuid.UUID, body string) (*domain.Comment, error)
	ListComments(ctx context.Context, actor *domain.User, relatedType string, relatedID uuid.UUID) ([]*domain.Comment, error)
}

// Services is the business layer wired over one store.
type Services struct {
	Users         *UserService
	Spaces        *SpaceService
	Proposals     *ProposalService
	Events        *EventService
	Notifications *NotificationService
	Comments      *CommentService

	effects *effectRunner
}

func New(log *slog.Logger, store *repository.Store, live Broadcaster, push PushSender) *Services {
	effects := newEffectRunner(log)
	members := membership{spaces: store.Spaces}
	notifications := NewNotificationService(log, store.Notifications, live, push)

	return &Services{
		Users:         NewUserService(log, store.Users),
		Spaces:        NewSpaceService(log, store.Spaces, live, effects),
		Proposals:     NewProposalService(log, store, members, live, notifications, effects),
		Events:        NewEventService(log, store, members, live, notifications, effects),
		Notifications: notifications,
		Comments:      NewCommentService(log, store, members, live, notifications, effects),
		effects:       effects,
	}
}

// Wait blocks until all pending post-commit side effects have run.
func (s *Services) Wait() {
	s.effects.wait()
}

// membership answers permission questions against fresh roster reads.
type membership struct {
	spaces repository.SpaceRepository
}

// require returns the caller's membership row, failing with NotFound for an
// unknown space and Forbidden for a non-member.
func (m membership) require(ctx context.Context, spaceID, userID uuid.UUID) (*domain.SpaceMember, error) {
	if _, err := m.spaces.GetByID(ctx, spaceID); err != nil {
		return nil, translate(err)
	}
	member, err := m.spaces.GetMember(ctx, spaceID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotMember
		}
		return nil, err
	}
	return member, nil
}

func (m membership) list(ctx context.Context, spaceID uuid.UUID) ([]domain.SpaceMember, error) {
	return m.spaces.ListMembers(ctx, spaceID)
}
