package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/internal/domain"
	"github.com/immxrtalbeast/huddle/internal/live"
	"github.com/immxrtalbeast/huddle/internal/repository"
	"github.com/immxrtalbeast/huddle/lib/logger/sl"
)

const (
	maxCommentLength  = 2000
	commentPreviewLen = 80
)

type CommentService struct {
	comments  repository.CommentRepository
	proposals repository.ProposalRepository
	events    repository.EventRepository
	members   membership
	live      Broadcaster
	notifier  *NotificationService
	effects   *effectRunner
	log       *slog.Logger
}

func NewCommentService(
	log *slog.Logger,
	store *repository.Store,
	members membership,
	live Broadcaster,
	notifier *NotificationService,
	effects *effectRunner,
) *CommentService {
	return &CommentService{
		comments:  store.Comments,
		proposals: store.Proposals,
		events:    store.Events,
		members:   members,
		live:      live,
		notifier:  notifier,
		effects:   effects,
		log:       log,
	}
}

// commentTarget is what a comment hangs off.
type commentTarget struct {
	kind    domain.RelatedType
	id      uuid.UUID
	spaceID uuid.UUID
	ownerID uuid.UUID
	title   string
}

func (s *CommentService) AddComment(ctx context.Context, actor *domain.User, relatedType string, relatedID uuid.UUID, body string) (*domain.Comment, error) {
	const op = "service.comment.add"
	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", actor.ID.String()),
		slog.String("related_id", relatedID.String()),
	)

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, validationf("comment body is required")
	}
	if len([]rune(body)) > maxCommentLength {
		return nil, validationf("comment is longer than %d characters", maxCommentLength)
	}

	target, err := s.resolve(ctx, relatedType, relatedID)
	if err != nil {
		return nil, err
	}
	if _, err := s.members.require(ctx, target.spaceID, actor.ID); err != nil {
		return nil, err
	}

	comment := domain.NewComment(target.spaceID, target.kind, target.id, actor, body)
	if err := s.comments.Create(ctx, comment); err != nil {
		log.Error("failed to create comment", sl.Err(err))
		return nil, err
	}
	log.Info("comment added", slog.String("comment_id", comment.ID.String()))

	fx := newSideEffects(op)
	fx.add("broadcast comment_created", func(ctx context.Context) error {
		s.live.PushToSpaceMembers(ctx, target.spaceID, live.EventCommentCreated, map[string]any{
			"relatedId":   target.id,
			"relatedType": target.kind,
			"comment":     comment,
		}, actor.ID)
		return nil
	})
	if target.ownerID != actor.ID {
		fx.add("notify owner", func(ctx context.Context) error {
			n := domain.NewNotification(
				target.ownerID,
				domain.NotifyComment,
				target.title,
				fmt.Sprintf("%s: %s", actor.Name, preview(body)),
				target.id,
			)
			return s.notifier.publish(ctx, []*domain.Notification{n})
		})
	}
	s.effects.flush(ctx, fx)

	return comment, nil
}

func (s *CommentService) ListComments(ctx context.Context, actor *domain.User, relatedType string, relatedID uuid.UUID) ([]*domain.Comment, error) {
	target, err := s.resolve(ctx, relatedType, relatedID)
	if err != nil {
		return nil, err
	}
	if _, err := s.members.require(ctx, target.spaceID, actor.ID); err != nil {
		return nil, err
	}
	return s.comments.ListByRelated(ctx, target.id)
}

func (s *CommentService) resolve(ctx context.Context, relatedType string, relatedID uuid.UUID) (*commentTarget, error) {
	switch domain.RelatedType(strings.TrimSpace(relatedType)) {
	case domain.RelatedProposal:
		p, err := s.proposals.GetByID(ctx, relatedID)
		if err != nil {
			return nil, translate(err)
		}
		return &commentTarget{
			kind:    domain.RelatedProposal,
			id:      p.ID,
			spaceID: p.SpaceID,
			ownerID: p.CreatorID,
			title:   p.Title,
		}, nil
	case domain.RelatedEvent:
		e, err := s.events.GetByID(ctx, relatedID)
		if err != nil {
			return nil, translate(err)
		}
		return &commentTarget{
			kind:    domain.RelatedEvent,
			id:      e.ID,
			spaceID: e.SpaceID,
			ownerID: e.OwnerID,
			title:   e.Title,
		}, nil
	}
	return nil, validationf("related type must be %q or %q", domain.RelatedProposal, domain.RelatedEvent)
}

func preview(body string) string {
	runes := []rune(body)
	if len(runes) <= commentPreviewLen {
		return body
	}
	return string(runes[:commentPreviewLen]) + "..."
}
