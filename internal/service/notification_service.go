package service

import (
	"context"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/internal/domain"
	"github.com/immxrtalbeast/huddle/internal/live"
	"github.com/immxrtalbeast/huddle/internal/repository"
	"github.com/immxrtalbeast/huddle/lib/logger/sl"
)

const defaultNotificationLimit = 50

type NotificationService struct {
	notifications repository.NotificationRepository
	live          Broadcaster
	push          PushSender
	log           *slog.Logger
}

func NewNotificationService(
	log *slog.Logger,
	notifications repository.NotificationRepository,
	live Broadcaster,
	push PushSender,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		live:          live,
		push:          push,
		log:           log,
	}
}

func (s *NotificationService) ListNotifications(ctx context.Context, actor *domain.User, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultNotificationLimit
	}
	return s.notifications.ListForUser(ctx, actor.ID, unreadOnly, limit)
}

func (s *NotificationService) MarkRead(ctx context.Context, actor *domain.User, id uuid.UUID) error {
	return translate(s.notifications.MarkRead(ctx, actor.ID, id))
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor *domain.User) error {
	return s.notifications.MarkAllRead(ctx, actor.ID)
}

func (s *NotificationService) store(ctx context.Context, notifications []*domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return s.notifications.CreateBatch(ctx, notifications)
}

// removeRelated deletes every notification pointing at the entity.
func (s *NotificationService) removeRelated(ctx context.Context, relatedID uuid.UUID) error {
	return s.notifications.DeleteByRelated(ctx, relatedID)
}

// publish stores the notifications and delivers them.
func (s *NotificationService) publish(ctx context.Context, notifications []*domain.Notification) error {
	if err := s.store(ctx, notifications); err != nil {
		return err
	}
	s.deliver(ctx, notifications)
	return nil
}

// deliver pushes already stored notifications: the live frame first, then
// the outbound push. Neither can fail the caller.
func (s *NotificationService) deliver(ctx context.Context, notifications []*domain.Notification) {
	const op = "service.notification.deliver"

	for _, n := range notifications {
		s.live.PushToUser(n.UserID, live.EventNotification, map[string]any{
			"id":         n.ID,
			"title":      n.Title,
			"body":       n.Body,
			"type":       n.Type,
			"related_id": n.RelatedID,
			"created_at": n.CreatedAt,
		})

		if s.push == nil {
			continue
		}
		if err := s.push.Send(ctx, n); err != nil {
			s.log.Warn("push delivery failed",
				slog.String("op", op),
				slog.String("notification_id", n.ID.String()),
				slog.String("user_id", n.UserID.String()),
				sl.Err(err),
			)
		}
	}
}

// notifyMembers builds one notification per member except the excluded
// users.
func notifyMembers(
	members []domain.SpaceMember,
	kind domain.NotificationType,
	title, body string,
	relatedID uuid.UUID,
	exclude ...uuid.UUID,
) []*domain.Notification {
	result := make([]*domain.Notification, 0, len(members))
	for _, m := range members {
		if slices.Contains(exclude, m.UserID) {
			continue
		}
		result = append(result, domain.NewNotification(m.UserID, kind, title, body, relatedID))
	}
	return result
}
