package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/internal/domain"
)

type InMemoryNotificationRepository struct {
	mu            sync.RWMutex
	notifications []domain.Notification
}

func NewInMemoryNotificationRepository() *InMemoryNotificationRepository {
	return &InMemoryNotificationRepository{}
}

func (r *InMemoryNotificationRepository) CreateBatch(ctx context.Context, notifications []*domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range notifications {
		r.notifications = append(r.notifications, *n)
	}
	return nil
}

// ListForUser returns newest first.
func (r *InMemoryNotificationRepository) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Notification, 0)
	for i := len(r.notifications) - 1; i >= 0; i-- {
		n := r.notifications[i]
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		result = append(result, &n)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (r *InMemoryNotificationRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.notifications {
		if r.notifications[i].ID == id && r.notifications[i].UserID == userID {
			r.notifications[i].Read = true
			return nil
		}
	}
	return ErrNotificationNotFound
}

func (r *InMemoryNotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.notifications {
		if r.notifications[i].UserID == userID {
			r.notifications[i].Read = true
		}
	}
	return nil
}

func (r *InMemoryNotificationRepository) DeleteByRelated(ctx context.Context, relatedID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.notifications = slices.DeleteFunc(r.notifications, func(n domain.Notification) bool {
		return n.RelatedID == relatedID
	})
	return nil
}

type InMemoryCommentRepository struct {
	mu       sync.RWMutex
	comments []domain.Comment
}

func NewInMemoryCommentRepository() *InMemoryCommentRepository {
	return &InMemoryCommentRepository{}
}

func (r *InMemoryCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.comments = append(r.comments, *comment)
	return nil
}

// ListByRelated returns oldest first.
func (r *InMemoryCommentRepository) ListByRelated(ctx context.Context, relatedID uuid.UUID) ([]*domain.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Comment, 0)
	for _, c := range r.comments {
		if c.RelatedID == relatedID {
			result = append(result, &c)
		}
	}
	return result, nil
}

func (r *InMemoryCommentRepository) DeleteByRelated(ctx context.Context, relatedID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.comments = slices.DeleteFunc(r.comments, func(c domain.Comment) bool {
		return c.RelatedID == relatedID
	})
	return nil
}
