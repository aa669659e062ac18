package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/internal/domain"
	"github.com/immxrtalbeast/huddle/internal/repository/model"
	"gorm.io/gorm"
)

type PostgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

func (r *PostgresNotificationRepository) CreateBatch(ctx context.Context, notifications []*domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(notifications) == 0 {
		return nil
	}

	rows := make([]model.Notification, 0, len(notifications))
	for _, n := range notifications {
		rows = append(rows, *toModelNotification(n))
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *PostgresNotificationRepository) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []model.Notification
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]*domain.Notification, 0, len(rows))
	for i := range rows {
		result = append(result, toDomainNotification(&rows[i]))
	}
	return result, nil
}

func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *PostgresNotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
}

func (r *PostgresNotificationRepository) DeleteByRelated(ctx context.Context, relatedID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Delete(&model.Notification{}, "related_id = ?", relatedID).Error
}

type PostgresCommentRepository struct {
	db *gorm.DB
}

func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

func (r *PostgresCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(toModelComment(comment)).Error
}

func (r *PostgresCommentRepository) ListByRelated(ctx context.Context, relatedID uuid.UUID) ([]*domain.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.Comment
	err := r.db.WithContext(ctx).
		Where("related_id = ?", relatedID).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]*domain.Comment, 0, len(rows))
	for i := range rows {
		result = append(result, toDomainComment(&rows[i]))
	}
	return result, nil
}

func (r *PostgresCommentRepository) DeleteByRelated(ctx context.Context, relatedID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Delete(&model.Comment{}, "related_id = ?", relatedID).Error
}
