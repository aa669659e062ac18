package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/internal/domain"
	"github.com/immxrtalbeast/huddle/internal/repository/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresEventRepository struct {
	db *gorm.DB
}

func NewPostgresEventRepository(db *gorm.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

func (r *PostgresEventRepository) Create(ctx context.Context, event *domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event == nil {
		return errors.New("event is nil")
	}
	return r.db.WithContext(ctx).Create(toModelEvent(event)).Error
}

func (r *PostgresEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var row model.Event
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	return toDomainEvent(&row), nil
}

func (r *PostgresEventRepository) ListBySpace(ctx context.Context, spaceID uuid.UUID, from, to string) ([]*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := r.db.WithContext(ctx).Where("space_id = ?", spaceID)
	if from != "" {
		q = q.Where("end_date >= ?", from)
	}
	if to != "" {
		q = q.Where("start_date <= ?", to)
	}

	var rows []model.Event
	if err := q.Order("start_date, created_at").Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]*domain.Event, 0, len(rows))
	for i := range rows {
		result = append(result, toDomainEvent(&rows[i]))
	}
	return result, nil
}

func (r *PostgresEventRepository) Update(ctx context.Context, id uuid.UUID, mutate EventMutation) (*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated *domain.Event
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row model.Event
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		e := toDomainEvent(&row)
		if err := mutate(e); err != nil {
			return err
		}

		if err := tx.Save(toModelEvent(e)).Error; err != nil {
			return err
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *PostgresEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Delete(&model.Event{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}
