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

type PostgresProposalRepository struct {
	db *gorm.DB
}

func NewPostgresProposalRepository(db *gorm.DB) *PostgresProposalRepository {
	return &PostgresProposalRepository{db: db}
}

func (r *PostgresProposalRepository) Create(ctx context.Context, proposal *domain.Proposal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if proposal == nil {
		return errors.New("proposal is nil")
	}
	return r.db.WithContext(ctx).Create(toModelProposal(proposal)).Error
}

func (r *PostgresProposalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var row model.Proposal
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProposalNotFound
		}
		return nil, err
	}

	return toDomainProposal(&row), nil
}

func (r *PostgresProposalRepository) ListBySpace(ctx context.Context, spaceID uuid.UUID) ([]*domain.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.Proposal
	err := r.db.WithContext(ctx).
		Where("space_id = ?", spaceID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]*domain.Proposal, 0, len(rows))
	for i := range rows {
		result = append(result, toDomainProposal(&rows[i]))
	}
	return result, nil
}

// Update locks the row with SELECT ... FOR UPDATE, applies mutate and writes
// the whole document back in the same transaction.
func (r *PostgresProposalRepository) Update(ctx context.Context, id uuid.UUID, mutate ProposalMutation) (*domain.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated *domain.Proposal
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row model.Proposal
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProposalNotFound
			}
			return err
		}

		p := toDomainProposal(&row)
		if err := mutate(p); err != nil {
			return err
		}

		if err := tx.Save(toModelProposal(p)).Error; err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *PostgresProposalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Delete(&model.Proposal{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProposalNotFound
	}
	return nil
}
