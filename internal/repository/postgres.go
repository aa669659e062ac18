package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/internal/domain"
	"github.com/immxrtalbeast/huddle/internal/repository/model"
	"gorm.io/gorm"
)

// NewPostgresStore wires every repository to one gorm connection. The
// connection must be opened with TranslateError so duplicate keys surface as
// gorm.ErrDuplicatedKey.
func NewPostgresStore(db *gorm.DB) *Store {
	return &Store{
		Users:         NewPostgresUserRepository(db),
		Spaces:        NewPostgresSpaceRepository(db),
		Proposals:     NewPostgresProposalRepository(db),
		Events:        NewPostgresEventRepository(db),
		Notifications: NewPostgresNotificationRepository(db),
		Comments:      NewPostgresCommentRepository(db),
	}
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(model.All()...)
}

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return errors.New("user is nil")
	}

	if err := r.db.WithContext(ctx).Create(toModelUser(user)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserTokenExists
		}
		return err
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getBy(ctx, "id = ?", id)
}

func (r *PostgresUserRepository) GetByToken(ctx context.Context, token string) (*domain.User, error) {
	return r.getBy(ctx, "token = ?", token)
}

func (r *PostgresUserRepository) getBy(ctx context.Context, query string, arg any) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user model.User
	err := r.db.WithContext(ctx).First(&user, query, arg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return toDomainUser(&user), nil
}

type PostgresSpaceRepository struct {
	db *gorm.DB
}

func NewPostgresSpaceRepository(db *gorm.DB) *PostgresSpaceRepository {
	return &PostgresSpaceRepository{db: db}
}

func (r *PostgresSpaceRepository) Create(ctx context.Context, space *domain.Space) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if space == nil {
		return errors.New("space is nil")
	}

	if err := r.db.WithContext(ctx).Create(toModelSpace(space)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrInviteCodeExists
		}
		return err
	}
	return nil
}

func (r *PostgresSpaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Space, error) {
	return r.getBy(ctx, "id = ?", id)
}

func (r *PostgresSpaceRepository) GetByInviteCode(ctx context.Context, code string) (*domain.Space, error) {
	return r.getBy(ctx, "invite_code = ?", code)
}

func (r *PostgresSpaceRepository) getBy(ctx context.Context, query string, arg any) (*domain.Space, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var space model.Space
	err := r.db.WithContext(ctx).First(&space, query, arg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSpaceNotFound
		}
		return nil, err
	}

	return toDomainSpace(&space), nil
}

func (r *PostgresSpaceRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Space, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var spaces []model.Space
	err := r.db.WithContext(ctx).
		Joins("JOIN space_members ON space_members.space_id = spaces.id").
		Where("space_members.user_id = ?", userID).
		Order("spaces.created_at").
		Find(&spaces).Error
	if err != nil {
		return nil, err
	}

	result := make([]*domain.Space, 0, len(spaces))
	for i := range spaces {
		result = append(result, toDomainSpace(&spaces[i]))
	}
	return result, nil
}

// Delete removes the space. Membership rows go with it through the
// cascading foreign key.
func (r *PostgresSpaceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Delete(&model.Space{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSpaceNotFound
	}
	return nil
}

func (r *PostgresSpaceRepository) AddMember(ctx context.Context, member *domain.SpaceMember) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	row := &model.SpaceMember{
		SpaceID:  member.SpaceID,
		UserID:   member.UserID,
		Role:     string(member.Role),
		JoinedAt: member.JoinedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Omit("User").Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrMemberExists
		}
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return ErrSpaceNotFound
		}
		return err
	}
	return nil
}

func (r *PostgresSpaceRepository) RemoveMember(ctx context.Context, spaceID, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Delete(&model.SpaceMember{}, "space_id = ? AND user_id = ?", spaceID, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *PostgresSpaceRepository) GetMember(ctx context.Context, spaceID, userID uuid.UUID) (*domain.SpaceMember, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var row model.SpaceMember
	err := r.db.WithContext(ctx).Preload("User").
		First(&row, "space_id = ? AND user_id = ?", spaceID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	m := toDomainMember(&row)
	return &m, nil
}

func (r *PostgresSpaceRepository) ListMembers(ctx context.Context, spaceID uuid.UUID) ([]domain.SpaceMember, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.SpaceMember
	err := r.db.WithContext(ctx).Preload("User").
		Where("space_id = ?", spaceID).
		Order("joined_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]domain.SpaceMember, 0, len(rows))
	for i := range rows {
		result = append(result, toDomainMember(&rows[i]))
	}
	return result, nil
}
