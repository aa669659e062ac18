package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/internal/domain"
	"github.com/immxrtalbeast/huddle/internal/repository"
	"github.com/immxrtalbeast/huddle/lib/logger/sl"
)

const maxUserNameLength = 64

type UserService struct {
	users repository.UserRepository
	log   *slog.Logger
}

func NewUserService(log *slog.Logger, users repository.UserRepository) *UserService {
	return &UserService{users: users, log: log}
}

func (s *UserService) Register(ctx context.Context, name, color string) (*domain.User, error) {
	const op = "service.user.register"
	log := s.log.With(slog.String("op", op))

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if len([]rune(name)) > maxUserNameLength {
		return nil, validationf("name is longer than %d characters", maxUserNameLength)
	}

	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		user := domain.NewUser(name, strings.TrimSpace(color))
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrUserTokenExists) {
				log.Warn("token collision", slog.Int("attempt", attempt))
				continue
			}
			log.Error("failed to create user", sl.Err(err))
			return nil, err
		}

		log.Info("user registered", slog.String("user_id", user.ID.String()))
		return user, nil
	}

	log.Error("failed to create user", sl.Err(errRetriesExhausted))
	return nil, fmt.Errorf("%s: token: %w", op, errRetriesExhausted)
}

// ResolveToken is the bearer lookup used by every authenticated entry point.
func (s *UserService) ResolveToken(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthorized
	}

	user, err := s.users.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}
