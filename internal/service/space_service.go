package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/internal/domain"
	"github.com/immxrtalbeast/huddle/internal/live"
	"github.com/immxrtalbeast/huddle/internal/repository"
	"github.com/immxrtalbeast/huddle/lib/logger/sl"
)

const maxSpaceNameLength = 100

type SpaceService struct {
	spaces  repository.SpaceRepository
	members membership
	live    Broadcaster
	effects *effectRunner
	log     *slog.Logger
}

func NewSpaceService(log *slog.Logger, spaces repository.SpaceRepository, live Broadcaster, effects *effectRunner) *SpaceService {
	return &SpaceService{
		spaces:  spaces,
		members: membership{spaces: spaces},
		live:    live,
		effects: effects,
		log:     log,
	}
}

// CreateSpace creates the space and its owner membership. An invite code
// collision just draws a new code.
func (s *SpaceService) CreateSpace(ctx context.Context, actor *domain.User, name string) (*domain.Space, error) {
	const op = "service.space.create"
	log := s.log.With(slog.String("op", op), slog.String("user_id", actor.ID.String()))

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if len([]rune(name)) > maxSpaceNameLength {
		return nil, validationf("name is longer than %d characters", maxSpaceNameLength)
	}

	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		space := domain.NewSpace(name, actor.ID)
		if err := s.spaces.Create(ctx, space); err != nil {
			if errors.Is(err, repository.ErrInviteCodeExists) {
				log.Warn("invite code collision", slog.Int("attempt", attempt))
				continue
			}
			log.Error("failed to create space", sl.Err(err))
			return nil, err
		}

		if err := s.spaces.AddMember(ctx, domain.NewSpaceMember(space.ID, actor, domain.RoleOwner)); err != nil {
			log.Error("failed to add owner membership", sl.Err(err))
			if derr := s.spaces.Delete(context.WithoutCancel(ctx), space.ID); derr != nil {
				log.Error("failed to remove ownerless space",
					slog.String("space_id", space.ID.String()),
					sl.Err(derr),
				)
			}
			return nil, err
		}

		log.Info("space created", slog.String("space_id", space.ID.String()))
		return space, nil
	}

	log.Error("failed to create space", sl.Err(errRetriesExhausted))
	return nil, fmt.Errorf("%s: invite code: %w", op, errRetriesExhausted)
}

// JoinSpace is idempotent: joining a space twice returns it unchanged.
func (s *SpaceService) JoinSpace(ctx context.Context, actor *domain.User, inviteCode string) (*domain.Space, error) {
	const op = "service.space.join"
	log := s.log.With(slog.String("op", op), slog.String("user_id", actor.ID.String()))

	code := strings.ToUpper(strings.TrimSpace(inviteCode))
	if code == "" {
		return nil, validationf("invite code is required")
	}

	space, err := s.spaces.GetByInviteCode(ctx, code)
	if err != nil {
		return nil, translate(err)
	}

	if _, err := s.spaces.GetMember(ctx, space.ID, actor.ID); err == nil {
		return space, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	member := domain.NewSpaceMember(space.ID, actor, domain.RoleMember)
	if err := s.spaces.AddMember(ctx, member); err != nil {
		if errors.Is(err, repository.ErrMemberExists) {
			return space, nil
		}
		log.Error("failed to add member", sl.Err(err))
		return nil, err
	}
	log.Info("member joined", slog.String("space_id", space.ID.String()))

	fx := newSideEffects(op)
	fx.add("broadcast member_joined", func(ctx context.Context) error {
		s.live.PushToSpaceMembers(ctx, space.ID, live.EventMemberJoined, map[string]any{
			"spaceId": space.ID,
			"userId":  actor.ID,
			"name":    actor.Name,
			"color":   actor.Color,
		}, actor.ID)
		return nil
	})
	s.effects.flush(ctx, fx)

	return space, nil
}

func (s *SpaceService) LeaveSpace(ctx context.Context, actor *domain.User, spaceID uuid.UUID) error {
	const op = "service.space.leave"
	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", actor.ID.String()),
		slog.String("space_id", spaceID.String()),
	)

	if _, err := s.members.require(ctx, spaceID, actor.ID); err != nil {
		return err
	}
	if err := s.spaces.RemoveMember(ctx, spaceID, actor.ID); err != nil {
		return translate(err)
	}
	log.Info("member left")

	fx := newSideEffects(op)
	fx.add("broadcast member_left", func(ctx context.Context) error {
		s.live.PushToSpaceMembers(ctx, spaceID, live.EventMemberLeft, map[string]any{
			"spaceId": spaceID,
			"userId":  actor.ID,
		})
		return nil
	})
	s.effects.flush(ctx, fx)

	return nil
}

func (s *SpaceService) ListSpaces(ctx context.Context, actor *domain.User) ([]*domain.Space, error) {
	return s.spaces.ListForUser(ctx, actor.ID)
}

func (s *SpaceService) ListMembers(ctx context.Context, actor *domain.User, spaceID uuid.UUID) ([]domain.SpaceMember, error) {
	if _, err := s.members.require(ctx, spaceID, actor.ID); err != nil {
		return nil, err
	}
	return s.members.list(ctx, spaceID)
}
