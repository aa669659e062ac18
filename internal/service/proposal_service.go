package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/internal/domain"
	"github.com/immxrtalbeast/huddle/internal/live"
	"github.com/immxrtalbeast/huddle/internal/repository"
	"github.com/immxrtalbeast/huddle/lib/logger/sl"
)

const (
	maxTitleLength     = 200
	maxCandidateDates  = 60
	maxGuestNameLength = 64
)

type CreateProposalInput struct {
	Title       string
	Description string
	Dates       []string
	AllowGuests bool
}

type ProposalService struct {
	proposals    repository.ProposalRepository
	comments     repository.CommentRepository
	members      membership
	live         Broadcaster
	notifier     *NotificationService
	materializer *materializer
	effects      *effectRunner
	log          *slog.Logger
	now          func() time.Time
}

func NewProposalService(
	log *slog.Logger,
	store *repository.Store,
	members membership,
	live Broadcaster,
	notifier *NotificationService,
	effects *effectRunner,
) *ProposalService {
	now := func() time.Time { return time.Now().UTC() }
	return &ProposalService{
		proposals: store.Proposals,
		comments:  store.Comments,
		members:   members,
		live:      live,
		notifier:  notifier,
		materializer: &materializer{
			proposals: store.Proposals,
			events:    store.Events,
			members:   members,
			live:      live,
			notifier:  notifier,
			log:       log,
			now:       now,
		},
		effects: effects,
		log:     log,
		now:     now,
	}
}

func (s *ProposalService) CreateProposal(ctx context.Context, actor *domain.User, spaceID uuid.UUID, in CreateProposalInput) (*domain.Proposal, error) {
	const op = "service.proposal.create"
	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", actor.ID.String()),
		slog.String("space_id", spaceID.String()),
	)

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationf("title is required")
	}
	if len([]rune(title)) > maxTitleLength {
		return nil, validationf("title is longer than %d characters", maxTitleLength)
	}
	dates, err := domain.NormalizeDates(in.Dates)
	if err != nil {
		return nil, translate(err)
	}
	if len(dates) == 0 {
		return nil, validationf("at least one candidate date is required")
	}
	if len(dates) > maxCandidateDates {
		return nil, validationf("at most %d candidate dates are allowed", maxCandidateDates)
	}

	if _, err := s.members.require(ctx, spaceID, actor.ID); err != nil {
		return nil, err
	}

	p := domain.NewProposal(spaceID, actor.ID, title, strings.TrimSpace(in.Description), dates, in.AllowGuests)
	if err := s.proposals.Create(ctx, p); err != nil {
		log.Error("failed to create proposal", sl.Err(err))
		return nil, err
	}
	log.Info("proposal created", slog.String("proposal_id", p.ID.String()))

	fx := newSideEffects(op)
	fx.add("broadcast proposal_created", func(ctx context.Context) error {
		s.live.PushToSpaceMembers(ctx, spaceID, live.EventProposalCreated, map[string]any{
			"proposalId": p.ID,
			"spaceId":    spaceID,
			"title":      p.Title,
			"creatorId":  actor.ID,
		}, actor.ID)
		return nil
	})
	fx.add("notify members", func(ctx context.Context) error {
		members, err := s.members.list(ctx, spaceID)
		if err != nil {
			return err
		}
		body := fmt.Sprintf("%s proposed dates for %q", actor.Name, p.Title)
		return s.notifier.publish(ctx, notifyMembers(members, domain.NotifyProposalCreated, p.Title, body, p.ID, actor.ID))
	})
	s.effects.flush(ctx, fx)

	return p, nil
}

func (s *ProposalService) GetProposal(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.Proposal, error) {
	p, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if _, err := s.members.require(ctx, p.SpaceID, actor.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPublicProposal is the unauthenticated view used by guest voters.
func (s *ProposalService) GetPublicProposal(ctx context.Context, id uuid.UUID) (*domain.Proposal, error) {
	p, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if !p.AllowGuests {
		return nil, ErrGuestsNotAllowed
	}
	return p, nil
}

func (s *ProposalService) ListProposals(ctx context.Context, actor *domain.User, spaceID uuid.UUID) ([]*domain.Proposal, error) {
	if _, err := s.members.require(ctx, spaceID, actor.ID); err != nil {
		return nil, err
	}
	return s.proposals.ListBySpace(ctx, spaceID)
}

// CastVote records a member vote and runs the consensus check before
// returning. The returned proposal is confirmed when this vote completed a
// unanimous date.
func (s *ProposalService) CastVote(ctx context.Context, actor *domain.User, id uuid.UUID, date, choice string) (*domain.Proposal, error) {
	const op = "service.proposal.vote"
	log := s.log.With(
		slog.String("op", op),
		slog.String("proposal_id", id.String()),
		slog.String("user_id", actor.ID.String()),
	)

	c, err := domain.ParseChoice(choice)
	if err != nil {
		return nil, translate(err)
	}
	p, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if _, err := s.members.require(ctx, p.SpaceID, actor.ID); err != nil {
		return nil, err
	}
	if !p.Status.Open() {
		return nil, ErrProposalClosed
	}

	return s.vote(ctx, log, op, id, domain.MemberVoter(actor.ID, actor.Name), strings.TrimSpace(date), c)
}

// CastGuestVote records a vote from someone without an account. The guest
// is identified only by the name they give.
func (s *ProposalService) CastGuestVote(ctx context.Context, id uuid.UUID, name, date, choice string) (*domain.Proposal, error) {
	const op = "service.proposal.guestVote"
	log := s.log.With(slog.String("op", op), slog.String("proposal_id", id.String()))

	p, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if !p.AllowGuests {
		return nil, ErrGuestsNotAllowed
	}
	voter := domain.GuestVoter(name)
	if voter.Name == "" {
		return nil, ErrNameRequired
	}
	if len([]rune(voter.Name)) > maxGuestNameLength {
		return nil, validationf("name is longer than %d characters", maxGuestNameLength)
	}
	c, err := domain.ParseChoice(choice)
	if err != nil {
		return nil, translate(err)
	}
	if !p.Status.Open() {
		return nil, ErrProposalClosed
	}

	return s.vote(ctx, log, op, id, voter, strings.TrimSpace(date), c)
}

func (s *ProposalService) vote(
	ctx context.Context,
	log *slog.Logger,
	op string,
	id uuid.UUID,
	voter domain.Voter,
	date string,
	choice domain.Choice,
) (*domain.Proposal, error) {
	updated, err := s.proposals.Update(ctx, id, func(p *domain.Proposal) error {
		return p.CastVote(voter, date, choice, s.now())
	})
	if err != nil {
		return nil, translate(err)
	}
	log.Info("vote recorded", slog.String("date", date), slog.String("choice", string(choice)))

	fx := newSideEffects(op)

	payload := map[string]any{
		"proposalId": updated.ID,
		"spaceId":    updated.SpaceID,
		"date":       date,
		"choice":     choice,
		"nickname":   voter.Name,
		"guest":      voter.IsGuest(),
	}
	var exclude []uuid.UUID
	if !voter.IsGuest() {
		payload["userId"] = voter.UserID
		exclude = append(exclude, voter.UserID)
	}
	fx.add("broadcast proposal_voted", func(ctx context.Context) error {
		s.live.PushToSpaceMembers(ctx, updated.SpaceID, live.EventProposalVoted, payload, exclude...)
		return nil
	})

	if voter.IsGuest() || voter.UserID != updated.CreatorID {
		fx.add("notify creator", func(ctx context.Context) error {
			n := domain.NewNotification(
				updated.CreatorID,
				domain.NotifyProposalVoted,
				updated.Title,
				fmt.Sprintf("%s voted %s on %s", voter.Name, choice, date),
				updated.ID,
			)
			return s.notifier.publish(ctx, []*domain.Notification{n})
		})
	}

	result := s.evaluate(ctx, log, updated, fx)
	s.effects.flush(ctx, fx)
	return result, nil
}

// evaluate is the consensus check that follows every recorded vote. The
// roster is read fresh and a winning date is confirmed on behalf of the
// proposal creator. Losing a race against a manual confirmation is not an
// error for the vote.
func (s *ProposalService) evaluate(ctx context.Context, log *slog.Logger, p *domain.Proposal, fx *sideEffects) *domain.Proposal {
	members, err := s.members.list(ctx, p.SpaceID)
	if err != nil {
		log.Error("consensus check skipped", sl.Err(err))
		return p
	}

	date, ok := p.ConsensusDate(domain.MemberIDs(members))
	if !ok {
		return p
	}
	log.Info("consensus reached", slog.String("date", date))

	confirmed, _, err := s.materializer.confirm(ctx, p.ID, date, p.CreatorID, true, fx)
	if err != nil {
		if errors.Is(err, ErrInvalidState) {
			log.Info("proposal confirmed concurrently", sl.Err(err))
		} else {
			log.Error("auto confirmation failed", sl.Err(err))
		}
		if latest, getErr := s.proposals.GetByID(ctx, p.ID); getErr == nil {
			return latest
		}
		return p
	}
	return confirmed
}

// ConfirmProposal is the manual confirmation by the proposal creator.
func (s *ProposalService) ConfirmProposal(ctx context.Context, actor *domain.User, id uuid.UUID, date string) (*domain.Proposal, *domain.Event, error) {
	const op = "service.proposal.confirm"

	p, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		return nil, nil, translate(err)
	}
	if _, err := s.members.require(ctx, p.SpaceID, actor.ID); err != nil {
		return nil, nil, err
	}
	if p.CreatorID != actor.ID {
		return nil, nil, ErrNotOwner
	}
	date = strings.TrimSpace(date)
	if !p.HasCandidate(date) {
		return nil, nil, translate(domain.ErrUnknownCandidate)
	}
	if !p.Status.Open() {
		if p.Status == domain.ProposalConfirmed {
			return nil, nil, ErrAlreadyConfirmed
		}
		return nil, nil, ErrProposalClosed
	}

	fx := newSideEffects(op)
	confirmed, event, err := s.materializer.confirm(ctx, id, date, actor.ID, false, fx)
	if err != nil {
		return nil, nil, err
	}
	s.effects.flush(ctx, fx)
	return confirmed, event, nil
}

func (s *ProposalService) CancelProposal(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.Proposal, error) {
	const op = "service.proposal.cancel"
	log := s.log.With(slog.String("op", op), slog.String("proposal_id", id.String()))

	p, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if p.CreatorID != actor.ID {
		return nil, ErrNotOwner
	}

	cancelled, err := s.proposals.Update(ctx, id, func(p *domain.Proposal) error {
		return p.Cancel(s.now())
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotConfirmable) {
			return nil, ErrProposalClosed
		}
		return nil, translate(err)
	}
	log.Info("proposal cancelled")

	fx := newSideEffects(op)
	fx.add("broadcast proposal_cancelled", func(ctx context.Context) error {
		s.live.PushToSpaceMembers(ctx, cancelled.SpaceID, live.EventProposalCancelled, map[string]any{
			"proposalId": cancelled.ID,
			"spaceId":    cancelled.SpaceID,
		}, actor.ID)
		return nil
	})
	s.effects.flush(ctx, fx)

	return cancelled, nil
}

// DeleteProposal removes the proposal with its notifications and comments.
// An event it was confirmed into stays in the calendar.
func (s *ProposalService) DeleteProposal(ctx context.Context, actor *domain.User, id uuid.UUID) error {
	const op = "service.proposal.delete"
	log := s.log.With(slog.String("op", op), slog.String("proposal_id", id.String()))

	p, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		return translate(err)
	}
	if p.CreatorID != actor.ID {
		return ErrNotOwner
	}

	if err := s.proposals.Delete(ctx, id); err != nil {
		return translate(err)
	}
	// The proposal is gone at this point. A failed cascade leaves orphans
	// behind but does not undo the delete.
	if err := s.notifier.removeRelated(ctx, id); err != nil {
		log.Error("failed to delete proposal notifications", sl.Err(err))
	}
	if err := s.comments.DeleteByRelated(ctx, id); err != nil {
		log.Error("failed to delete proposal comments", sl.Err(err))
	}
	log.Info("proposal deleted")

	fx := newSideEffects(op)
	fx.add("broadcast proposal_cancelled", func(ctx context.Context) error {
		s.live.PushToSpaceMembers(ctx, p.SpaceID, live.EventProposalCancelled, map[string]any{
			"proposalId": p.ID,
			"spaceId":    p.SpaceID,
			"deleted":    true,
		}, actor.ID)
		return nil
	})
	s.effects.flush(ctx, fx)

	return nil
}
