package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/internal/domain"
	"github.com/immxrtalbeast/huddle/internal/live"
	"github.com/immxrtalbeast/huddle/internal/repository"
	"github.com/immxrtalbeast/huddle/lib/logger/sl"
)

// materializer turns a confirmed date into a calendar event. The status
// flip, the event and its notifications either all exist afterwards or the
// proposal is back in its previous status.
type materializer struct {
	proposals repository.ProposalRepository
	events    repository.EventRepository
	members   membership
	live      Broadcaster
	notifier  *NotificationService
	log       *slog.Logger
	now       func() time.Time
}

// confirm runs the whole confirmation of proposalID on date with actorID as
// the event owner. Broadcasts are queued on fx and only run if every step
// succeeded.
func (m *materializer) confirm(
	ctx context.Context,
	proposalID uuid.UUID,
	date string,
	actorID uuid.UUID,
	auto bool,
	fx *sideEffects,
) (*domain.Proposal, *domain.Event, error) {
	const op = "service.proposal.materialize"
	log := m.log.With(
		slog.String("op", op),
		slog.String("proposal_id", proposalID.String()),
		slog.String("date", date),
		slog.Bool("auto", auto),
	)

	var previous domain.ProposalStatus
	confirmed, err := m.proposals.Update(ctx, proposalID, func(p *domain.Proposal) error {
		previous = p.Status
		return p.MarkConfirmed(date, m.now())
	})
	if err != nil {
		return nil, nil, translate(err)
	}

	// Compensation runs detached so a cancelled request cannot strand the
	// proposal in confirmed state.
	cleanup := context.WithoutCancel(ctx)
	rollback := func(cause error) error {
		_, err := m.proposals.Update(cleanup, proposalID, func(p *domain.Proposal) error {
			if p.Status != domain.ProposalConfirmed || p.EventID != nil {
				return nil
			}
			p.RevertConfirmation(previous, m.now())
			return nil
		})
		if err != nil {
			log.Error("failed to roll back confirmation", sl.Err(err))
		}
		log.Error("confirmation rolled back", sl.Err(cause))
		return cause
	}
	discardEvent := func(eventID uuid.UUID) {
		if err := m.events.Delete(cleanup, eventID); err != nil {
			log.Error("failed to discard event", slog.String("event_id", eventID.String()), sl.Err(err))
		}
	}

	members, err := m.members.list(ctx, confirmed.SpaceID)
	if err != nil {
		return nil, nil, rollback(fmt.Errorf("list members: %w", err))
	}

	event := confirmedEvent(confirmed, date, actorID, members)
	if err := m.events.Create(ctx, event); err != nil {
		return nil, nil, rollback(fmt.Errorf("create event: %w", err))
	}

	notifications := notifyMembers(
		members,
		domain.NotifyProposalConfirmed,
		confirmed.Title,
		fmt.Sprintf("%q is confirmed for %s", confirmed.Title, date),
		event.ID,
		actorID,
	)
	if err := m.notifier.store(ctx, notifications); err != nil {
		discardEvent(event.ID)
		return nil, nil, rollback(fmt.Errorf("create notifications: %w", err))
	}

	eventID := event.ID
	linked, err := m.proposals.Update(ctx, proposalID, func(p *domain.Proposal) error {
		p.EventID = &eventID
		p.UpdatedAt = m.now()
		return nil
	})
	if err != nil {
		if err := m.notifier.removeRelated(cleanup, event.ID); err != nil {
			log.Error("failed to discard notifications", sl.Err(err))
		}
		discardEvent(event.ID)
		return nil, nil, rollback(fmt.Errorf("link event: %w", err))
	}
	log.Info("proposal confirmed", slog.String("event_id", event.ID.String()))

	var exclude []uuid.UUID
	if !auto {
		exclude = append(exclude, actorID)
	}
	fx.add("broadcast proposal_confirmed", func(ctx context.Context) error {
		m.live.PushToSpaceMembers(ctx, linked.SpaceID, live.EventProposalConfirmed, map[string]any{
			"proposalId":     linked.ID,
			"spaceId":        linked.SpaceID,
			"eventId":        event.ID,
			"confirmed_date": date,
			"auto":           auto,
		}, exclude...)
		return nil
	})
	if !auto {
		fx.add("broadcast event_created", func(ctx context.Context) error {
			m.live.PushToSpaceMembers(ctx, event.SpaceID, live.EventEventCreated, eventPayload(event), actorID)
			return nil
		})
	}
	fx.add("deliver notifications", func(ctx context.Context) error {
		m.notifier.deliver(ctx, notifications)
		return nil
	})

	return linked, event, nil
}

// confirmedEvent builds the single-day event of a confirmed proposal. Each
// member's RSVP follows their vote on the date, the owner always accepts.
func confirmedEvent(p *domain.Proposal, date string, ownerID uuid.UUID, members []domain.SpaceMember) *domain.Event {
	event := domain.NewEvent(p.SpaceID, ownerID, p.Title, date, date)
	event.Note = fmt.Sprintf("Confirmed from proposal %q", p.Title)
	proposalID := p.ID
	event.ProposalID = &proposalID

	for _, m := range members {
		status := domain.RSVPPending
		if choice, ok := p.ChoiceOf(date, m.UserID); ok {
			status = domain.RSVPFromChoice(choice)
		}
		if m.UserID == ownerID {
			status = domain.RSVPAccepted
		}
		event.SetParticipant(domain.Participant{UserID: m.UserID, RSVPStatus: status})
	}
	if _, ok := event.Participant(ownerID); !ok {
		event.SetParticipant(domain.Participant{UserID: ownerID, RSVPStatus: domain.RSVPAccepted})
	}
	return event
}
