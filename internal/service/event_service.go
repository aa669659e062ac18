package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ical "github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/internal/domain"
	"github.com/immxrtalbeast/huddle/internal/live"
	"github.com/immxrtalbeast/huddle/internal/repository"
	"github.com/immxrtalbeast/huddle/lib/logger/sl"
)

const (
	maxNoteLength    = 2000
	maxRSVPComment   = 500
	maxEventDuration = 366
)

type EventInput struct {
	Title          string
	Note           string
	StartDate      string
	EndDate        string
	Status         string
	Visibility     string
	ParticipantIDs []uuid.UUID
}

// EventPatch is a partial update. Nil fields are left as they are, a non
// nil ParticipantIDs replaces the roster.
type EventPatch struct {
	Title          *string
	Note           *string
	StartDate      *string
	EndDate        *string
	Status         *string
	Visibility     *string
	ParticipantIDs *[]uuid.UUID
}

type EventService struct {
	events   repository.EventRepository
	comments repository.CommentRepository
	spaces   repository.SpaceRepository
	members  membership
	live     Broadcaster
	notifier *NotificationService
	effects  *effectRunner
	log      *slog.Logger
	now      func() time.Time
}

func NewEventService(
	log *slog.Logger,
	store *repository.Store,
	members membership,
	live Broadcaster,
	notifier *NotificationService,
	effects *effectRunner,
) *EventService {
	return &EventService{
		events:   store.Events,
		comments: store.Comments,
		spaces:   store.Spaces,
		members:  members,
		live:     live,
		notifier: notifier,
		effects:  effects,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *EventService) CreateEvent(ctx context.Context, actor *domain.User, spaceID uuid.UUID, in EventInput) (*domain.Event, error) {
	const op = "service.event.create"
	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", actor.ID.String()),
		slog.String("space_id", spaceID.String()),
	)

	title, err := validTitle(in.Title)
	if err != nil {
		return nil, err
	}
	start, end := strings.TrimSpace(in.StartDate), strings.TrimSpace(in.EndDate)
	if end == "" {
		end = start
	}
	if err := validRange(start, end); err != nil {
		return nil, err
	}
	status, err := domain.ParseAvailability(in.Status)
	if err != nil {
		return nil, translate(err)
	}
	visibility, err := domain.ParseVisibility(in.Visibility)
	if err != nil {
		return nil, translate(err)
	}
	note := strings.TrimSpace(in.Note)
	if len([]rune(note)) > maxNoteLength {
		return nil, validationf("note is longer than %d characters", maxNoteLength)
	}

	if _, err := s.members.require(ctx, spaceID, actor.ID); err != nil {
		return nil, err
	}
	if len(in.ParticipantIDs) > 0 {
		members, err := s.members.list(ctx, spaceID)
		if err != nil {
			return nil, err
		}
		if err := checkParticipants(members, in.ParticipantIDs); err != nil {
			return nil, err
		}
	}

	event := domain.NewEvent(spaceID, actor.ID, title, start, end)
	event.Note = note
	event.Status = status
	event.Visibility = visibility
	event.Participants = roster(nil, actor.ID, in.ParticipantIDs)

	if err := s.events.Create(ctx, event); err != nil {
		log.Error("failed to create event", sl.Err(err))
		return nil, err
	}
	log.Info("event created", slog.String("event_id", event.ID.String()))

	fx := newSideEffects(op)
	fx.add("broadcast event_created", func(ctx context.Context) error {
		s.live.PushToSpaceMembers(ctx, spaceID, live.EventEventCreated, eventPayload(event), actor.ID)
		return nil
	})
	s.queueInvites(fx, actor, event, invitees(nil, event))
	s.effects.flush(ctx, fx)

	return event, nil
}

// GetEvent returns the event as the actor is allowed to see it.
func (s *EventService) GetEvent(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if _, err := s.members.require(ctx, event.SpaceID, actor.ID); err != nil {
		return nil, err
	}
	return event.MaskedFor(actor.ID), nil
}

func (s *EventService) UpdateEvent(ctx context.Context, actor *domain.User, id uuid.UUID, patch EventPatch) (*domain.Event, error) {
	const op = "service.event.update"
	log := s.log.With(slog.String("op", op), slog.String("event_id", id.String()))

	current, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if _, err := s.members.require(ctx, current.SpaceID, actor.ID); err != nil {
		return nil, err
	}
	if current.OwnerID != actor.ID {
		return nil, ErrNotOwner
	}

	var (
		title      string
		status     domain.Availability
		visibility domain.Visibility
	)
	if patch.Title != nil {
		if title, err = validTitle(*patch.Title); err != nil {
			return nil, err
		}
	}
	if patch.Note != nil && len([]rune(strings.TrimSpace(*patch.Note))) > maxNoteLength {
		return nil, validationf("note is longer than %d characters", maxNoteLength)
	}
	if patch.Status != nil {
		if status, err = domain.ParseAvailability(*patch.Status); err != nil {
			return nil, translate(err)
		}
	}
	if patch.Visibility != nil {
		if visibility, err = domain.ParseVisibility(*patch.Visibility); err != nil {
			return nil, translate(err)
		}
	}
	if patch.ParticipantIDs != nil {
		members, err := s.members.list(ctx, current.SpaceID)
		if err != nil {
			return nil, err
		}
		if err := checkParticipants(members, *patch.ParticipantIDs); err != nil {
			return nil, err
		}
	}

	var previous *domain.Event
	updated, err := s.events.Update(ctx, id, func(e *domain.Event) error {
		previous = e.Clone()
		if patch.Title != nil {
			e.Title = title
		}
		if patch.Note != nil {
			e.Note = strings.TrimSpace(*patch.Note)
		}
		if patch.StartDate != nil {
			e.StartDate = strings.TrimSpace(*patch.StartDate)
		}
		if patch.EndDate != nil {
			e.EndDate = strings.TrimSpace(*patch.EndDate)
		}
		if err := validRange(e.StartDate, e.EndDate); err != nil {
			return err
		}
		if patch.Status != nil {
			e.Status = status
		}
		if patch.Visibility != nil {
			e.Visibility = visibility
		}
		if patch.ParticipantIDs != nil {
			e.Participants = roster(e.Participants, e.OwnerID, *patch.ParticipantIDs)
		}
		e.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	log.Info("event updated")

	fx := newSideEffects(op)
	fx.add("broadcast event_updated", func(ctx context.Context) error {
		s.live.PushToSpaceMembers(ctx, updated.SpaceID, live.EventEventUpdated, eventPayload(updated), actor.ID)
		return nil
	})
	s.queueInvites(fx, actor, updated, invitees(previous, updated))
	s.effects.flush(ctx, fx)

	return updated, nil
}

// DeleteEvent removes the event with its notifications and comments.
func (s *EventService) DeleteEvent(ctx context.Context, actor *domain.User, id uuid.UUID) error {
	const op = "service.event.delete"
	log := s.log.With(slog.String("op", op), slog.String("event_id", id.String()))

	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return translate(err)
	}
	if event.OwnerID != actor.ID {
		return ErrNotOwner
	}

	if err := s.events.Delete(ctx, id); err != nil {
		return translate(err)
	}
	// The event is gone at this point. A failed cascade leaves orphans
	// behind but does not undo the delete.
	if err := s.notifier.removeRelated(ctx, id); err != nil {
		log.Error("failed to delete event notifications", sl.Err(err))
	}
	if err := s.comments.DeleteByRelated(ctx, id); err != nil {
		log.Error("failed to delete event comments", sl.Err(err))
	}
	log.Info("event deleted")

	fx := newSideEffects(op)
	fx.add("broadcast event_deleted", func(ctx context.Context) error {
		s.live.PushToSpaceMembers(ctx, event.SpaceID, live.EventEventDeleted, map[string]any{
			"eventId": event.ID,
			"spaceId": event.SpaceID,
		}, actor.ID)
		return nil
	})
	s.effects.flush(ctx, fx)

	return nil
}

// RespondEvent sets the actor's own RSVP. Only participants can respond.
func (s *EventService) RespondEvent(ctx context.Context, actor *domain.User, id uuid.UUID, rsvp, comment string) (*domain.Event, error) {
	const op = "service.event.respond"
	log := s.log.With(
		slog.String("op", op),
		slog.String("event_id", id.String()),
		slog.String("user_id", actor.ID.String()),
	)

	status, err := domain.ParseRSVP(strings.TrimSpace(rsvp))
	if err != nil {
		return nil, translate(err)
	}
	comment = strings.TrimSpace(comment)
	if len([]rune(comment)) > maxRSVPComment {
		return nil, validationf("comment is longer than %d characters", maxRSVPComment)
	}

	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if _, err := s.members.require(ctx, event.SpaceID, actor.ID); err != nil {
		return nil, err
	}

	updated, err := s.events.Update(ctx, id, func(e *domain.Event) error {
		return e.Respond(actor.ID, status, comment, s.now())
	})
	if err != nil {
		return nil, translate(err)
	}
	log.Info("rsvp recorded", slog.String("rsvp", string(status)))

	fx := newSideEffects(op)
	fx.add("broadcast event_updated", func(ctx context.Context) error {
		s.live.PushToSpaceMembers(ctx, updated.SpaceID, live.EventEventUpdated, map[string]any{
			"eventId":    updated.ID,
			"spaceId":    updated.SpaceID,
			"userId":     actor.ID,
			"rsvpStatus": status,
		}, actor.ID)
		return nil
	})
	if updated.OwnerID != actor.ID {
		fx.add("notify owner", func(ctx context.Context) error {
			n := domain.NewNotification(
				updated.OwnerID,
				domain.NotifyEventResponded,
				updated.Title,
				fmt.Sprintf("%s responded %s", actor.Name, status),
				updated.ID,
			)
			return s.notifier.publish(ctx, []*domain.Notification{n})
		})
	}
	s.effects.flush(ctx, fx)

	return updated.MaskedFor(actor.ID), nil
}

// ListEvents returns the space calendar between from and to (inclusive,
// either may be empty), masked for the actor.
func (s *EventService) ListEvents(ctx context.Context, actor *domain.User, spaceID uuid.UUID, from, to string) ([]*domain.Event, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(domain.DateLayout, d); err != nil {
			return nil, translate(domain.ErrInvalidDate)
		}
	}
	if from != "" && to != "" && to < from {
		return nil, translate(domain.ErrInvalidRange)
	}

	if _, err := s.members.require(ctx, spaceID, actor.ID); err != nil {
		return nil, err
	}

	events, err := s.events.ListBySpace(ctx, spaceID, from, to)
	if err != nil {
		return nil, err
	}
	result := make([]*domain.Event, 0, len(events))
	for _, e := range events {
		result = append(result, e.MaskedFor(actor.ID))
	}
	return result, nil
}

// ExportCalendar renders the actor's view of the space calendar.
func (s *EventService) ExportCalendar(ctx context.Context, actor *domain.User, spaceID uuid.UUID) (*ical.Calendar, error) {
	events, err := s.ListEvents(ctx, actor, spaceID, "", "")
	if err != nil {
		return nil, err
	}
	space, err := s.spaces.GetByID(ctx, spaceID)
	if err != nil {
		return nil, translate(err)
	}
	return newCalendar(space.Name, events, s.now()), nil
}

func (s *EventService) queueInvites(fx *sideEffects, actor *domain.User, event *domain.Event, invited []uuid.UUID) {
	if len(invited) == 0 {
		return
	}
	fx.add("notify invitees", func(ctx context.Context) error {
		notifications := make([]*domain.Notification, 0, len(invited))
		for _, id := range invited {
			seen := event.MaskedFor(id)
			notifications = append(notifications, domain.NewNotification(
				id,
				domain.NotifyEventInvited,
				seen.Title,
				fmt.Sprintf("%s invited you (%s - %s)", actor.Name, event.StartDate, event.EndDate),
				event.ID,
			))
		}
		return s.notifier.publish(ctx, notifications)
	})
}

func eventPayload(e *domain.Event) map[string]any {
	payload := map[string]any{
		"eventId":   e.ID,
		"spaceId":   e.SpaceID,
		"ownerId":   e.OwnerID,
		"startDate": e.StartDate,
		"endDate":   e.EndDate,
		"status":    e.Status,
	}
	if e.ProposalID != nil {
		payload["proposalId"] = *e.ProposalID
	}
	return payload
}

func validTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", validationf("title is required")
	}
	if len([]rune(title)) > maxTitleLength {
		return "", validationf("title is longer than %d characters", maxTitleLength)
	}
	return title, nil
}

func validRange(start, end string) error {
	if err := domain.ValidateRange(start, end); err != nil {
		return translate(err)
	}
	s, _ := time.Parse(domain.DateLayout, start)
	e, _ := time.Parse(domain.DateLayout, end)
	if e.Sub(s) > maxEventDuration*24*time.Hour {
		return validationf("events can span at most %d days", maxEventDuration)
	}
	return nil
}

func checkParticipants(members []domain.SpaceMember, ids []uuid.UUID) error {
	known := make(map[uuid.UUID]struct{}, len(members))
	for _, m := range members {
		known[m.UserID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return validationf("user %s is not a member of this space", id)
		}
	}
	return nil
}

// roster rebuilds the participant list for ids. Existing rows keep their
// RSVP, new rows start pending, the owner is always present.
func roster(existing []domain.Participant, ownerID uuid.UUID, ids []uuid.UUID) []domain.Participant {
	byID := make(map[uuid.UUID]domain.Participant, len(existing))
	for _, p := range existing {
		byID[p.UserID] = p
	}

	owner, ok := byID[ownerID]
	if !ok {
		owner = domain.Participant{UserID: ownerID, RSVPStatus: domain.RSVPAccepted}
	}
	result := []domain.Participant{owner}
	seen := map[uuid.UUID]struct{}{ownerID: {}}

	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		p, ok := byID[id]
		if !ok {
			p = domain.Participant{UserID: id, RSVPStatus: domain.RSVPPending}
		}
		result = append(result, p)
	}
	return result
}

// invitees lists participants of next that were not participants of prev.
// The owner is never invited.
func invitees(prev, next *domain.Event) []uuid.UUID {
	var result []uuid.UUID
	for _, p := range next.Participants {
		if p.UserID == next.OwnerID {
			continue
		}
		if prev != nil {
			if _, ok := prev.Participant(p.UserID); ok {
				continue
			}
		}
		result = append(result, p.UserID)
	}
	return result
}
