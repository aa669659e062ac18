package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	ical "github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/internal/domain"
	"github.com/immxrtalbeast/huddle/internal/live"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreateEventInvitesParticipants(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice, bob, carol := h.user(t, "alice"), h.user(t, "bob"), h.user(t, "carol")
	space := h.space(t, alice, bob)
	bobConn := h.connect(bob)

	_, err := h.svc.Events.CreateEvent(ctx, alice, space.ID, EventInput{
		Title:          "Offsite",
		StartDate:      "2026-03-01",
		ParticipantIDs: []uuid.UUID{carol.ID},
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = h.svc.Events.CreateEvent(ctx, alice, space.ID, EventInput{
		Title:     "Offsite",
		StartDate: "2026-03-02",
		EndDate:   "2026-03-01",
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = h.svc.Events.CreateEvent(ctx, alice, space.ID, EventInput{
		Title:     "Offsite",
		StartDate: "2026-03-01",
		Status:    "asleep",
	})
	require.ErrorIs(t, err, ErrValidation)

	event, err := h.svc.Events.CreateEvent(ctx, alice, space.ID, EventInput{
		Title:          "Offsite",
		StartDate:      "2026-03-01",
		ParticipantIDs: []uuid.UUID{bob.ID, alice.ID, bob.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", event.EndDate)
	assert.Equal(t, domain.AvailabilityBusy, event.Status)
	assert.Equal(t, domain.VisibilityPublic, event.Visibility)
	assert.Equal(t, []domain.Participant{
		{UserID: alice.ID, RSVPStatus: domain.RSVPAccepted},
		{UserID: bob.ID, RSVPStatus: domain.RSVPPending},
	}, event.Participants)

	assert.Equal(t, []string{live.EventEventCreated, live.EventNotification}, types(h.frames(bobConn)))

	notes, err := h.svc.Notifications.ListNotifications(ctx, bob, true, 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, domain.NotifyEventInvited, notes[0].Type)
	assert.Equal(t, event.ID, notes[0].RelatedID)
}

func TestRespondEventIsPerParticipant(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice, bob, carol := h.user(t, "alice"), h.user(t, "bob"), h.user(t, "carol")
	space := h.space(t, alice, bob, carol)

	event, err := h.svc.Events.CreateEvent(ctx, alice, space.ID, EventInput{
		Title:          "Dinner",
		StartDate:      "2026-02-10",
		ParticipantIDs: []uuid.UUID{bob.ID},
	})
	require.NoError(t, err)
	h.svc.Wait()
	aliceConn := h.connect(alice)

	_, err = h.svc.Events.RespondEvent(ctx, carol, event.ID, "accepted", "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = h.svc.Events.RespondEvent(ctx, bob, event.ID, "maybe", "")
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := h.svc.Events.RespondEvent(ctx, bob, event.ID, "declined", "out of town")
	require.NoError(t, err)
	p, ok := updated.Participant(bob.ID)
	require.True(t, ok)
	assert.Equal(t, domain.RSVPDeclined, p.RSVPStatus)
	assert.Equal(t, "out of town", p.Comment)
	owner, _ := updated.Participant(alice.ID)
	assert.Equal(t, domain.RSVPAccepted, owner.RSVPStatus)

	frames := h.frames(aliceConn)
	assert.Equal(t, []string{live.EventEventUpdated, live.EventNotification}, types(frames))
	assert.Equal(t, domain.RSVPDeclined, frames[0].Data.(map[string]any)["rsvpStatus"])
}

func TestUpdateEventIsOwnerOnly(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice, bob, carol := h.user(t, "alice"), h.user(t, "bob"), h.user(t, "carol")
	space := h.space(t, alice, bob, carol)

	event, err := h.svc.Events.CreateEvent(ctx, alice, space.ID, EventInput{
		Title:          "Dinner",
		StartDate:      "2026-02-10",
		ParticipantIDs: []uuid.UUID{bob.ID},
	})
	require.NoError(t, err)
	_, err = h.svc.Events.RespondEvent(ctx, bob, event.ID, "accepted", "")
	require.NoError(t, err)
	h.svc.Wait()

	_, err = h.svc.Events.UpdateEvent(ctx, bob, event.ID, EventPatch{Title: strPtr("Mine now")})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = h.svc.Events.UpdateEvent(ctx, alice, event.ID, EventPatch{EndDate: strPtr("2026-02-01")})
	assert.ErrorIs(t, err, ErrValidation)

	carolConn := h.connect(carol)
	ids := []uuid.UUID{bob.ID, carol.ID}
	updated, err := h.svc.Events.UpdateEvent(ctx, alice, event.ID, EventPatch{
		Title:          strPtr("Late dinner"),
		EndDate:        strPtr("2026-02-11"),
		Visibility:     strPtr("private"),
		ParticipantIDs: &ids,
	})
	require.NoError(t, err)
	assert.Equal(t, "Late dinner", updated.Title)
	assert.Equal(t, "2026-02-10", updated.StartDate)
	assert.Equal(t, "2026-02-11", updated.EndDate)
	assert.Equal(t, domain.VisibilityPrivate, updated.Visibility)
	assert.Equal(t, []domain.Participant{
		{UserID: alice.ID, RSVPStatus: domain.RSVPAccepted},
		{UserID: bob.ID, RSVPStatus: domain.RSVPAccepted},
		{UserID: carol.ID, RSVPStatus: domain.RSVPPending},
	}, updated.Participants)

	assert.Equal(t, []string{live.EventEventUpdated, live.EventNotification}, types(h.frames(carolConn)))

	bobNotes, err := h.svc.Notifications.ListNotifications(ctx, bob, false, 0)
	require.NoError(t, err)
	assert.Len(t, bobNotes, 1, "bob was already invited")
}

func TestListEventsMasksByVisibility(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice, bob, mallory := h.user(t, "alice"), h.user(t, "bob"), h.user(t, "mallory")
	space := h.space(t, alice, bob)

	for _, in := range []EventInput{
		{Title: "Doctor", Note: "dentist", StartDate: "2026-02-01", Visibility: "private"},
		{Title: "Vacation", Note: "Spain", StartDate: "2026-02-05", EndDate: "2026-02-09", Status: "vacation", Visibility: "status_only"},
		{Title: "Party", Note: "bring snacks", StartDate: "2026-03-01"},
	} {
		_, err := h.svc.Events.CreateEvent(ctx, alice, space.ID, in)
		require.NoError(t, err)
	}

	own, err := h.svc.Events.ListEvents(ctx, alice, space.ID, "", "")
	require.NoError(t, err)
	require.Len(t, own, 3)
	assert.Equal(t, "Doctor", own[0].Title)
	assert.Equal(t, "dentist", own[0].Note)

	seen, err := h.svc.Events.ListEvents(ctx, bob, space.ID, "2026-01-01", "2026-02-28")
	require.NoError(t, err)
	require.Len(t, seen, 2)
	assert.Equal(t, "Busy", seen[0].Title)
	assert.Empty(t, seen[0].Note)
	assert.Equal(t, "Vacation", seen[1].Title)
	assert.Empty(t, seen[1].Note)
	assert.Equal(t, domain.AvailabilityVacation, seen[1].Status)

	_, err = h.svc.Events.ListEvents(ctx, bob, space.ID, "2026-03-01", "2026-02-01")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = h.svc.Events.ListEvents(ctx, bob, space.ID, "March", "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = h.svc.Events.ListEvents(ctx, mallory, space.ID, "", "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDeleteEventCascades(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice, bob := h.user(t, "alice"), h.user(t, "bob")
	space := h.space(t, alice, bob)

	event, err := h.svc.Events.CreateEvent(ctx, alice, space.ID, EventInput{
		Title:          "Dinner",
		StartDate:      "2026-02-10",
		ParticipantIDs: []uuid.UUID{bob.ID},
	})
	require.NoError(t, err)
	_, err = h.svc.Comments.AddComment(ctx, bob, "event", event.ID, "see you there")
	require.NoError(t, err)
	h.svc.Wait()

	assert.ErrorIs(t, h.svc.Events.DeleteEvent(ctx, bob, event.ID), ErrForbidden)

	bobConn := h.connect(bob)
	require.NoError(t, h.svc.Events.DeleteEvent(ctx, alice, event.ID))
	assert.Equal(t, []string{live.EventEventDeleted}, types(h.frames(bobConn)))

	_, err = h.svc.Events.GetEvent(ctx, alice, event.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	for _, u := range []*domain.User{alice, bob} {
		notes, err := h.store.Notifications.ListForUser(ctx, u.ID, false, 0)
		require.NoError(t, err)
		assert.Empty(t, notes)
	}
	comments, err := h.store.Comments.ListByRelated(ctx, event.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestExportCalendar(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice, bob := h.user(t, "alice"), h.user(t, "bob")
	space := h.space(t, alice, bob)

	_, err := h.svc.Events.CreateEvent(ctx, alice, space.ID, EventInput{
		Title:      "Doctor",
		StartDate:  "2026-02-10",
		EndDate:    "2026-02-11",
		Visibility: "private",
	})
	require.NoError(t, err)

	cal, err := h.svc.Events.ExportCalendar(ctx, bob, space.ID)
	require.NoError(t, err)
	require.Len(t, cal.Events(), 1)

	var buf bytes.Buffer
	require.NoError(t, ical.NewEncoder(&buf).Encode(cal))
	out := buf.String()
	assert.Contains(t, out, "SUMMARY:Busy")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20260210")
	assert.Contains(t, out, "DTEND;VALUE=DATE:20260212")
	assert.Contains(t, out, "CLASS:PRIVATE")
	assert.Contains(t, out, "X-WR-CALNAME:Friends")
	assert.NotContains(t, out, "X-WR-CALNAME;VALUE=TEXT")
}

func TestDeleteEventBroadcastsEvenWhenCascadeFails(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, withStuckCascade(errors.New("statement timeout")))
	alice, bob := h.user(t, "alice"), h.user(t, "bob")
	space := h.space(t, alice, bob)

	event, err := h.svc.Events.CreateEvent(ctx, alice, space.ID, EventInput{
		Title:     "Dinner",
		StartDate: "2026-02-10",
	})
	require.NoError(t, err)
	h.svc.Wait()
	bobConn := h.connect(bob)

	require.NoError(t, h.svc.Events.DeleteEvent(ctx, alice, event.ID))

	_, err = h.svc.Events.GetEvent(ctx, alice, event.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []string{live.EventEventDeleted}, types(h.frames(bobConn)))
}

func TestInvitesToPrivateEventsHideTheTitle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice, bob := h.user(t, "alice"), h.user(t, "bob")
	space := h.space(t, alice, bob)

	_, err := h.svc.Events.CreateEvent(ctx, alice, space.ID, EventInput{
		Title:          "Therapy",
		StartDate:      "2026-02-10",
		Visibility:     "private",
		ParticipantIDs: []uuid.UUID{bob.ID},
	})
	require.NoError(t, err)
	h.svc.Wait()

	notes, err := h.svc.Notifications.ListNotifications(ctx, bob, false, 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, domain.NotifyEventInvited, notes[0].Type)
	assert.Equal(t, "Busy", notes[0].Title)
	assert.NotContains(t, notes[0].Body, "Therapy")
}
