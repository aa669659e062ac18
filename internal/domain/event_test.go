package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRSVPFromChoice(t *testing.T) {
	assert.Equal(t, RSVPAccepted, RSVPFromChoice(ChoiceAvailable))
	assert.Equal(t, RSVPDeclined, RSVPFromChoice(ChoiceUnavailable))
	assert.Equal(t, RSVPTentative, RSVPFromChoice(ChoiceMaybe))
	assert.Equal(t, RSVPPending, RSVPFromChoice(""))
}

func TestRespondOnlyTouchesOwnRow(t *testing.T) {
	owner, guest := uuid.New(), uuid.New()
	e := NewEvent(uuid.New(), owner, "Dinner", "2026-02-11", "2026-02-11")
	e.SetParticipant(Participant{UserID: owner, RSVPStatus: RSVPAccepted})
	e.SetParticipant(Participant{UserID: guest, RSVPStatus: RSVPPending})

	require.NoError(t, e.Respond(guest, RSVPDeclined, "away", time.Now()))

	p, ok := e.Participant(guest)
	require.True(t, ok)
	assert.Equal(t, RSVPDeclined, p.RSVPStatus)
	assert.Equal(t, "away", p.Comment)

	p, _ = e.Participant(owner)
	assert.Equal(t, RSVPAccepted, p.RSVPStatus)

	assert.ErrorIs(t, e.Respond(uuid.New(), RSVPAccepted, "", time.Now()), ErrNotParticipant)
}

func TestMaskedFor(t *testing.T) {
	owner, viewer := uuid.New(), uuid.New()
	e := NewEvent(uuid.New(), owner, "Doctor", "2026-02-11", "2026-02-11")
	e.Note = "checkup"

	e.Visibility = VisibilityPrivate
	masked := e.MaskedFor(viewer)
	assert.Equal(t, "Busy", masked.Title)
	assert.Empty(t, masked.Note)
	assert.Equal(t, "Doctor", e.MaskedFor(owner).Title)

	e.Visibility = VisibilityStatusOnly
	masked = e.MaskedFor(viewer)
	assert.Equal(t, "Doctor", masked.Title)
	assert.Empty(t, masked.Note)

	e.Visibility = VisibilityPublic
	assert.Equal(t, "checkup", e.MaskedFor(viewer).Note)
}

func TestValidateRange(t *testing.T) {
	assert.NoError(t, ValidateRange("2026-02-10", "2026-02-10"))
	assert.ErrorIs(t, ValidateRange("2026-02-11", "2026-02-10"), ErrInvalidRange)
	assert.ErrorIs(t, ValidateRange("tomorrow", "2026-02-10"), ErrInvalidDate)
}
