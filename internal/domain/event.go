package domain

import (
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidAvailability = errors.New("invalid event status")
	ErrInvalidVisibility   = errors.New("invalid event visibility")
	ErrInvalidRSVP         = errors.New("invalid rsvp status")
	ErrInvalidRange        = errors.New("event end date is before start date")
	ErrNotParticipant      = errors.New("user is not a participant of this event")
)

// Availability is what an event says about its owner's day. It is not the
// lifecycle status of a proposal.
type Availability string

const (
	AvailabilityBusy      Availability = "busy"
	AvailabilityVacation  Availability = "vacation"
	AvailabilityAvailable Availability = "available"
	AvailabilityTentative Availability = "tentative"
)

func ParseAvailability(raw string) (Availability, error) {
	if raw == "" {
		return AvailabilityBusy, nil
	}
	switch a := Availability(raw); a {
	case AvailabilityBusy, AvailabilityVacation, AvailabilityAvailable, AvailabilityTentative:
		return a, nil
	}
	return "", ErrInvalidAvailability
}

type Visibility string

const (
	VisibilityPublic     Visibility = "public"
	VisibilityPrivate    Visibility = "private"
	VisibilityStatusOnly Visibility = "status_only"
)

func ParseVisibility(raw string) (Visibility, error) {
	if raw == "" {
		return VisibilityPublic, nil
	}
	switch v := Visibility(raw); v {
	case VisibilityPublic, VisibilityPrivate, VisibilityStatusOnly:
		return v, nil
	}
	return "", ErrInvalidVisibility
}

type RSVPStatus string

const (
	RSVPPending   RSVPStatus = "pending"
	RSVPAccepted  RSVPStatus = "accepted"
	RSVPDeclined  RSVPStatus = "declined"
	RSVPTentative RSVPStatus = "tentative"
)

func ParseRSVP(raw string) (RSVPStatus, error) {
	switch s := RSVPStatus(raw); s {
	case RSVPPending, RSVPAccepted, RSVPDeclined, RSVPTentative:
		return s, nil
	}
	return "", ErrInvalidRSVP
}

// RSVPFromChoice maps a proposal vote onto an event RSVP.
func RSVPFromChoice(c Choice) RSVPStatus {
	switch c {
	case ChoiceAvailable:
		return RSVPAccepted
	case ChoiceUnavailable:
		return RSVPDeclined
	case ChoiceMaybe:
		return RSVPTentative
	}
	return RSVPPending
}

type Participant struct {
	UserID     uuid.UUID  `json:"user_id"`
	RSVPStatus RSVPStatus `json:"rsvp_status"`
	Comment    string     `json:"comment,omitempty"`
}

// Event is a calendar entry in a space. Dates are inclusive YYYY-MM-DD days.
type Event struct {
	ID           uuid.UUID
	SpaceID      uuid.UUID
	OwnerID      uuid.UUID
	Title        string
	Note         string
	StartDate    string
	EndDate      string
	Status       Availability
	Visibility   Visibility
	Participants []Participant
	ProposalID   *uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewEvent(spaceID, ownerID uuid.UUID, title, startDate, endDate string) *Event {
	now := time.Now().UTC()
	return &Event{
		ID:           uuid.New(),
		SpaceID:      spaceID,
		OwnerID:      ownerID,
		Title:        title,
		StartDate:    startDate,
		EndDate:      endDate,
		Status:       AvailabilityBusy,
		Visibility:   VisibilityPublic,
		Participants: []Participant{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ValidateRange checks both dates and their order.
func ValidateRange(start, end string) error {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return ErrInvalidDate
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return ErrInvalidDate
	}
	if e.Before(s) {
		return ErrInvalidRange
	}
	return nil
}

// SetParticipant inserts or replaces the participant row for p.UserID.
func (e *Event) SetParticipant(p Participant) {
	for i := range e.Participants {
		if e.Participants[i].UserID == p.UserID {
			e.Participants[i] = p
			return
		}
	}
	e.Participants = append(e.Participants, p)
}

func (e *Event) Participant(userID uuid.UUID) (Participant, bool) {
	for _, p := range e.Participants {
		if p.UserID == userID {
			return p, true
		}
	}
	return Participant{}, false
}

// Respond updates only the caller's own participant row.
func (e *Event) Respond(userID uuid.UUID, status RSVPStatus, comment string, at time.Time) error {
	for i := range e.Participants {
		if e.Participants[i].UserID == userID {
			e.Participants[i].RSVPStatus = status
			e.Participants[i].Comment = comment
			e.UpdatedAt = at
			return nil
		}
	}
	return ErrNotParticipant
}

// MaskedFor returns the event as seen by viewer. Owners and public events
// are returned unchanged. Private events hide title and note, status_only
// events hide the note.
func (e *Event) MaskedFor(viewer uuid.UUID) *Event {
	cp := e.Clone()
	if viewer == e.OwnerID {
		return cp
	}
	switch e.Visibility {
	case VisibilityPrivate:
		cp.Title = "Busy"
		cp.Note = ""
	case VisibilityStatusOnly:
		cp.Note = ""
	}
	return cp
}

func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Participants = slices.Clone(e.Participants)
	if cp.Participants == nil {
		cp.Participants = []Participant{}
	}
	if e.ProposalID != nil {
		id := *e.ProposalID
		cp.ProposalID = &id
	}
	return &cp
}
