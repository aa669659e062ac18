package converter

import (
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/internal/domain"
)

type EventResponse struct {
	ID           uuid.UUID            `json:"id"`
	SpaceID      uuid.UUID            `json:"space_id"`
	OwnerID      uuid.UUID            `json:"owner_id"`
	Title        string               `json:"title"`
	Note         string               `json:"note"`
	StartDate    string               `json:"start_date"`
	EndDate      string               `json:"end_date"`
	Status       domain.Availability  `json:"status"`
	Visibility   domain.Visibility    `json:"visibility"`
	Participants []domain.Participant `json:"participants"`
	ProposalID   *uuid.UUID           `json:"proposal_id,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

func EventToApi(e *domain.Event) *EventResponse {
	participants := e.Participants
	if participants == nil {
		participants = []domain.Participant{}
	}
	return &EventResponse{
		ID:           e.ID,
		SpaceID:      e.SpaceID,
		OwnerID:      e.OwnerID,
		Title:        e.Title,
		Note:         e.Note,
		StartDate:    e.StartDate,
		EndDate:      e.EndDate,
		Status:       e.Status,
		Visibility:   e.Visibility,
		Participants: participants,
		ProposalID:   e.ProposalID,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func EventsToApi(es []*domain.Event) []*EventResponse {
	out := make([]*EventResponse, 0, len(es))
	for _, e := range es {
		out = append(out, EventToApi(e))
	}
	return out
}
