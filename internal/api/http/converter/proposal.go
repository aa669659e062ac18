package converter

import (
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/internal/domain"
)

type ProposalResponse struct {
	ID           uuid.UUID             `json:"id"`
	SpaceID      uuid.UUID             `json:"space_id"`
	CreatorID    uuid.UUID             `json:"creator_id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Status       domain.ProposalStatus `json:"status"`
	AllowGuests  bool                  `json:"allow_guests"`
	Candidates   []CandidateResponse   `json:"candidates"`
	Participants []domain.Voter        `json:"participants"`
	FinalDate    string                `json:"final_date,omitempty"`
	EventID      *uuid.UUID            `json:"event_id,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// CandidateResponse carries the votes of one date plus per-choice tallies.
type CandidateResponse struct {
	Date   string                `json:"date"`
	Votes  []domain.Vote         `json:"votes"`
	Counts map[domain.Choice]int `json:"counts"`
}

func ProposalToApi(p *domain.Proposal) *ProposalResponse {
	candidates := make([]CandidateResponse, 0, len(p.Candidates))
	for _, c := range p.Candidates {
		counts := map[domain.Choice]int{
			domain.ChoiceAvailable:   0,
			domain.ChoiceMaybe:       0,
			domain.ChoiceUnavailable: 0,
		}
		for _, v := range c.Votes {
			counts[v.Choice]++
		}
		votes := c.Votes
		if votes == nil {
			votes = []domain.Vote{}
		}
		candidates = append(candidates, CandidateResponse{Date: c.Date, Votes: votes, Counts: counts})
	}
	participants := p.Participants
	if participants == nil {
		participants = []domain.Voter{}
	}

	return &ProposalResponse{
		ID:           p.ID,
		SpaceID:      p.SpaceID,
		CreatorID:    p.CreatorID,
		Title:        p.Title,
		Description:  p.Description,
		Status:       p.Status,
		AllowGuests:  p.AllowGuests,
		Candidates:   candidates,
		Participants: participants,
		FinalDate:    p.FinalDate,
		EventID:      p.EventID,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func ProposalsToApi(ps []*domain.Proposal) []*ProposalResponse {
	out := make([]*ProposalResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, ProposalToApi(p))
	}
	return out
}
