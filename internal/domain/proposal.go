package domain

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DateLayout = "2006-01-02"

var (
	ErrVotingClosed     = errors.New("proposal is not open for voting")
	ErrNotConfirmable   = errors.New("proposal can no longer be confirmed")
	ErrUnknownCandidate = errors.New("date is not a candidate of this proposal")
	ErrInvalidChoice    = errors.New("invalid vote choice")
	ErrInvalidDate      = errors.New("invalid date, expected YYYY-MM-DD")
)

type ProposalStatus string

const (
	ProposalActive    ProposalStatus = "active"
	ProposalVoting    ProposalStatus = "voting"
	ProposalConfirmed ProposalStatus = "confirmed"
	ProposalCancelled ProposalStatus = "cancelled"
)

// Open reports whether votes are accepted and confirmation is still possible.
func (s ProposalStatus) Open() bool {
	return s == ProposalActive || s == ProposalVoting
}

type Choice string

const (
	ChoiceAvailable   Choice = "available"
	ChoiceUnavailable Choice = "unavailable"
	ChoiceMaybe       Choice = "maybe"
)

// ParseChoice accepts the three canonical choices plus "if_need_be" as an
// alias for maybe.
func ParseChoice(raw string) (Choice, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ChoiceAvailable):
		return ChoiceAvailable, nil
	case string(ChoiceUnavailable):
		return ChoiceUnavailable, nil
	case string(ChoiceMaybe), "if_need_be":
		return ChoiceMaybe, nil
	}
	return "", ErrInvalidChoice
}

type Vote struct {
	Voter   Voter     `json:"voter"`
	Choice  Choice    `json:"choice"`
	VotedAt time.Time `json:"voted_at"`
}

// Candidate is one date under consideration, with at most one vote per voter.
type Candidate struct {
	Date  string `json:"date"`
	Votes []Vote `json:"votes"`
}

// Proposal is a pending group decision. Candidates keep their creation
// order, which is also the consensus scan order.
type Proposal struct {
	ID           uuid.UUID
	SpaceID      uuid.UUID
	CreatorID    uuid.UUID
	Title        string
	Description  string
	Candidates   []Candidate
	Status       ProposalStatus
	AllowGuests  bool
	Participants []Voter
	FinalDate    string
	EventID      *uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewProposal(spaceID, creatorID uuid.UUID, title, description string, dates []string, allowGuests bool) *Proposal {
	now := time.Now().UTC()
	candidates := make([]Candidate, 0, len(dates))
	for _, d := range dates {
		candidates = append(candidates, Candidate{Date: d, Votes: []Vote{}})
	}
	return &Proposal{
		ID:           uuid.New(),
		SpaceID:      spaceID,
		CreatorID:    creatorID,
		Title:        title,
		Description:  description,
		Candidates:   candidates,
		Status:       ProposalActive,
		AllowGuests:  allowGuests,
		Participants: []Voter{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NormalizeDates validates every date and drops repeats, keeping first
// occurrence order.
func NormalizeDates(dates []string) ([]string, error) {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		d = strings.TrimSpace(d)
		if _, err := time.Parse(DateLayout, d); err != nil {
			return nil, ErrInvalidDate
		}
		if slices.Contains(out, d) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (p *Proposal) candidate(date string) *Candidate {
	for i := range p.Candidates {
		if p.Candidates[i].Date == date {
			return &p.Candidates[i]
		}
	}
	return nil
}

func (p *Proposal) HasCandidate(date string) bool {
	return p.candidate(date) != nil
}

// CastVote upserts the voter's vote on date. A repeat vote by the same voter
// overwrites choice and timestamp in place, so casting the same vote twice
// leaves the ledger as if it was cast once (timestamp aside).
func (p *Proposal) CastVote(voter Voter, date string, choice Choice, at time.Time) error {
	if !p.Status.Open() {
		return ErrVotingClosed
	}
	c := p.candidate(date)
	if c == nil {
		return ErrUnknownCandidate
	}

	replaced := false
	for i := range c.Votes {
		if c.Votes[i].Voter.Same(voter) {
			c.Votes[i].Choice = choice
			c.Votes[i].VotedAt = at
			c.Votes[i].Voter.Name = voter.Name
			replaced = true
			break
		}
	}
	if !replaced {
		c.Votes = append(c.Votes, Vote{Voter: voter, Choice: choice, VotedAt: at})
	}

	p.addParticipant(voter)
	if p.Status == ProposalActive {
		p.Status = ProposalVoting
	}
	p.UpdatedAt = at
	return nil
}

func (p *Proposal) addParticipant(voter Voter) {
	for _, existing := range p.Participants {
		if existing.Same(voter) {
			return
		}
	}
	p.Participants = append(p.Participants, voter)
}

// ChoiceOf returns the member's vote on date, if any.
func (p *Proposal) ChoiceOf(date string, userID uuid.UUID) (Choice, bool) {
	c := p.candidate(date)
	if c == nil {
		return "", false
	}
	for _, v := range c.Votes {
		if !v.Voter.IsGuest() && v.Voter.UserID == userID {
			return v.Choice, true
		}
	}
	return "", false
}

// ConsensusDate scans candidates in stored order and returns the first date
// on which every member voted available. Votes by guests or by users that
// are not in members never make a date win on their own. A candidate with no
// available vote at all never wins, even for an empty roster.
func (p *Proposal) ConsensusDate(members []uuid.UUID) (string, bool) {
	for _, c := range p.Candidates {
		available := make(map[string]struct{}, len(c.Votes))
		for _, v := range c.Votes {
			if v.Choice == ChoiceAvailable {
				available[v.Voter.Key()] = struct{}{}
			}
		}
		if len(available) == 0 || len(available) < len(members) {
			continue
		}

		unanimous := true
		for _, id := range members {
			if _, ok := available[MemberVoter(id, "").Key()]; !ok {
				unanimous = false
				break
			}
		}
		if unanimous {
			return c.Date, true
		}
	}
	return "", false
}

// MarkConfirmed is the guarded status transition of a confirmation. Only an
// open proposal can be confirmed, so of two racing confirmations the second
// one fails.
func (p *Proposal) MarkConfirmed(date string, at time.Time) error {
	if !p.Status.Open() {
		return ErrNotConfirmable
	}
	if !p.HasCandidate(date) {
		return ErrUnknownCandidate
	}
	p.Status = ProposalConfirmed
	p.FinalDate = date
	p.UpdatedAt = at
	return nil
}

// RevertConfirmation undoes MarkConfirmed when the confirmation could not be
// materialized.
func (p *Proposal) RevertConfirmation(previous ProposalStatus, at time.Time) {
	p.Status = previous
	p.FinalDate = ""
	p.EventID = nil
	p.UpdatedAt = at
}

func (p *Proposal) Cancel(at time.Time) error {
	if !p.Status.Open() {
		return ErrNotConfirmable
	}
	p.Status = ProposalCancelled
	p.UpdatedAt = at
	return nil
}

// Clone returns a deep copy so stores never share sub-documents with callers.
func (p *Proposal) Clone() *Proposal {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Candidates = make([]Candidate, len(p.Candidates))
	for i, c := range p.Candidates {
		cp.Candidates[i] = Candidate{Date: c.Date, Votes: slices.Clone(c.Votes)}
		if cp.Candidates[i].Votes == nil {
			cp.Candidates[i].Votes = []Vote{}
		}
	}
	cp.Participants = slices.Clone(p.Participants)
	if cp.Participants == nil {
		cp.Participants = []Voter{}
	}
	if p.EventID != nil {
		id := *p.EventID
		cp.EventID = &id
	}
	return &cp
}
