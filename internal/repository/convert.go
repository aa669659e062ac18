package repository

import (
	"time"

	"github.com/immxrtalbeast/huddle/internal/domain"
	"github.com/immxrtalbeast/huddle/internal/repository/model"
	"gorm.io/datatypes"
)

func toModelUser(user *domain.User) *model.User {
	return &model.User{
		ID:        user.ID,
		Name:      user.Name,
		Color:     user.Color,
		Token:     user.Token,
		CreatedAt: user.CreatedAt.UTC(),
		UpdatedAt: user.UpdatedAt.UTC(),
	}
}

func toDomainUser(user *model.User) *domain.User {
	return &domain.User{
		ID:        user.ID,
		Name:      user.Name,
		Color:     user.Color,
		Token:     user.Token,
		CreatedAt: user.CreatedAt.UTC(),
		UpdatedAt: user.UpdatedAt.UTC(),
	}
}

func toModelSpace(space *domain.Space) *model.Space {
	return &model.Space{
		ID:         space.ID,
		Name:       space.Name,
		InviteCode: space.InviteCode,
		OwnerID:    space.OwnerID,
		CreatedAt:  space.CreatedAt.UTC(),
	}
}

func toDomainSpace(space *model.Space) *domain.Space {
	return &domain.Space{
		ID:         space.ID,
		Name:       space.Name,
		InviteCode: space.InviteCode,
		OwnerID:    space.OwnerID,
		CreatedAt:  space.CreatedAt.UTC(),
	}
}

func toDomainMember(row *model.SpaceMember) domain.SpaceMember {
	return domain.SpaceMember{
		SpaceID:  row.SpaceID,
		UserID:   row.UserID,
		Role:     domain.MemberRole(row.Role),
		Name:     row.User.Name,
		Color:    row.User.Color,
		JoinedAt: row.JoinedAt.UTC(),
	}
}

func toModelVoter(v domain.Voter) model.Voter {
	return model.Voter{Kind: string(v.Kind), UserID: v.UserID, Name: v.Name}
}

func toDomainVoter(v model.Voter) domain.Voter {
	kind := domain.VoterKind(v.Kind)
	if kind == "" {
		kind = domain.VoterMember
	}
	return domain.Voter{Kind: kind, UserID: v.UserID, Name: v.Name}
}

func toModelProposal(p *domain.Proposal) *model.Proposal {
	candidates := make([]model.Candidate, 0, len(p.Candidates))
	for _, c := range p.Candidates {
		votes := make([]model.Vote, 0, len(c.Votes))
		for _, v := range c.Votes {
			votes = append(votes, model.Vote{
				Voter:   toModelVoter(v.Voter),
				Choice:  string(v.Choice),
				VotedAt: v.VotedAt.UTC(),
			})
		}
		candidates = append(candidates, model.Candidate{Date: c.Date, Votes: votes})
	}

	participants := make([]model.Voter, 0, len(p.Participants))
	for _, v := range p.Participants {
		participants = append(participants, toModelVoter(v))
	}

	var finalDate *string
	if p.FinalDate != "" {
		d := p.FinalDate
		finalDate = &d
	}

	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	return &model.Proposal{
		ID:           p.ID,
		SpaceID:      p.SpaceID,
		CreatorID:    p.CreatorID,
		Title:        p.Title,
		Description:  p.Description,
		Candidates:   datatypes.NewJSONType(candidates),
		Participants: datatypes.NewJSONType(participants),
		Status:       string(p.Status),
		AllowGuests:  p.AllowGuests,
		FinalDate:    finalDate,
		EventID:      p.EventID,
		CreatedAt:    p.CreatedAt.UTC(),
		UpdatedAt:    updatedAt.UTC(),
	}
}

func toDomainProposal(row *model.Proposal) *domain.Proposal {
	stored := row.Candidates.Data()
	candidates := make([]domain.Candidate, 0, len(stored))
	for _, c := range stored {
		votes := make([]domain.Vote, 0, len(c.Votes))
		for _, v := range c.Votes {
			votes = append(votes, domain.Vote{
				Voter:   toDomainVoter(v.Voter),
				Choice:  domain.Choice(v.Choice),
				VotedAt: v.VotedAt.UTC(),
			})
		}
		candidates = append(candidates, domain.Candidate{Date: c.Date, Votes: votes})
	}

	storedParticipants := row.Participants.Data()
	participants := make([]domain.Voter, 0, len(storedParticipants))
	for _, v := range storedParticipants {
		participants = append(participants, toDomainVoter(v))
	}

	p := &domain.Proposal{
		ID:           row.ID,
		SpaceID:      row.SpaceID,
		CreatorID:    row.CreatorID,
		Title:        row.Title,
		Description:  row.Description,
		Candidates:   candidates,
		Status:       domain.ProposalStatus(row.Status),
		AllowGuests:  row.AllowGuests,
		Participants: participants,
		EventID:      row.EventID,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if row.FinalDate != nil {
		p.FinalDate = *row.FinalDate
	}
	return p
}

func toModelEvent(e *domain.Event) *model.Event {
	participants := make([]model.Participant, 0, len(e.Participants))
	for _, p := range e.Participants {
		participants = append(participants, model.Participant{
			UserID:     p.UserID,
			RSVPStatus: string(p.RSVPStatus),
			Comment:    p.Comment,
		})
	}

	return &model.Event{
		ID:           e.ID,
		SpaceID:      e.SpaceID,
		OwnerID:      e.OwnerID,
		Title:        e.Title,
		Note:         e.Note,
		StartDate:    e.StartDate,
		EndDate:      e.EndDate,
		Status:       string(e.Status),
		Visibility:   string(e.Visibility),
		Participants: datatypes.NewJSONType(participants),
		ProposalID:   e.ProposalID,
		CreatedAt:    e.CreatedAt.UTC(),
		UpdatedAt:    e.UpdatedAt.UTC(),
	}
}

func toDomainEvent(row *model.Event) *domain.Event {
	stored := row.Participants.Data()
	participants := make([]domain.Participant, 0, len(stored))
	for _, p := range stored {
		participants = append(participants, domain.Participant{
			UserID:     p.UserID,
			RSVPStatus: domain.RSVPStatus(p.RSVPStatus),
			Comment:    p.Comment,
		})
	}

	return &domain.Event{
		ID:           row.ID,
		SpaceID:      row.SpaceID,
		OwnerID:      row.OwnerID,
		Title:        row.Title,
		Note:         row.Note,
		StartDate:    row.StartDate,
		EndDate:      row.EndDate,
		Status:       domain.Availability(row.Status),
		Visibility:   domain.Visibility(row.Visibility),
		Participants: participants,
		ProposalID:   row.ProposalID,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

func toModelNotification(n *domain.Notification) *model.Notification {
	return &model.Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      string(n.Type),
		Title:     n.Title,
		Body:      n.Body,
		RelatedID: n.RelatedID,
		Read:      n.Read,
		CreatedAt: n.CreatedAt.UTC(),
	}
}

func toDomainNotification(row *model.Notification) *domain.Notification {
	return &domain.Notification{
		ID:        row.ID,
		UserID:    row.UserID,
		Type:      domain.NotificationType(row.Type),
		Title:     row.Title,
		Body:      row.Body,
		RelatedID: row.RelatedID,
		Read:      row.Read,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

func toModelComment(c *domain.Comment) *model.Comment {
	return &model.Comment{
		ID:          c.ID,
		SpaceID:     c.SpaceID,
		RelatedType: string(c.RelatedType),
		RelatedID:   c.RelatedID,
		UserID:      c.UserID,
		AuthorName:  c.AuthorName,
		Body:        c.Body,
		CreatedAt:   c.CreatedAt.UTC(),
	}
}

func toDomainComment(row *model.Comment) *domain.Comment {
	return &domain.Comment{
		ID:          row.ID,
		SpaceID:     row.SpaceID,
		RelatedType: domain.RelatedType(row.RelatedType),
		RelatedID:   row.RelatedID,
		UserID:      row.UserID,
		AuthorName:  row.AuthorName,
		Body:        row.Body,
		CreatedAt:   row.CreatedAt.UTC(),
	}
}
