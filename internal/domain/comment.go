package domain

import (
	"time"

	"github.com/google/uuid"
)

type RelatedType string

const (
	RelatedProposal RelatedType = "proposal"
	RelatedEvent    RelatedType = "event"
)

// Comment is a discussion message attached to a proposal or an event.
type Comment struct {
	ID          uuid.UUID   `json:"id"`
	SpaceID     uuid.UUID   `json:"space_id"`
	RelatedType RelatedType `json:"related_type"`
	RelatedID   uuid.UUID   `json:"related_id"`
	UserID      uuid.UUID   `json:"user_id"`
	AuthorName  string      `json:"author_name"`
	Body        string      `json:"body"`
	CreatedAt   time.Time   `json:"created_at"`
}

func NewComment(spaceID uuid.UUID, relatedType RelatedType, relatedID uuid.UUID, author *User, body string) *Comment {
	c := &Comment{
		ID:          uuid.New(),
		SpaceID:     spaceID,
		RelatedType: relatedType,
		RelatedID:   relatedID,
		Body:        body,
		CreatedAt:   time.Now().UTC(),
	}
	if author != nil {
		c.UserID = author.ID
		c.AuthorName = author.Name
	}
	return c
}
