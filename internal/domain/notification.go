package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotifyProposalCreated   NotificationType = "proposal_created"
	NotifyProposalVoted     NotificationType = "proposal_voted"
	NotifyProposalConfirmed NotificationType = "proposal_confirmed"
	NotifyEventInvited      NotificationType = "event_invited"
	NotifyEventResponded    NotificationType = "event_responded"
	NotifyComment           NotificationType = "comment"
)

// Notification is addressed to one user. RelatedID points at the proposal or
// event that caused it and drives cascade deletion.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	RelatedID uuid.UUID        `json:"related_id"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

func NewNotification(userID uuid.UUID, kind NotificationType, title, body string, relatedID uuid.UUID) *Notification {
	return &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Body:      body,
		RelatedID: relatedID,
		CreatedAt: time.Now().UTC(),
	}
}
