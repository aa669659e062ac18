package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:255;not null"`
	Color     string    `gorm:"size:32;not null"`
	Token     string    `gorm:"size:128;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Space struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey"`
	Name       string        `gorm:"size:255;not null"`
	InviteCode string        `gorm:"size:32;uniqueIndex;not null"`
	OwnerID    uuid.UUID     `gorm:"type:uuid;not null"`
	CreatedAt  time.Time     `gorm:"not null"`
	Members    []SpaceMember `gorm:"constraint:OnDelete:CASCADE"`
}

// SpaceMember has exactly one row per (space, user).
type SpaceMember struct {
	SpaceID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	Role     string    `gorm:"size:16;not null"`
	JoinedAt time.Time `gorm:"not null"`
	User     User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

type Voter struct {
	Kind   string    `json:"kind"`
	UserID uuid.UUID `json:"user_id,omitempty"`
	Name   string    `json:"name"`
}

type Vote struct {
	Voter   Voter     `json:"voter"`
	Choice  string    `json:"choice"`
	VotedAt time.Time `json:"voted_at"`
}

type Candidate struct {
	Date  string `json:"date"`
	Votes []Vote `json:"votes"`
}

// Proposal keeps candidates and participants as jsonb sub-documents, so a
// vote is a single row update.
type Proposal struct {
	ID           uuid.UUID                       `gorm:"type:uuid;primaryKey"`
	SpaceID      uuid.UUID                       `gorm:"type:uuid;index;not null"`
	CreatorID    uuid.UUID                       `gorm:"type:uuid;not null"`
	Title        string                          `gorm:"size:255;not null"`
	Description  string                          `gorm:"type:text"`
	Candidates   datatypes.JSONType[[]Candidate] `gorm:"type:jsonb;not null"`
	Participants datatypes.JSONType[[]Voter]     `gorm:"type:jsonb;not null"`
	Status       string                          `gorm:"size:16;index;not null"`
	AllowGuests  bool                            `gorm:"not null"`
	FinalDate    *string                         `gorm:"size:10"`
	EventID      *uuid.UUID                      `gorm:"type:uuid"`
	CreatedAt    time.Time                       `gorm:"not null"`
	UpdatedAt    time.Time                       `gorm:"not null"`
}

type Participant struct {
	UserID     uuid.UUID `json:"user_id"`
	RSVPStatus string    `json:"rsvp_status"`
	Comment    string    `json:"comment,omitempty"`
}

type Event struct {
	ID           uuid.UUID                         `gorm:"type:uuid;primaryKey"`
	SpaceID      uuid.UUID                         `gorm:"type:uuid;index:idx_events_space_dates;not null"`
	OwnerID      uuid.UUID                         `gorm:"type:uuid;not null"`
	Title        string                            `gorm:"size:255;not null"`
	Note         string                            `gorm:"type:text"`
	StartDate    string                            `gorm:"size:10;index:idx_events_space_dates;not null"`
	EndDate      string                            `gorm:"size:10;index:idx_events_space_dates;not null"`
	Status       string                            `gorm:"size:16;not null"`
	Visibility   string                            `gorm:"size:16;not null"`
	Participants datatypes.JSONType[[]Participant] `gorm:"type:jsonb;not null"`
	ProposalID   *uuid.UUID                        `gorm:"type:uuid"`
	CreatedAt    time.Time                         `gorm:"not null"`
	UpdatedAt    time.Time                         `gorm:"not null"`
}

type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
	Type      string    `gorm:"size:32;not null"`
	Title     string    `gorm:"size:255;not null"`
	Body      string    `gorm:"type:text"`
	RelatedID uuid.UUID `gorm:"type:uuid;index;not null"`
	Read      bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"index;not null"`
}

type Comment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	SpaceID     uuid.UUID `gorm:"type:uuid;not null"`
	RelatedType string    `gorm:"size:16;not null"`
	RelatedID   uuid.UUID `gorm:"type:uuid;index;not null"`
	UserID      uuid.UUID `gorm:"type:uuid;not null"`
	AuthorName  string    `gorm:"size:255;not null"`
	Body        string    `gorm:"type:text;not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

// All lists every table for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Space{},
		&SpaceMember{},
		&Proposal{},
		&Event{},
		&Notification{},
		&Comment{},
	}
}
