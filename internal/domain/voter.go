package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type VoterKind string

const (
	VoterMember VoterKind = "member"
	VoterGuest  VoterKind = "guest"
)

// Voter identifies whoever cast a vote: a member keyed by user id, or a
// guest keyed by the display name they typed in.
//
// Guest identity is only the name. Two guests typing the same name are the
// same voter, and a guest can overwrite another guest's vote by reusing
// their name. This is a known weakness and is kept as is until there is a
// product decision on guest identity.
type Voter struct {
	Kind   VoterKind `json:"kind"`
	UserID uuid.UUID `json:"user_id,omitempty"`
	Name   string    `json:"name"`
}

func MemberVoter(userID uuid.UUID, name string) Voter {
	return Voter{Kind: VoterMember, UserID: userID, Name: name}
}

func GuestVoter(name string) Voter {
	return Voter{Kind: VoterGuest, Name: strings.TrimSpace(name)}
}

func (v Voter) IsGuest() bool {
	return v.Kind == VoterGuest
}

// Same reports whether both values denote one voter. Members compare by
// user id, guests by exact name.
func (v Voter) Same(other Voter) bool {
	if v.Kind != other.Kind {
		return false
	}
	if v.IsGuest() {
		return v.Name == other.Name
	}
	return v.UserID == other.UserID
}

// Key is a stable map key with the same equality as Same.
func (v Voter) Key() string {
	if v.IsGuest() {
		return fmt.Sprintf("%s:%s", VoterGuest, v.Name)
	}
	return fmt.Sprintf("%s:%s", VoterMember, v.UserID)
}
