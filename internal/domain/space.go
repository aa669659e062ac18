package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const inviteCodeLength = 8

type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleMember MemberRole = "member"
)

// Space is a named group of users sharing one calendar.
type Space struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	InviteCode string    `json:"invite_code"`
	OwnerID    uuid.UUID `json:"owner_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// SpaceMember is unique per (space, user). The member list of a space is
// both the audience of its broadcasts and the consensus denominator.
type SpaceMember struct {
	SpaceID  uuid.UUID  `json:"space_id"`
	UserID   uuid.UUID  `json:"user_id"`
	Role     MemberRole `json:"role"`
	Name     string     `json:"name"`
	Color    string     `json:"color"`
	JoinedAt time.Time  `json:"joined_at"`
}

func NewSpace(name string, owner uuid.UUID) *Space {
	return &Space{
		ID:         uuid.New(),
		Name:       name,
		InviteCode: generateInviteCode(),
		OwnerID:    owner,
		CreatedAt:  time.Now().UTC(),
	}
}

func NewSpaceMember(spaceID uuid.UUID, user *User, role MemberRole) *SpaceMember {
	return &SpaceMember{
		SpaceID:  spaceID,
		UserID:   user.ID,
		Role:     role,
		Name:     user.Name,
		Color:    user.Color,
		JoinedAt: time.Now().UTC(),
	}
}

// MemberIDs flattens a roster into user ids, keeping roster order.
func MemberIDs(members []SpaceMember) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return ids
}

func generateInviteCode() string {
	code := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return code[:inviteCodeLength]
}
