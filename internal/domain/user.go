package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultUserColor = "#4f46e5"

// User is a registered account. Token is the durable bearer credential
// handed out at registration.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewUser(name string, color string) *User {
	if color == "" {
		color = DefaultUserColor
	}
	now := time.Now().UTC()
	return &User{
		ID:        uuid.New(),
		Name:      name,
		Color:     color,
		Token:     NewToken(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewToken returns an opaque 64 hex character credential.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}
