package live

import (
	"context"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/internal/domain"
	"github.com/immxrtalbeast/huddle/lib/logger/sl"
)

// MembershipLookup resolves the roster of a space. It is called on every
// space broadcast.
type MembershipLookup interface {
	ListMembers(ctx context.Context, spaceID uuid.UUID) ([]domain.SpaceMember, error)
}

// Dispatcher pushes typed messages to live connections. Delivery is best
// effort: nothing here returns an error to the caller.
type Dispatcher struct {
	log      *slog.Logger
	registry *Registry
	members  MembershipLookup
}

func NewDispatcher(log *slog.Logger, registry *Registry, members MembershipLookup) *Dispatcher {
	return &Dispatcher{
		log:      log,
		registry: registry,
		members:  members,
	}
}

// PushToUser enqueues the message on every open connection of the user and
// returns how many accepted it. A connection that rejects the message is
// unregistered and closed, the others are unaffected.
func (d *Dispatcher) PushToUser(userID uuid.UUID, eventType string, payload any) int {
	const op = "live.dispatcher.PushToUser"

	msg := Message{Type: eventType, Data: payload}
	delivered := 0
	for _, conn := range d.registry.ConnectionsFor(userID) {
		if err := conn.Send(msg); err != nil {
			d.log.Warn("dropping live connection",
				slog.String("op", op),
				slog.String("user_id", userID.String()),
				slog.String("conn_id", conn.ID()),
				slog.String("event", eventType),
				sl.Err(err),
			)
			d.registry.Unregister(userID, conn.ID())
			conn.Close()
			continue
		}
		delivered++
	}
	return delivered
}

// PushToSpaceMembers resolves the space roster and pushes to every member
// except the excluded users.
func (d *Dispatcher) PushToSpaceMembers(ctx context.Context, spaceID uuid.UUID, eventType string, payload any, exclude ...uuid.UUID) int {
	const op = "live.dispatcher.PushToSpaceMembers"

	members, err := d.members.ListMembers(ctx, spaceID)
	if err != nil {
		d.log.Warn("failed to resolve space members",
			slog.String("op", op),
			slog.String("space_id", spaceID.String()),
			slog.String("event", eventType),
			sl.Err(err),
		)
		return 0
	}

	delivered := 0
	for _, m := range members {
		if slices.Contains(exclude, m.UserID) {
			continue
		}
		delivered += d.PushToUser(m.UserID, eventType, payload)
	}
	return delivered
}
