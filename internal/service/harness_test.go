package service

import (
	"context"
	"testing"

	"github.com/immxrtalbeast/huddle/internal/domain"
	"github.com/immxrtalbeast/huddle/internal/live"
	"github.com/immxrtalbeast/huddle/internal/repository"
	"github.com/immxrtalbeast/huddle/lib/logger/handlers/slogdiscard"
	"github.com/stretchr/testify/require"
)

type harness struct {
	svc      *Services
	store    *repository.Store
	registry *live.Registry
}

type harnessOption func(store *repository.Store, push *PushSender, live *Broadcaster)

func withStore(mutate func(store *repository.Store)) harnessOption {
	return func(store *repository.Store, _ *PushSender, _ *Broadcaster) {
		mutate(store)
	}
}

func withPush(sender PushSender) harnessOption {
	return func(_ *repository.Store, push *PushSender, _ *Broadcaster) {
		*push = sender
	}
}

func withBroadcaster(b Broadcaster) harnessOption {
	return func(_ *repository.Store, _ *PushSender, live *Broadcaster) {
		*live = b
	}
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	log := slogdiscard.NewDiscardLogger()
	store := repository.NewInMemoryStore()
	registry := live.NewRegistry()

	var (
		sender      PushSender
		broadcaster Broadcaster
	)
	for _, opt := range opts {
		opt(store, &sender, &broadcaster)
	}
	if broadcaster == nil {
		broadcaster = live.NewDispatcher(log, registry, store.Spaces)
	}

	svc := New(log, store, broadcaster, sender)
	t.Cleanup(svc.Wait)

	return &harness{svc: svc, store: store, registry: registry}
}

func (h *harness) user(t *testing.T, name string) *domain.User {
	t.Helper()
	u, err := h.svc.Users.Register(context.Background(), name, "")
	require.NoError(t, err)
	return u
}

// space creates a space owned by owner with the others joined, in order.
func (h *harness) space(t *testing.T, owner *domain.User, others ...*domain.User) *domain.Space {
	t.Helper()
	ctx := context.Background()
	s, err := h.svc.Spaces.CreateSpace(ctx, owner, "Friends")
	require.NoError(t, err)
	for _, u := range others {
		_, err := h.svc.Spaces.JoinSpace(ctx, u, s.InviteCode)
		require.NoError(t, err)
	}
	h.svc.Wait()
	return s
}

func (h *harness) connect(u *domain.User) *live.Client {
	c := live.NewClient(u.ID, 64)
	h.registry.Register(c)
	return c
}

// frames waits for pending side effects and returns what the client got.
func (h *harness) frames(c *live.Client) []live.Message {
	h.svc.Wait()
	var out []live.Message
	for {
		select {
		case m := <-c.Events():
			out = append(out, m)
		default:
			return out
		}
	}
}

func ofType(msgs []live.Message, eventType string) []live.Message {
	var out []live.Message
	for _, m := range msgs {
		if m.Type == eventType {
			out = append(out, m)
		}
	}
	return out
}

func types(msgs []live.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Type)
	}
	return out
}
