package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/internal/domain"
	"github.com/immxrtalbeast/huddle/lib/logger/handlers/slogdiscard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenConn struct {
	id     string
	userID uuid.UUID
	closed bool
}

func (c *brokenConn) ID() string { return c.id }
func (c *brokenConn) UserID() uuid.UUID { return c.userID }
func (c *brokenConn) Send(Message) error { return errors.New("broken pipe") }
func (c *brokenConn) Close() { c.closed = true }

type staticMembers struct {
	members []domain.SpaceMember
	err     error
}

func (s staticMembers) ListMembers(context.Context, uuid.UUID) ([]domain.SpaceMember, error) {
	return s.members, s.err
}

type recordingWriter struct {
	mu           sync.Mutex
	messages     []Message
	heartbeats   int
	heartbeatErr error
	messageErr   error
}

func (w *recordingWriter) WriteMessage(msg Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.messageErr != nil {
		return w.messageErr
	}
	w.messages = append(w.messages, msg)
	return nil
}

func (w *recordingWriter) WriteHeartbeat() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.heartbeats++
	return w.heartbeatErr
}

func (w *recordingWriter) types() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.messages))
	for _, m := range w.messages {
		out = append(out, m.Type)
	}
	return out
}

func TestRegistryMultipleConnectionsPerUser(t *testing.T) {
	r := NewRegistry()
	user := uuid.New()

	first, second := NewClient(user, 1), NewClient(user, 1)
	r.Register(first)
	r.Register(second)
	r.Register(NewClient(uuid.New(), 1))

	assert.Len(t, r.ConnectionsFor(user), 2)
	assert.Equal(t, 3, r.Count())

	assert.True(t, r.Unregister(user, first.ID()))
	assert.False(t, r.Unregister(user, first.ID()))
	assert.Len(t, r.ConnectionsFor(user), 1)

	assert.True(t, r.Unregister(user, second.ID()))
	assert.Empty(t, r.ConnectionsFor(user))
	assert.Equal(t, 1, r.Count())
}

func TestClientSendNeverBlocks(t *testing.T) {
	c := NewClient(uuid.New(), 1)

	require.NoError(t, c.Send(Message{Type: "a"}))
	assert.ErrorIs(t, c.Send(Message{Type: "b"}), ErrClientSlow)

	c.Close()
	c.Close()
	assert.ErrorIs(t, c.Send(Message{Type: "c"}), ErrClientClosed)
}

func TestPushToUserIsolatesBrokenConnection(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(slogdiscard.NewDiscardLogger(), r, staticMembers{})
	user := uuid.New()

	healthy := NewClient(user, 4)
	broken := &brokenConn{id: "broken", userID: user}
	r.Register(healthy)
	r.Register(broken)

	delivered := d.PushToUser(user, EventProposalConfirmed, map[string]string{"proposalId": "p"})
	assert.Equal(t, 1, delivered)

	select {
	case msg := <-healthy.Events():
		assert.Equal(t, EventProposalConfirmed, msg.Type)
	default:
		t.Fatal("healthy connection did not receive the message")
	}

	conns := r.ConnectionsFor(user)
	require.Len(t, conns, 1)
	assert.Equal(t, healthy.ID(), conns[0].ID())
	assert.True(t, broken.closed)
}

func TestPushToUserDropsSlowConnection(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(slogdiscard.NewDiscardLogger(), r, staticMembers{})
	user := uuid.New()

	slow := NewClient(user, 1)
	r.Register(slow)

	assert.Equal(t, 1, d.PushToUser(user, "a", nil))
	assert.Equal(t, 0, d.PushToUser(user, "b", nil))
	assert.Zero(t, r.Count())

	select {
	case <-slow.Done():
	default:
		t.Fatal("slow connection was not closed")
	}
}

func TestPushToSpaceMembersExcludesActor(t *testing.T) {
	r := NewRegistry()
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	members := staticMembers{members: []domain.SpaceMember{
		{UserID: alice}, {UserID: bob}, {UserID: carol},
	}}
	d := NewDispatcher(slogdiscard.NewDiscardLogger(), r, members)

	clients := map[uuid.UUID]*Client{}
	for _, id := range []uuid.UUID{alice, bob} {
		clients[id] = NewClient(id, 4)
		r.Register(clients[id])
	}

	delivered := d.PushToSpaceMembers(context.Background(), uuid.New(), EventProposalVoted, nil, alice)
	assert.Equal(t, 1, delivered)
	assert.Len(t, clients[bob].Events(), 1)
	assert.Empty(t, clients[alice].Events())
}

func TestPushToSpaceMembersSwallowsLookupFailure(t *testing.T) {
	d := NewDispatcher(slogdiscard.NewDiscardLogger(), NewRegistry(), staticMembers{err: errors.New("db down")})
	assert.Zero(t, d.PushToSpaceMembers(context.Background(), uuid.New(), EventProposalVoted, nil))
}

func TestHubServeDeliversAndCleansUpOnDisconnect(t *testing.T) {
	r := NewRegistry()
	hub := NewHub(slogdiscard.NewDiscardLogger(), r, HubOptions{HeartbeatInterval: time.Hour, ClientBuffer: 4})
	d := NewDispatcher(slogdiscard.NewDiscardLogger(), r, staticMembers{})
	user := uuid.New()
	w := &recordingWriter{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Serve(ctx, user, w) }()

	require.Eventually(t, func() bool { return r.Count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, d.PushToUser(user, EventNotification, map[string]string{"id": "n"}))
	require.Eventually(t, func() bool { return len(w.types()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{EventConnected, EventNotification}, w.types())

	cancel()
	require.NoError(t, <-done)
	assert.Zero(t, r.Count())
	assert.Zero(t, d.PushToUser(user, EventNotification, nil))
}

func TestHubServeTearsDownOnHeartbeatFailure(t *testing.T) {
	r := NewRegistry()
	hub := NewHub(slogdiscard.NewDiscardLogger(), r, HubOptions{HeartbeatInterval: 10 * time.Millisecond})
	boom := errors.New("write: broken pipe")
	w := &recordingWriter{heartbeatErr: boom}

	err := hub.Serve(context.Background(), uuid.New(), w)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, w.heartbeats)
	assert.Zero(t, r.Count())
}

func TestHubServeCleansUpWhenGreetingFails(t *testing.T) {
	r := NewRegistry()
	hub := NewHub(slogdiscard.NewDiscardLogger(), r, HubOptions{HeartbeatInterval: time.Hour})
	boom := errors.New("write: connection reset")

	err := hub.Serve(context.Background(), uuid.New(), &recordingWriter{messageErr: boom})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, r.Count())
}
