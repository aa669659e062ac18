package live

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrClientClosed = errors.New("live client is closed")
	ErrClientSlow   = errors.New("live client buffer is full")
)

// Client is the registry handle of one live channel. Dispatchers enqueue
// into a bounded buffer and the channel's serve loop drains it onto the
// transport.
type Client struct {
	id     string
	userID uuid.UUID
	events chan Message

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(userID uuid.UUID, buffer int) *Client {
	if buffer <= 0 {
		buffer = 16
	}
	return &Client{
		id:     uuid.NewString(),
		userID: userID,
		events: make(chan Message, buffer),
		done:   make(chan struct{}),
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) UserID() uuid.UUID {
	return c.userID
}

// Send never blocks. A full buffer is reported as ErrClientSlow so the
// dispatcher drops the connection instead of stalling other deliveries.
func (c *Client) Send(msg Message) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.events <- msg:
		return nil
	case <-c.done:
		return ErrClientClosed
	default:
		return ErrClientSlow
	}
}

func (c *Client) Events() <-chan Message {
	return c.events
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close is idempotent. The events channel is left open so a racing Send
// never panics.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
