package live

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/lib/logger/sl"
)

const DefaultHeartbeatInterval = 30 * time.Second

// StreamWriter is the transport side of one live channel.
type StreamWriter interface {
	WriteMessage(msg Message) error
	WriteHeartbeat() error
}

type HubOptions struct {
	HeartbeatInterval time.Duration
	ClientBuffer      int
}

// Hub opens live channels and owns their lifecycle against the registry.
type Hub struct {
	log       *slog.Logger
	registry  *Registry
	heartbeat time.Duration
	buffer    int
}

func NewHub(log *slog.Logger, registry *Registry, opts HubOptions) *Hub {
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = DefaultHeartbeatInterval
	}
	return &Hub{
		log:       log,
		registry:  registry,
		heartbeat: opts.HeartbeatInterval,
		buffer:    opts.ClientBuffer,
	}
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

// Serve runs the channel of an already authenticated user until ctx is
// cancelled, the dispatcher drops the client, or a write fails. The
// client is registered for exactly the lifetime of the call.
func (h *Hub) Serve(ctx context.Context, userID uuid.UUID, w StreamWriter) error {
	const op = "live.hub.Serve"

	client := NewClient(userID, h.buffer)
	log := h.log.With(
		slog.String("op", op),
		slog.String("user_id", userID.String()),
		slog.String("conn_id", client.ID()),
	)

	// Registered before the greeting so that anything pushed once the peer
	// has seen "connected" is already queued behind it.
	h.registry.Register(client)
	defer func() {
		h.registry.Unregister(userID, client.ID())
		client.Close()
		log.Debug("live channel closed")
	}()

	if err := w.WriteMessage(Message{
		Type: EventConnected,
		Data: map[string]string{"userId": userID.String()},
	}); err != nil {
		log.Warn("failed to write connected frame", sl.Err(err))
		return err
	}
	log.Debug("live channel opened")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-client.Done():
			return ErrClientClosed
		case <-ticker.C:
			if err := w.WriteHeartbeat(); err != nil {
				log.Debug("heartbeat failed", sl.Err(err))
				return err
			}
		case msg := <-client.Events():
			if err := w.WriteMessage(msg); err != nil {
				log.Debug("write failed", sl.Err(err))
				return err
			}
		}
	}
}
