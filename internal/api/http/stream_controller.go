package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/huddle/internal/domain"
	"github.com/immxrtalbeast/huddle/internal/live"
	"github.com/immxrtalbeast/huddle/internal/service"
	"github.com/immxrtalbeast/huddle/lib/logger/sl"
)

type StreamOptions struct {
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// StreamController opens live channels. The token travels in the query
// string because native event-stream clients cannot set headers.
type StreamController struct {
	hub          *live.Hub
	users        service.UserInteractor
	log          *slog.Logger
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
}

func NewStreamController(hub *live.Hub, users service.UserInteractor, log *slog.Logger, opts StreamOptions) *StreamController {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	return &StreamController{
		hub:          hub,
		users:        users,
		log:          log,
		writeTimeout: opts.WriteTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(opts.AllowedOrigins, "*") || slices.Contains(opts.AllowedOrigins, origin)
			},
		},
	}
}

func (c *StreamController) authenticate(ctx *gin.Context) (*domain.User, bool) {
	user, err := c.users.ResolveToken(ctx.Request.Context(), ctx.Query("token"))
	if err != nil {
		writeError(ctx, c.log, err)
		return nil, false
	}
	return user, true
}

func (c *StreamController) Stream(ctx *gin.Context) {
	const op = "api.http.stream.sse"

	user, ok := c.authenticate(ctx)
	if !ok {
		return
	}

	ctx.Header("Content-Type", sse.ContentType)
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Header("X-Accel-Buffering", "no")
	ctx.Status(http.StatusOK)

	err := c.hub.Serve(ctx.Request.Context(), user.ID, &sseWriter{w: ctx.Writer})
	if err != nil && !errors.Is(err, live.ErrClientClosed) {
		c.log.Debug("event stream ended",
			slog.String("op", op),
			slog.String("user_id", user.ID.String()),
			sl.Err(err),
		)
	}
}

type sseWriter struct {
	w gin.ResponseWriter
}

func (s *sseWriter) WriteMessage(msg live.Message) error {
	data, err := json.Marshal(msg.Data)
	if err != nil {
		return err
	}
	if err := sse.Encode(s.w, sse.Event{Event: msg.Type, Data: string(data)}); err != nil {
		return err
	}
	s.w.Flush()
	return nil
}

func (s *sseWriter) WriteHeartbeat() error {
	if _, err := io.WriteString(s.w, ": heartbeat\n\n"); err != nil {
		return err
	}
	s.w.Flush()
	return nil
}

func (c *StreamController) Socket(ctx *gin.Context) {
	const op = "api.http.stream.ws"

	user, ok := c.authenticate(ctx)
	if !ok {
		return
	}

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.log.Warn("failed to upgrade connection", slog.String("op", op), sl.Err(err))
		return
	}
	defer conn.Close()

	streamCtx, cancel := context.WithCancel(ctx.Request.Context())
	defer cancel()

	// Inbound frames are ignored. Reading keeps pongs and close frames
	// flowing and ends the channel when the peer goes away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	err = c.hub.Serve(streamCtx, user.ID, &socketWriter{conn: conn, timeout: c.writeTimeout})
	if err != nil && !errors.Is(err, live.ErrClientClosed) {
		c.log.Debug("socket stream ended",
			slog.String("op", op),
			slog.String("user_id", user.ID.String()),
			sl.Err(err),
		)
	}
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(c.writeTimeout),
	)
}

type socketWriter struct {
	conn    *websocket.Conn
	timeout time.Duration
}

func (s *socketWriter) WriteMessage(msg live.Message) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(msg)
}

func (s *socketWriter) WriteHeartbeat() error {
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.timeout))
}
