// Package push holds the outbound notification senders.
package push

import (
	"context"
	"log/slog"

	"github.com/immxrtalbeast/huddle/internal/domain"
)

// LogSender records every outbound push in the log. It stands in for a
// real web push gateway.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, n *domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.log.Info("push notification",
		slog.String("op", "push.log.Send"),
		slog.String("notification_id", n.ID.String()),
		slog.String("user_id", n.UserID.String()),
		slog.String("type", string(n.Type)),
		slog.String("title", n.Title),
	)
	return nil
}

// Disabled drops every push.
type Disabled struct{}

func (Disabled) Send(context.Context, *domain.Notification) error {
	return nil
}
