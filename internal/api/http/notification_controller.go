package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/huddle/internal/service"
)

type NotificationController struct {
	notifications service.NotificationInteractor
	log           *slog.Logger
}

func NewNotificationController(notifications service.NotificationInteractor, log *slog.Logger) *NotificationController {
	return &NotificationController{notifications: notifications, log: log}
}

func (c *NotificationController) ListNotifications(ctx *gin.Context) {
	unreadOnly, _ := strconv.ParseBool(ctx.DefaultQuery("unread", "false"))
	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(ctx, "invalid limit")
			return
		}
		limit = n
	}

	notes, err := c.notifications.ListNotifications(ctx.Request.Context(), currentUser(ctx), unreadOnly, limit)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"notifications": notes})
}

func (c *NotificationController) MarkRead(ctx *gin.Context) {
	id, ok := idParam(ctx, "notificationID")
	if !ok {
		return
	}
	if err := c.notifications.MarkRead(ctx.Request.Context(), currentUser(ctx), id); err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *NotificationController) MarkAllRead(ctx *gin.Context) {
	if err := c.notifications.MarkAllRead(ctx.Request.Context(), currentUser(ctx)); err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
