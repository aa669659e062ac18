package http

import (
	"fmt"
	"log/slog"
	"net/http"

	ical "github.com/emersion/go-ical"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/internal/api/http/converter"
	"github.com/immxrtalbeast/huddle/internal/service"
	"github.com/immxrtalbeast/huddle/lib/logger/sl"
)

type EventController struct {
	events service.EventInteractor
	log    *slog.Logger
}

func NewEventController(events service.EventInteractor, log *slog.Logger) *EventController {
	return &EventController{events: events, log: log}
}

type eventRequest struct {
	Title          string      `json:"title" binding:"required"`
	Note           string      `json:"note"`
	StartDate      string      `json:"start_date" binding:"required"`
	EndDate        string      `json:"end_date"`
	Status         string      `json:"status"`
	Visibility     string      `json:"visibility"`
	ParticipantIDs []uuid.UUID `json:"participant_ids"`
}

type eventPatchRequest struct {
	Title          *string      `json:"title"`
	Note           *string      `json:"note"`
	StartDate      *string      `json:"start_date"`
	EndDate        *string      `json:"end_date"`
	Status         *string      `json:"status"`
	Visibility     *string      `json:"visibility"`
	ParticipantIDs *[]uuid.UUID `json:"participant_ids"`
}

func (c *EventController) CreateEvent(ctx *gin.Context) {
	spaceID, ok := idParam(ctx, "spaceID")
	if !ok {
		return
	}
	var req eventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request body")
		return
	}

	event, err := c.events.CreateEvent(ctx.Request.Context(), currentUser(ctx), spaceID, service.EventInput{
		Title:          req.Title,
		Note:           req.Note,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Status:         req.Status,
		Visibility:     req.Visibility,
		ParticipantIDs: req.ParticipantIDs,
	})
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"event": converter.EventToApi(event)})
}

func (c *EventController) ListEvents(ctx *gin.Context) {
	spaceID, ok := idParam(ctx, "spaceID")
	if !ok {
		return
	}
	events, err := c.events.ListEvents(ctx.Request.Context(), currentUser(ctx), spaceID, ctx.Query("from"), ctx.Query("to"))
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"events": converter.EventsToApi(events)})
}

func (c *EventController) GetEvent(ctx *gin.Context) {
	id, ok := idParam(ctx, "eventID")
	if !ok {
		return
	}
	event, err := c.events.GetEvent(ctx.Request.Context(), currentUser(ctx), id)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"event": converter.EventToApi(event)})
}

func (c *EventController) UpdateEvent(ctx *gin.Context) {
	id, ok := idParam(ctx, "eventID")
	if !ok {
		return
	}
	var req eventPatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request body")
		return
	}

	event, err := c.events.UpdateEvent(ctx.Request.Context(), currentUser(ctx), id, service.EventPatch{
		Title:          req.Title,
		Note:           req.Note,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Status:         req.Status,
		Visibility:     req.Visibility,
		ParticipantIDs: req.ParticipantIDs,
	})
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"event": converter.EventToApi(event)})
}

func (c *EventController) DeleteEvent(ctx *gin.Context) {
	id, ok := idParam(ctx, "eventID")
	if !ok {
		return
	}
	if err := c.events.DeleteEvent(ctx.Request.Context(), currentUser(ctx), id); err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *EventController) Respond(ctx *gin.Context) {
	type request struct {
		Status  string `json:"rsvp_status" binding:"required"`
		Comment string `json:"comment"`
	}
	id, ok := idParam(ctx, "eventID")
	if !ok {
		return
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request body")
		return
	}

	event, err := c.events.RespondEvent(ctx.Request.Context(), currentUser(ctx), id, req.Status, req.Comment)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"event": converter.EventToApi(event)})
}

// ExportCalendar streams the space calendar as an iCalendar attachment.
func (c *EventController) ExportCalendar(ctx *gin.Context) {
	spaceID, ok := idParam(ctx, "spaceID")
	if !ok {
		return
	}
	cal, err := c.events.ExportCalendar(ctx.Request.Context(), currentUser(ctx), spaceID)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}

	ctx.Header("Content-Type", "text/calendar; charset=utf-8")
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", spaceID.String()+".ics"))
	ctx.Status(http.StatusOK)
	if err := ical.NewEncoder(ctx.Writer).Encode(cal); err != nil {
		c.log.Error("failed to encode calendar", slog.String("space_id", spaceID.String()), sl.Err(err))
	}
}
