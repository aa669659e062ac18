package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/huddle/internal/service"
)

type SpaceController struct {
	spaces service.SpaceInteractor
	log    *slog.Logger
}

func NewSpaceController(spaces service.SpaceInteractor, log *slog.Logger) *SpaceController {
	return &SpaceController{spaces: spaces, log: log}
}

func (c *SpaceController) CreateSpace(ctx *gin.Context) {
	type request struct {
		Name string `json:"name" binding:"required"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request body")
		return
	}

	space, err := c.spaces.CreateSpace(ctx.Request.Context(), currentUser(ctx), req.Name)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"space": space})
}

func (c *SpaceController) ListSpaces(ctx *gin.Context) {
	spaces, err := c.spaces.ListSpaces(ctx.Request.Context(), currentUser(ctx))
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"spaces": spaces})
}

func (c *SpaceController) JoinSpace(ctx *gin.Context) {
	type request struct {
		InviteCode string `json:"invite_code" binding:"required"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request body")
		return
	}

	space, err := c.spaces.JoinSpace(ctx.Request.Context(), currentUser(ctx), req.InviteCode)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"space": space})
}

func (c *SpaceController) LeaveSpace(ctx *gin.Context) {
	spaceID, ok := idParam(ctx, "spaceID")
	if !ok {
		return
	}
	if err := c.spaces.LeaveSpace(ctx.Request.Context(), currentUser(ctx), spaceID); err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *SpaceController) ListMembers(ctx *gin.Context) {
	spaceID, ok := idParam(ctx, "spaceID")
	if !ok {
		return
	}
	members, err := c.spaces.ListMembers(ctx.Request.Context(), currentUser(ctx), spaceID)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"members": members})
}
