package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/huddle/internal/domain"
	"github.com/immxrtalbeast/huddle/internal/service"
)

// CommentController serves the discussion threads of proposals and events.
// Handlers are bound per related type and read the id from relatedParam.
type CommentController struct {
	comments service.CommentInteractor
	log      *slog.Logger
}

func NewCommentController(comments service.CommentInteractor, log *slog.Logger) *CommentController {
	return &CommentController{comments: comments, log: log}
}

func (c *CommentController) List(kind domain.RelatedType, relatedParam string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		relatedID, ok := idParam(ctx, relatedParam)
		if !ok {
			return
		}
		comments, err := c.comments.ListComments(ctx.Request.Context(), currentUser(ctx), string(kind), relatedID)
		if err != nil {
			writeError(ctx, c.log, err)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"comments": comments})
	}
}

func (c *CommentController) Add(kind domain.RelatedType, relatedParam string) gin.HandlerFunc {
	type request struct {
		Body string `json:"body" binding:"required"`
	}
	return func(ctx *gin.Context) {
		relatedID, ok := idParam(ctx, relatedParam)
		if !ok {
			return
		}
		var req request
		if err := ctx.ShouldBindJSON(&req); err != nil {
			badRequest(ctx, "invalid request body")
			return
		}
		comment, err := c.comments.AddComment(ctx.Request.Context(), currentUser(ctx), string(kind), relatedID, req.Body)
		if err != nil {
			writeError(ctx, c.log, err)
			return
		}
		ctx.JSON(http.StatusCreated, gin.H{"comment": comment})
	}
}
