package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/huddle/internal/api/http/converter"
	"github.com/immxrtalbeast/huddle/internal/service"
)

type ProposalController struct {
	proposals service.ProposalInteractor
	log       *slog.Logger
}

func NewProposalController(proposals service.ProposalInteractor, log *slog.Logger) *ProposalController {
	return &ProposalController{proposals: proposals, log: log}
}

func (c *ProposalController) CreateProposal(ctx *gin.Context) {
	type request struct {
		Title       string   `json:"title" binding:"required"`
		Description string   `json:"description"`
		Dates       []string `json:"dates" binding:"required"`
		AllowGuests bool     `json:"allow_guests"`
	}
	spaceID, ok := idParam(ctx, "spaceID")
	if !ok {
		return
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request body")
		return
	}

	proposal, err := c.proposals.CreateProposal(ctx.Request.Context(), currentUser(ctx), spaceID, service.CreateProposalInput{
		Title:       req.Title,
		Description: req.Description,
		Dates:       req.Dates,
		AllowGuests: req.AllowGuests,
	})
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"proposal": converter.ProposalToApi(proposal)})
}

func (c *ProposalController) ListProposals(ctx *gin.Context) {
	spaceID, ok := idParam(ctx, "spaceID")
	if !ok {
		return
	}
	proposals, err := c.proposals.ListProposals(ctx.Request.Context(), currentUser(ctx), spaceID)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"proposals": converter.ProposalsToApi(proposals)})
}

func (c *ProposalController) GetProposal(ctx *gin.Context) {
	id, ok := idParam(ctx, "proposalID")
	if !ok {
		return
	}
	proposal, err := c.proposals.GetProposal(ctx.Request.Context(), currentUser(ctx), id)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"proposal": converter.ProposalToApi(proposal)})
}

func (c *ProposalController) Vote(ctx *gin.Context) {
	type request struct {
		Date   string `json:"date" binding:"required"`
		Choice string `json:"choice" binding:"required"`
	}
	id, ok := idParam(ctx, "proposalID")
	if !ok {
		return
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request body")
		return
	}

	proposal, err := c.proposals.CastVote(ctx.Request.Context(), currentUser(ctx), id, req.Date, req.Choice)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"proposal": converter.ProposalToApi(proposal)})
}

func (c *ProposalController) Confirm(ctx *gin.Context) {
	type request struct {
		Date string `json:"date" binding:"required"`
	}
	id, ok := idParam(ctx, "proposalID")
	if !ok {
		return
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request body")
		return
	}

	proposal, event, err := c.proposals.ConfirmProposal(ctx.Request.Context(), currentUser(ctx), id, req.Date)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"proposal": converter.ProposalToApi(proposal),
		"event":    converter.EventToApi(event),
	})
}

func (c *ProposalController) Cancel(ctx *gin.Context) {
	id, ok := idParam(ctx, "proposalID")
	if !ok {
		return
	}
	proposal, err := c.proposals.CancelProposal(ctx.Request.Context(), currentUser(ctx), id)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"proposal": converter.ProposalToApi(proposal)})
}

func (c *ProposalController) DeleteProposal(ctx *gin.Context) {
	id, ok := idParam(ctx, "proposalID")
	if !ok {
		return
	}
	if err := c.proposals.DeleteProposal(ctx.Request.Context(), currentUser(ctx), id); err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// GetPublicProposal serves the guest link of a proposal. No token needed.
func (c *ProposalController) GetPublicProposal(ctx *gin.Context) {
	id, ok := idParam(ctx, "proposalID")
	if !ok {
		return
	}
	proposal, err := c.proposals.GetPublicProposal(ctx.Request.Context(), id)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"proposal": converter.ProposalToApi(proposal)})
}

func (c *ProposalController) GuestVote(ctx *gin.Context) {
	type request struct {
		Name   string `json:"name" binding:"required"`
		Date   string `json:"date" binding:"required"`
		Choice string `json:"choice" binding:"required"`
	}
	id, ok := idParam(ctx, "proposalID")
	if !ok {
		return
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request body")
		return
	}

	proposal, err := c.proposals.CastGuestVote(ctx.Request.Context(), id, req.Name, req.Date, req.Choice)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"proposal": converter.ProposalToApi(proposal)})
}
