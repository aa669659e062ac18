package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/huddle/internal/domain"
)

// Controllers groups every handler set the router mounts. Nil members are
// skipped.
type Controllers struct {
	Auth          *Authenticator
	Users         *UserController
	Spaces        *SpaceController
	Proposals     *ProposalController
	Events        *EventController
	Notifications *NotificationController
	Comments      *CommentController
	Stream        *StreamController
}

func SetupRouter(allowedOrigins []string, c Controllers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowCredentials = true
	config.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"Origin",
		"Accept",
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	router.Use(cors.New(config))
	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	if c.Stream != nil {
		stream := api.Group("/live")
		stream.GET("/stream", c.Stream.Stream)
		stream.GET("/ws", c.Stream.Socket)
	}

	if c.Proposals != nil {
		public := api.Group("/public/proposals")
		public.GET("/:proposalID", c.Proposals.GetPublicProposal)
		public.POST("/:proposalID/votes", c.Proposals.GuestVote)
	}

	if c.Users != nil {
		api.POST("/users", c.Users.Register)
	}

	if c.Auth == nil {
		return router
	}
	authed := api.Group("", c.Auth.RequireUser)

	if c.Users != nil {
		users := authed.Group("/users")
		users.GET("/me", c.Users.Me)
		users.GET("/:userID", c.Users.GetUser)
	}

	spaces := authed.Group("/spaces")
	if c.Spaces != nil {
		spaces.POST("", c.Spaces.CreateSpace)
		spaces.GET("", c.Spaces.ListSpaces)
		spaces.POST("/join", c.Spaces.JoinSpace)
		spaces.POST("/:spaceID/leave", c.Spaces.LeaveSpace)
		spaces.GET("/:spaceID/members", c.Spaces.ListMembers)
	}

	if c.Events != nil {
		spaces.GET("/:spaceID/events", c.Events.ListEvents)
		spaces.POST("/:spaceID/events", c.Events.CreateEvent)
		spaces.GET("/:spaceID/calendar.ics", c.Events.ExportCalendar)

		events := authed.Group("/events")
		events.GET("/:eventID", c.Events.GetEvent)
		events.PATCH("/:eventID", c.Events.UpdateEvent)
		events.DELETE("/:eventID", c.Events.DeleteEvent)
		events.POST("/:eventID/rsvp", c.Events.Respond)
		if c.Comments != nil {
			events.GET("/:eventID/comments", c.Comments.List(domain.RelatedEvent, "eventID"))
			events.POST("/:eventID/comments", c.Comments.Add(domain.RelatedEvent, "eventID"))
		}
	}

	if c.Proposals != nil {
		spaces.GET("/:spaceID/proposals", c.Proposals.ListProposals)
		spaces.POST("/:spaceID/proposals", c.Proposals.CreateProposal)

		proposals := authed.Group("/proposals")
		proposals.GET("/:proposalID", c.Proposals.GetProposal)
		proposals.DELETE("/:proposalID", c.Proposals.DeleteProposal)
		proposals.POST("/:proposalID/votes", c.Proposals.Vote)
		proposals.POST("/:proposalID/confirm", c.Proposals.Confirm)
		proposals.POST("/:proposalID/cancel", c.Proposals.Cancel)
		if c.Comments != nil {
			proposals.GET("/:proposalID/comments", c.Comments.List(domain.RelatedProposal, "proposalID"))
			proposals.POST("/:proposalID/comments", c.Comments.Add(domain.RelatedProposal, "proposalID"))
		}
	}

	if c.Notifications != nil {
		notifications := authed.Group("/notifications")
		notifications.GET("", c.Notifications.ListNotifications)
		notifications.POST("/read-all", c.Notifications.MarkAllRead)
		notifications.POST("/:notificationID/read", c.Notifications.MarkRead)
	}

	return router
}
