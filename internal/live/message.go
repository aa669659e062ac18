package live

// Event types pushed over live channels.
const (
	EventConnected         = "connected"
	EventEventCreated      = "event_created"
	EventEventUpdated      = "event_updated"
	EventEventDeleted      = "event_deleted"
	EventProposalCreated   = "proposal_created"
	EventProposalVoted     = "proposal_voted"
	EventProposalConfirmed = "proposal_confirmed"
	EventProposalCancelled = "proposal_cancelled"
	EventNotification      = "notification"
	EventCommentCreated    = "comment_created"
	EventMemberJoined      = "member_joined"
	EventMemberLeft        = "member_left"
)

// Message is one typed frame. Data is serialized by the transport.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
