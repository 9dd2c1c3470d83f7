package ws

// Server-to-client frame types.
const (
	TimelineSnapshot = "timeline.snapshot"
	TimelineEvent    = "timeline.event"

	MemberJoined = "member.joined"
	MemberLeft   = "member.left"

	ErrorEvent          = "error"
	AuthenticationError = "error.auth"
	JoinFailed          = "error.join"
	SubmitFailed        = "error.submit"
	RateLimited         = "error.rate_limited"
)

// Client-to-server command types.
const (
	CmdSubmitMessage = "message.submit"
	CmdSubmitProof   = "proof.submit"
)
