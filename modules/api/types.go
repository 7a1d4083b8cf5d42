package api

// Inbound envelope types.
const (
	TypeCreateRoom  = "create_room"
	TypeJoinRoom    = "join_room"
	TypeSendMessage = "send_message"
	TypeLeaveRoom   = "leave_room"
	TypePing        = "ping"
)

// Envelope is a single inbound frame. Type discriminates; the remaining fields
// are populated per type.
type Envelope struct {
	Type    string `json:"type"`
	RoomKey string `json:"roomKey,omitempty"`
	Text    string `json:"text,omitempty"`
	Sender  string `json:"sender,omitempty"`
}

// ConnectedReply is sent once, immediately after the connection is accepted.
type ConnectedReply struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// RoomCreatedReply answers create_room.
type RoomCreatedReply struct {
	Type    string `json:"type"`
	RoomKey string `json:"roomKey"`
	Success bool   `json:"success"`
}

// RoomJoinedReply answers a successful join_room.
type RoomJoinedReply struct {
	Type             string `json:"type"`
	RoomKey          string `json:"roomKey"`
	Success          bool   `json:"success"`
	ParticipantCount int    `json:"participantCount"`
}

// JoinErrorReply answers join_room for an unknown key, distinct from the
// generic error reply.
type JoinErrorReply struct {
	Type    string `json:"type"`
	Error   string `json:"error"`
	Success bool   `json:"success"`
}

// RoomLeftReply answers leave_room.
type RoomLeftReply struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
}

// ErrorReply reports a protocol error: malformed frames, unknown types, or an
// action invalid in the connection's current state.
type ErrorReply struct {
	Type    string `json:"type"`
	Error   string `json:"error"`
	Success bool   `json:"success"`
}

// PongReply answers ping.
type PongReply struct {
	Type string `json:"type"`
}

// ErrorResponse is the REST error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
