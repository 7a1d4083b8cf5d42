package broadcast

import (
	"time"

	relay "github.com/example/room-relay/domain/relay"
)

// Outbound frame types produced by the fanout path. The session layer owns the
// direct-reply types; these are the ones that reach whole rooms.
const (
	TypeMessage           = "message"
	TypeParticipantJoined = "participant_joined"
	TypeParticipantLeft   = "participant_left"
)

// MessagePayload is the wire form of a chat message, used both for live fanout
// and for history replay to a joining client.
type MessagePayload struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessagePayload builds the wire form of a recorded message.
func NewMessagePayload(msg relay.Message) MessagePayload {
	return MessagePayload{
		Type:      TypeMessage,
		ID:        msg.ID,
		Text:      msg.Text,
		Sender:    msg.Sender,
		Timestamp: msg.Timestamp,
	}
}

// PresencePayload is the wire form of a membership change notice.
type PresencePayload struct {
	Type             string `json:"type"`
	ParticipantCount int    `json:"participantCount"`
}
