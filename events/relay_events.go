package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"

	relay "github.com/example/room-relay/domain/relay"
)

// MessageSentEvent is emitted when a message is recorded in a room. The fanout
// reaches every member of the room, including the sender.
type MessageSentEvent struct {
	RoomKey string        `json:"room_key"`
	Message relay.Message `json:"message"`
}

// ParticipantJoinedEvent is emitted when a connection joins a room. ClientID
// identifies the joiner so fanout can exclude it; ParticipantCount is computed
// inside the store transaction that added the member.
type ParticipantJoinedEvent struct {
	RoomKey          string    `json:"room_key"`
	ClientID         string    `json:"client_id"`
	ParticipantCount int       `json:"participant_count"`
	Timestamp        time.Time `json:"timestamp"`
}

// ParticipantLeftEvent is emitted when a connection leaves a room that still
// has members remaining.
type ParticipantLeftEvent struct {
	RoomKey          string    `json:"room_key"`
	ClientID         string    `json:"client_id"`
	ParticipantCount int       `json:"participant_count"`
	Timestamp        time.Time `json:"timestamp"`
}

// Event definitions for the relay domain.
var (
	MessageSentV1 = helper.EventDefinition[MessageSentEvent](
		"relay",
		"MessageSent",
		"v1",
	)

	ParticipantJoinedV1 = helper.EventDefinition[ParticipantJoinedEvent](
		"relay",
		"ParticipantJoined",
		"v1",
	)

	ParticipantLeftV1 = helper.EventDefinition[ParticipantLeftEvent](
		"relay",
		"ParticipantLeft",
		"v1",
	)
)
