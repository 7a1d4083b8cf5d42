package relay

import "time"

// RoomInfo is the externally visible view of a room. The store owns the full
// room state (membership set, history); callers only ever see copies.
type RoomInfo struct {
	Key              string    `json:"roomKey"`
	CreatedAt        time.Time `json:"createdAt"`
	ParticipantCount int       `json:"participantCount"`
}

// Message is a single chat message recorded in a room's history.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}
