package api

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/example/room-relay/modules/broadcast"
	"github.com/example/room-relay/modules/relay"
)

// session is the per-connection protocol state machine. Its state (Idle or
// in-room) is whatever the relay store's connection index says for clientID;
// the session itself holds no room state of its own.
type session struct {
	clientID string
	relay    *relay.Module
	hub      *broadcast.Hub
	limiter  *rateLimiter
	logger   *slog.Logger
}

func newSession(clientID string, relayModule *relay.Module, hub *broadcast.Hub, logger *slog.Logger) *session {
	if logger == nil {
		logger = slog.Default()
	}
	return &session{
		clientID: clientID,
		relay:    relayModule,
		hub:      hub,
		limiter:  newRateLimiter(burstSize, messagesPerSecond),
		logger:   logger,
	}
}

// handleWebSocket handles WebSocket connections at /ws.
func (m *Module) handleWebSocket(c *websocket.Conn) {
	clientID := uuid.New().String()
	m.hub.Register(broadcast.NewClient(clientID, c))

	sess := newSession(clientID, m.relay, m.hub, m.logger)
	defer sess.disconnect()

	sess.send(ConnectedReply{Type: "connected", Message: "Connected to relay server", Success: true})
	m.logger.Info("WebSocket connected", "clientID", clientID)

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.logger.Error("WebSocket error", "clientID", clientID, "error", err)
			}
			break
		}
		sess.handleFrame(raw)
	}

	m.logger.Info("WebSocket disconnected", "clientID", clientID)
}

// handleFrame parses one inbound frame and dispatches on its type. A frame
// that is not valid JSON gets an error reply; the connection stays up.
func (s *session) handleFrame(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.sendError("invalid message format")
		return
	}
	s.dispatch(env)
}

// dispatch routes an envelope by its type discriminator. Unrecognized types
// get a generic error reply and change nothing.
func (s *session) dispatch(env Envelope) {
	switch env.Type {
	case TypeCreateRoom:
		s.handleCreateRoom()
	case TypeJoinRoom:
		s.handleJoinRoom(env.RoomKey)
	case TypeSendMessage:
		s.handleSendMessage(env.Text, env.Sender)
	case TypeLeaveRoom:
		s.handleLeaveRoom()
	case TypePing:
		s.send(PongReply{Type: "pong"})
	default:
		s.sendError("unknown message type: " + env.Type)
	}
}

// handleCreateRoom creates a fresh room with this connection as its first
// member. Leaving the previous room, if any, happens inside the relay module
// with the usual notifications to its remaining members.
func (s *session) handleCreateRoom() {
	info, err := s.relay.CreateRoom(s.clientID)
	if err != nil {
		s.logger.Error("Room creation failed", "clientID", s.clientID, "error", err)
		s.sendError("failed to create room")
		return
	}

	s.hub.JoinRoom(s.clientID, info.Key)
	s.send(RoomCreatedReply{Type: "room_created", RoomKey: info.Key, Success: true})
}

// handleJoinRoom joins an existing room. An unknown key yields a join_error
// and leaves the connection's state untouched, including any current room.
func (s *session) handleJoinRoom(key string) {
	res, err := s.relay.JoinRoom(s.clientID, key)
	if err != nil {
		if !errors.Is(err, relay.ErrRoomNotFound) {
			s.logger.Error("Join failed", "clientID", s.clientID, "roomKey", key, "error", err)
		}
		s.send(JoinErrorReply{Type: "join_error", Error: "room not found", Success: false})
		return
	}

	s.hub.JoinRoom(s.clientID, res.Room.Key)
	s.send(RoomJoinedReply{
		Type:             "room_joined",
		RoomKey:          res.Room.Key,
		Success:          true,
		ParticipantCount: res.Room.ParticipantCount,
	})

	// Replay goes to the joiner only, oldest first, ahead of any live
	// messages: the per-client send queue keeps the order.
	for _, msg := range res.History {
		s.send(broadcast.NewMessagePayload(msg))
	}
}

// handleSendMessage records and fans out a chat message. The sender gets the
// echoed message back through the room broadcast rather than a direct reply.
func (s *session) handleSendMessage(text, sender string) {
	if !s.limiter.allow() {
		s.sendError("rate limit exceeded, slow down")
		return
	}

	if _, err := s.relay.SendMessage(s.clientID, text, sender); err != nil {
		if errors.Is(err, relay.ErrNotInRoom) {
			s.sendError("not in a room")
			return
		}
		s.sendError(err.Error())
	}
}

// handleLeaveRoom leaves the current room. A leave while already idle is a
// no-op with no reply defined.
func (s *session) handleLeaveRoom() {
	if _, ok := s.relay.LeaveRoom(s.clientID); !ok {
		return
	}
	s.hub.LeaveRoom(s.clientID)
	s.send(RoomLeftReply{Type: "room_left", Success: true})
}

// disconnect runs the transport-close path: leave the room with no reply (the
// connection is gone) and drop the client from the hub.
func (s *session) disconnect() {
	s.relay.LeaveRoom(s.clientID)
	s.hub.Unregister(s.clientID)
}

func (s *session) send(payload any) {
	s.hub.SendTo(s.clientID, payload)
}

func (s *session) sendError(msg string) {
	s.send(ErrorReply{Type: "error", Error: msg, Success: false})
}
