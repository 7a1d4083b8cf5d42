package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-monolith/mono"

	domain "github.com/example/room-relay/domain/relay"
	"github.com/example/room-relay/events"
)

// DefaultSender is the display name used when a message carries no sender.
const DefaultSender = "anonymous"

// Config holds the relay module configuration.
type Config struct {
	ReapInterval time.Duration // how often the reaper sweeps
	IdleTTL      time.Duration // how long an empty room may linger before a sweep removes it
}

// DefaultConfig returns the default relay configuration.
func DefaultConfig() Config {
	return Config{
		ReapInterval: 15 * time.Minute,
		IdleTTL:      time.Hour,
	}
}

// Module is the core relay domain module: it owns the room store, runs the
// idle-room reaper, and publishes fanout events after each successful
// transition.
type Module struct {
	store        *Store
	cfg          Config
	eventBus     mono.EventBus
	logger       *slog.Logger
	cancelReaper context.CancelFunc
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new relay module.
func NewModule(cfg Config) *Module {
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = DefaultConfig().ReapInterval
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultConfig().IdleTTL
	}
	return &Module{
		store:  NewStore(GenerateKey),
		cfg:    cfg,
		logger: slog.Default(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "relay"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageSentV1.ToBase(),
		events.ParticipantJoinedV1.ToBase(),
		events.ParticipantLeftV1.ToBase(),
	}
}

// Start launches the idle-room reaper.
func (m *Module) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelReaper = cancel
	go NewReaper(m.store, m.cfg.ReapInterval, m.cfg.IdleTTL, m.logger).Run(ctx)
	m.logger.Info("Relay module started",
		"reapInterval", m.cfg.ReapInterval,
		"idleTTL", m.cfg.IdleTTL)
	return nil
}

// Stop shuts the reaper down.
func (m *Module) Stop(_ context.Context) error {
	if m.cancelReaper != nil {
		m.cancelReaper()
	}
	m.logger.Info("Relay module stopped", "activeRooms", m.store.RoomCount())
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"active_rooms": m.store.RoomCount(),
		},
	}
}

// CreateRoom creates a room with clientID as its first member. Any room the
// client was in is left first; remaining members there are notified.
func (m *Module) CreateRoom(clientID string) (domain.RoomInfo, error) {
	res, err := m.store.Create(clientID)
	if err != nil {
		return domain.RoomInfo{}, err
	}
	m.publishLeft(clientID, res.Left)
	m.logger.Info("Room created", "roomKey", res.Room.Key, "clientID", clientID)
	return res.Room, nil
}

// JoinRoom adds clientID to an existing room. The previous room, if any, is
// left with the usual notifications; the new room's other members receive a
// participant-joined notice.
func (m *Module) JoinRoom(clientID, key string) (JoinResult, error) {
	res, err := m.store.Join(key, clientID)
	if err != nil {
		return JoinResult{}, err
	}
	m.publishLeft(clientID, res.Left)
	m.publish(func() error {
		return events.ParticipantJoinedV1.Publish(m.eventBus, events.ParticipantJoinedEvent{
			RoomKey:          res.Room.Key,
			ClientID:         clientID,
			ParticipantCount: res.Room.ParticipantCount,
			Timestamp:        time.Now(),
		}, nil)
	})
	m.logger.Info("Participant joined",
		"roomKey", res.Room.Key,
		"clientID", clientID,
		"participants", res.Room.ParticipantCount)
	return res, nil
}

// SendMessage records a message in the client's current room and publishes it
// for fanout to every member, the sender included.
func (m *Module) SendMessage(clientID, text, sender string) (domain.Message, error) {
	if err := ValidateText(text); err != nil {
		return domain.Message{}, err
	}
	if err := ValidateSender(sender); err != nil {
		return domain.Message{}, err
	}
	if sender == "" {
		sender = DefaultSender
	}

	msg, key, err := m.store.Record(clientID, text, sender)
	if err != nil {
		return domain.Message{}, err
	}
	m.publish(func() error {
		return events.MessageSentV1.Publish(m.eventBus, events.MessageSentEvent{
			RoomKey: key,
			Message: msg,
		}, nil)
	})
	return msg, nil
}

// LeaveRoom removes clientID from its current room. Returns ok=false when the
// client was not in a room; callers treat that as a no-op.
func (m *Module) LeaveRoom(clientID string) (LeaveResult, bool) {
	res, ok := m.store.Leave(clientID)
	if !ok {
		return LeaveResult{}, false
	}
	m.publishLeft(clientID, &res)
	m.logger.Info("Participant left",
		"roomKey", res.RoomKey,
		"clientID", clientID,
		"participants", res.ParticipantCount,
		"roomDeleted", res.Deleted)
	return res, true
}

// Room returns the visible state of a room.
func (m *Module) Room(key string) (domain.RoomInfo, bool) {
	return m.store.Get(key)
}

// RoomOf returns the key of the room the client is currently in.
func (m *Module) RoomOf(clientID string) (string, bool) {
	return m.store.RoomOf(clientID)
}

// RoomCount returns the number of active rooms.
func (m *Module) RoomCount() int {
	return m.store.RoomCount()
}

// publishLeft emits a participant-left event unless the leave emptied the room
// (nobody is left to notify).
func (m *Module) publishLeft(clientID string, left *LeaveResult) {
	if left == nil || left.Deleted {
		return
	}
	m.publish(func() error {
		return events.ParticipantLeftV1.Publish(m.eventBus, events.ParticipantLeftEvent{
			RoomKey:          left.RoomKey,
			ClientID:         clientID,
			ParticipantCount: left.ParticipantCount,
			Timestamp:        time.Now(),
		}, nil)
	})
}

// publish runs a publish closure when a bus is attached. Delivery is
// best-effort; a publish failure is logged and the transition stands.
func (m *Module) publish(fn func() error) {
	if m.eventBus == nil {
		return
	}
	if err := fn(); err != nil {
		m.logger.Warn("Failed to publish event", "error", err)
	}
}
