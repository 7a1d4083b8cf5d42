package broadcast

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/room-relay/events"
)

// BroadcastModule consumes relay events and fans them out to WebSocket clients
// through the hub.
type BroadcastModule struct {
	hub *Hub
}

// Compile-time interface checks.
var _ mono.Module = (*BroadcastModule)(nil)
var _ mono.EventConsumerModule = (*BroadcastModule)(nil)
var _ mono.HealthCheckableModule = (*BroadcastModule)(nil)

// NewModule creates a new BroadcastModule.
func NewModule() *BroadcastModule {
	return &BroadcastModule{
		hub: NewHub(),
	}
}

// Name returns the module name.
func (m *BroadcastModule) Name() string {
	return "broadcast"
}

// Start initializes the module.
func (m *BroadcastModule) Start(_ context.Context) error {
	log.Println("[broadcast] Module started - WebSocket hub ready")
	return nil
}

// Stop disconnects all clients.
func (m *BroadcastModule) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	m.hub.CloseAll()
	log.Printf("[broadcast] Module stopped - %d clients were connected", clientCount)
	return nil
}

// Health returns the health status.
func (m *BroadcastModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// RegisterEventConsumers registers event handlers for the relay fanout events.
func (m *BroadcastModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessageSentV1, m.handleMessageSent, m,
	); err != nil {
		return fmt.Errorf("failed to register MessageSent consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.ParticipantJoinedV1, m.handleParticipantJoined, m,
	); err != nil {
		return fmt.Errorf("failed to register ParticipantJoined consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.ParticipantLeftV1, m.handleParticipantLeft, m,
	); err != nil {
		return fmt.Errorf("failed to register ParticipantLeft consumer: %w", err)
	}

	log.Println("[broadcast] Registered event consumers: MessageSent, ParticipantJoined, ParticipantLeft")
	return nil
}

// handleMessageSent fans a chat message out to the whole room, sender included:
// the echo is the sender's delivery confirmation.
func (m *BroadcastModule) handleMessageSent(_ context.Context, event events.MessageSentEvent, _ *mono.Msg) error {
	m.hub.Broadcast(event.RoomKey, NewMessagePayload(event.Message), "")
	return nil
}

// handleParticipantJoined notifies existing members; the joiner already got its
// room_joined reply.
func (m *BroadcastModule) handleParticipantJoined(_ context.Context, event events.ParticipantJoinedEvent, _ *mono.Msg) error {
	m.hub.Broadcast(event.RoomKey, PresencePayload{
		Type:             TypeParticipantJoined,
		ParticipantCount: event.ParticipantCount,
	}, event.ClientID)
	return nil
}

// handleParticipantLeft notifies the members remaining in the room.
func (m *BroadcastModule) handleParticipantLeft(_ context.Context, event events.ParticipantLeftEvent, _ *mono.Msg) error {
	m.hub.Broadcast(event.RoomKey, PresencePayload{
		Type:             TypeParticipantLeft,
		ParticipantCount: event.ParticipantCount,
	}, event.ClientID)
	return nil
}

// GetHub returns the WebSocket hub for the API module to use.
func (m *BroadcastModule) GetHub() *Hub {
	return m.hub
}
