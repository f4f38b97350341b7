package broadcast

import (
	"context"
	"fmt"
	"log"

	"github.com/example/room-presence-demo/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// BroadcastModule is an EventConsumerModule that relays presence events to
// WebSocket clients in the affected room.
type BroadcastModule struct {
	hub       *Hub
	cancelHub context.CancelFunc
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

// Start initializes the module and starts the hub.
func (m *BroadcastModule) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	log.Println("[broadcast] Module started - WebSocket hub running")
	return nil
}

// Stop shuts down the module.
func (m *BroadcastModule) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait() // Wait for hub to finish
	}
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

// RegisterEventConsumers registers event handlers.
func (m *BroadcastModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	// Subscribe to PersonJoined events
	if err := helper.RegisterTypedEventConsumer(
		registry, events.PersonJoinedV1, m.handlePersonJoined, m,
	); err != nil {
		return fmt.Errorf("failed to register PersonJoined consumer: %w", err)
	}

	// Subscribe to CharacterUpdated events
	if err := helper.RegisterTypedEventConsumer(
		registry, events.CharacterUpdatedV1, m.handleCharacterUpdated, m,
	); err != nil {
		return fmt.Errorf("failed to register CharacterUpdated consumer: %w", err)
	}

	// Subscribe to NewMessage events
	if err := helper.RegisterTypedEventConsumer(
		registry, events.NewMessageV1, m.handleNewMessage, m,
	); err != nil {
		return fmt.Errorf("failed to register NewMessage consumer: %w", err)
	}

	// Subscribe to PersonLeft events
	if err := helper.RegisterTypedEventConsumer(
		registry, events.PersonLeftV1, m.handlePersonLeft, m,
	); err != nil {
		return fmt.Errorf("failed to register PersonLeft consumer: %w", err)
	}

	log.Println("[broadcast] Registered event consumers: PersonJoined, CharacterUpdated, NewMessage, PersonLeft")
	return nil
}

// Event handlers

func (m *BroadcastModule) handlePersonJoined(_ context.Context, event events.PersonJoinedEvent, _ *mono.Msg) error {
	log.Printf("[broadcast] Broadcasting person joined: user %d in room %d", event.Character.ID, event.RoomID)

	// The joiner already holds the snapshot from the direct reply.
	m.hub.BroadcastExcept(event.RoomID, event.Origin, Envelope{
		Type: EventPersonJoined,
		Payload: RoomSnapshotPayload{
			RoomID:     event.RoomID,
			Character:  event.Character,
			Characters: event.Characters,
			Messages:   event.Messages,
		},
	})

	return nil
}

func (m *BroadcastModule) handleCharacterUpdated(_ context.Context, event events.CharacterUpdatedEvent, _ *mono.Msg) error {
	m.hub.Broadcast(event.RoomID, Envelope{
		Type: EventCharacterUpdated,
		Payload: RoomSnapshotPayload{
			RoomID:     event.RoomID,
			Character:  event.Character,
			Characters: event.Characters,
			Messages:   event.Messages,
		},
	})

	return nil
}

func (m *BroadcastModule) handleNewMessage(_ context.Context, event events.NewMessageEvent, _ *mono.Msg) error {
	m.hub.Broadcast(event.RoomID, Envelope{
		Type:    EventNewMessage,
		Payload: event.Message,
	})

	return nil
}

func (m *BroadcastModule) handlePersonLeft(_ context.Context, event events.PersonLeftEvent, _ *mono.Msg) error {
	log.Printf("[broadcast] Broadcasting person left: user %d from room %d", event.UserID, event.RoomID)

	m.hub.Broadcast(event.RoomID, Envelope{
		Type:    EventPersonLeft,
		Payload: PersonLeftPayload{UserID: event.UserID},
	})

	return nil
}

// GetHub returns the WebSocket hub for the API module to use.
func (m *BroadcastModule) GetHub() *Hub {
	return m.hub
}
