package presence

import (
	"context"
	"fmt"
	"log"

	"github.com/example/room-presence-demo/events"
	"github.com/example/room-presence-demo/modules/catalog"
	"github.com/go-monolith/mono"
)

// Module wires the presence service into the application: it hydrates the
// registry from the catalog at startup and publishes session events on the
// bus for the broadcast module to fan out.
type Module struct {
	registry *Registry
	index    *SessionIndex
	service  *Service
	catalog  Catalog
	eventBus mono.EventBus
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
	_ Publisher                  = (*Module)(nil)
)

// NewModule creates a new presence module.
func NewModule() *Module {
	m := &Module{
		registry: NewRegistry(),
		index:    NewSessionIndex(),
	}
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return "presence"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"catalog"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "catalog" {
		m.catalog = catalog.NewAdapter(container)
	}
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.PersonJoinedV1.ToBase(),
		events.CharacterUpdatedV1.ToBase(),
		events.NewMessageV1.ToBase(),
		events.PersonLeftV1.ToBase(),
	}
}

// Start hydrates the registry from the full catalog listing.
func (m *Module) Start(ctx context.Context) error {
	if m.catalog == nil {
		return fmt.Errorf("catalog dependency not set")
	}

	m.service = NewService(m.registry, m.index, m.catalog, m)

	if err := m.service.Hydrate(ctx); err != nil {
		return err
	}

	log.Printf("[presence] Module started with %d rooms hydrated", m.registry.Len())
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Printf("[presence] Module stopped (%d live sessions)", m.index.Len())
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.service != nil,
		Message: "operational",
		Details: map[string]any{
			"live_rooms":    m.registry.Len(),
			"live_sessions": m.index.Len(),
		},
	}
}

// Service returns the presence service for the gateway to dispatch into.
func (m *Module) Service() *Service {
	return m.service
}

// PersonJoined publishes a PersonJoined event on the bus.
func (m *Module) PersonJoined(e events.PersonJoinedEvent) {
	if err := events.PersonJoinedV1.Publish(m.eventBus, e, nil); err != nil {
		log.Printf("[presence] Failed to publish PersonJoined: %v", err)
	}
}

// CharacterUpdated publishes a CharacterUpdated event on the bus.
func (m *Module) CharacterUpdated(e events.CharacterUpdatedEvent) {
	if err := events.CharacterUpdatedV1.Publish(m.eventBus, e, nil); err != nil {
		log.Printf("[presence] Failed to publish CharacterUpdated: %v", err)
	}
}

// NewMessage publishes a NewMessage event on the bus.
func (m *Module) NewMessage(e events.NewMessageEvent) {
	if err := events.NewMessageV1.Publish(m.eventBus, e, nil); err != nil {
		log.Printf("[presence] Failed to publish NewMessage: %v", err)
	}
}

// PersonLeft publishes a PersonLeft event on the bus.
func (m *Module) PersonLeft(e events.PersonLeftEvent) {
	if err := events.PersonLeftV1.Publish(m.eventBus, e, nil); err != nil {
		log.Printf("[presence] Failed to publish PersonLeft: %v", err)
	}
}
