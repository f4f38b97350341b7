package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/room-presence-demo/domain/room"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Port defines the interface other modules use to reach the room catalog.
// GetByID returns (nil, nil) for an unknown id.
type Port interface {
	Create(ctx context.Context, req CreateRoomRequest) (*room.Record, error)
	List(ctx context.Context) ([]room.Record, error)
	GetByID(ctx context.Context, id int) (*room.Record, error)
}

// Adapter implements Port using the service container.
type Adapter struct {
	container mono.ServiceContainer
}

// NewAdapter creates a new catalog Adapter.
func NewAdapter(container mono.ServiceContainer) *Adapter {
	if container == nil {
		panic("catalog: ServiceContainer is nil")
	}
	return &Adapter{container: container}
}

// Create stores a new room record.
func (a *Adapter) Create(ctx context.Context, req CreateRoomRequest) (*room.Record, error) {
	var resp CreateRoomResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceCreate,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return resp.Room, nil
}

// List returns all room records.
func (a *Adapter) List(ctx context.Context) ([]room.Record, error) {
	req := ListRoomsRequest{}
	var resp ListRoomsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceList,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return resp.Rooms, nil
}

// GetByID returns the room record for id, or (nil, nil) when absent.
func (a *Adapter) GetByID(ctx context.Context, id int) (*room.Record, error) {
	req := GetRoomRequest{ID: id}
	var resp GetRoomResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGet,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if !resp.Found {
		return nil, nil
	}
	return resp.Room, nil
}
