package catalog

import (
	"github.com/example/room-presence-demo/domain/room"
)

// Service names registered in the service container. The framework prefixes
// them with "services.catalog.".
const (
	ServiceCreate = "create"
	ServiceList   = "list"
	ServiceGet    = "get"
)

// CreateRoomRequest is the request for creating a room record.
type CreateRoomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity"`
	OwnerID     int    `json:"owner_id"`
	OwnerName   string `json:"owner_name"`
}

// CreateRoomResponse is the response for creating a room record.
type CreateRoomResponse struct {
	Room *room.Record `json:"room"`
}

// ListRoomsRequest is the request for listing room records.
type ListRoomsRequest struct{}

// ListRoomsResponse is the response for listing room records.
type ListRoomsResponse struct {
	Rooms []room.Record `json:"rooms"`
}

// GetRoomRequest is the request for fetching a room record by id.
type GetRoomRequest struct {
	ID int `json:"id"`
}

// GetRoomResponse is the response for fetching a room record. Found is false
// when the id is unknown; that is an absence, not an error.
type GetRoomResponse struct {
	Found bool         `json:"found"`
	Room  *room.Record `json:"room,omitempty"`
}
