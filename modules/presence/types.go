package presence

import (
	"errors"

	domain "github.com/example/room-presence-demo/domain/presence"
)

// Request-scoped errors. All of these leave state unchanged and are reported
// to the requester only; the connection stays open.
var (
	// ErrRoomNotFound is returned when the room exists in neither the
	// registry nor the catalog.
	ErrRoomNotFound = errors.New("room not found")
	// ErrAlreadyInRoom is returned on a duplicate join to the same room.
	ErrAlreadyInRoom = errors.New("already in this room")
	// ErrSessionNotFound is returned for events from a connection with no
	// live joined membership.
	ErrSessionNotFound = errors.New("session not found")
	// ErrBedOccupied is returned when another character is asleep in the
	// requested bed.
	ErrBedOccupied = errors.New("bed already occupied")
)

// JoinResult is the payload for the direct join response and the room-wide
// joined broadcast.
type JoinResult struct {
	RoomID     int
	Character  domain.Character
	Characters []domain.Character
	Messages   []domain.Message
}
