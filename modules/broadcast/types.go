package broadcast

import (
	domain "github.com/example/room-presence-demo/domain/presence"
)

// Event types sent to WebSocket clients.
const (
	EventJoinSuccess      = "join-room-success"
	EventPersonJoined     = "person-joined"
	EventCharacterUpdated = "character-updated"
	EventNewMessage       = "new-message"
	EventPersonLeft       = "person-left"
	EventError            = "error"
)

// Envelope is the wire format for every message sent to a client.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// RoomSnapshotPayload carries a character alongside the full room state.
// Used by join-room-success, person-joined and character-updated frames.
type RoomSnapshotPayload struct {
	RoomID     int                `json:"roomId"`
	Character  domain.Character   `json:"character"`
	Characters []domain.Character `json:"characters"`
	Messages   []domain.Message   `json:"messages"`
}

// PersonLeftPayload identifies the user whose character left the room.
type PersonLeftPayload struct {
	UserID int `json:"userId"`
}

// ErrorPayload carries a client-facing error description.
type ErrorPayload struct {
	Message string `json:"message"`
}
