package events

import (
	domain "github.com/example/room-presence-demo/domain/presence"
	"github.com/go-monolith/mono/pkg/helper"
)

// PersonJoinedEvent is emitted when a character enters a room. It carries the
// full room snapshot taken under the room lock so subscribers can reconcile
// without a follow-up query.
type PersonJoinedEvent struct {
	// Origin is the connection id of the joiner, excluded from the fan-out
	// because the joiner gets the full snapshot in the direct reply.
	Origin     string             `json:"origin"`
	RoomID     int                `json:"roomId"`
	Character  domain.Character   `json:"character"`
	Characters []domain.Character `json:"characters"`
	Messages   []domain.Message   `json:"messages"`
}

// CharacterUpdatedEvent is emitted after a character patch is merged.
type CharacterUpdatedEvent struct {
	RoomID     int                `json:"roomId"`
	Character  domain.Character   `json:"character"`
	Characters []domain.Character `json:"characters"`
	Messages   []domain.Message   `json:"messages"`
}

// NewMessageEvent is emitted for every appended message, user and bot alike.
type NewMessageEvent struct {
	RoomID  int            `json:"roomId"`
	Message domain.Message `json:"message"`
}

// PersonLeftEvent is emitted when a character leaves a room.
type PersonLeftEvent struct {
	RoomID int `json:"roomId"`
	UserID int `json:"userId"`
}

// Event definitions for the presence module.
var (
	PersonJoinedV1 = helper.EventDefinition[PersonJoinedEvent](
		"presence",
		"PersonJoined",
		"v1",
	)

	CharacterUpdatedV1 = helper.EventDefinition[CharacterUpdatedEvent](
		"presence",
		"CharacterUpdated",
		"v1",
	)

	NewMessageV1 = helper.EventDefinition[NewMessageEvent](
		"presence",
		"NewMessage",
		"v1",
	)

	PersonLeftV1 = helper.EventDefinition[PersonLeftEvent](
		"presence",
		"PersonLeft",
		"v1",
	)
)
