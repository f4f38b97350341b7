// Package presence defines the value types shared by the live room state,
// the event bus payloads, and the websocket wire format.
package presence

import "time"

// MaxHistory is the maximum number of messages retained per room.
// Older messages are evicted first.
const MaxHistory = 50

// Direction a character is facing.
type Direction string

const (
	DirectionDown  Direction = "down"
	DirectionUp    Direction = "up"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// Valid reports whether d is one of the four facing directions.
func (d Direction) Valid() bool {
	switch d {
	case DirectionDown, DirectionUp, DirectionLeft, DirectionRight:
		return true
	}
	return false
}

// Sender identifies who originated a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Character is the transient per-user visual and behavioral state within a room.
type Character struct {
	ID              int       `json:"id"`
	Username        string    `json:"username"`
	Room            int       `json:"room"`
	X               float64   `json:"x"`
	Y               float64   `json:"y"`
	Width           float64   `json:"width"`
	Height          float64   `json:"height"`
	Speed           float64   `json:"speed"`
	Direction       Direction `json:"direction"`
	IsMoving        bool      `json:"isMoving"`
	IsSleeping      bool      `json:"isSleeping"`
	CurrentBedIndex int       `json:"currentBedIndex"`
	BubbleMessage   *string   `json:"bubbleMessage"`
}

// NewCharacter returns a character with the join-time defaults.
func NewCharacter(userID int, username string, roomID int) Character {
	return Character{
		ID:              userID,
		Username:        username,
		Room:            roomID,
		X:               100,
		Y:               100,
		Width:           30,
		Height:          30,
		Speed:           1,
		Direction:       DirectionDown,
		IsMoving:        false,
		IsSleeping:      false,
		CurrentBedIndex: -1,
		BubbleMessage:   nil,
	}
}

// CharacterPatch is a partial character update. Nil fields are left unchanged.
// An empty BubbleMessage clears the bubble.
type CharacterPatch struct {
	X               *float64   `json:"x,omitempty"`
	Y               *float64   `json:"y,omitempty"`
	Width           *float64   `json:"width,omitempty"`
	Height          *float64   `json:"height,omitempty"`
	Speed           *float64   `json:"speed,omitempty"`
	Direction       *Direction `json:"direction,omitempty"`
	IsMoving        *bool      `json:"isMoving,omitempty"`
	IsSleeping      *bool      `json:"isSleeping,omitempty"`
	CurrentBedIndex *int       `json:"currentBedIndex,omitempty"`
	BubbleMessage   *string    `json:"bubbleMessage,omitempty"`
}

// Apply merges the supplied fields of p into c.
func (c *Character) Apply(p CharacterPatch) {
	if p.X != nil {
		c.X = *p.X
	}
	if p.Y != nil {
		c.Y = *p.Y
	}
	if p.Width != nil {
		c.Width = *p.Width
	}
	if p.Height != nil {
		c.Height = *p.Height
	}
	if p.Speed != nil {
		c.Speed = *p.Speed
	}
	if p.Direction != nil && p.Direction.Valid() {
		c.Direction = *p.Direction
	}
	if p.IsMoving != nil {
		c.IsMoving = *p.IsMoving
	}
	if p.IsSleeping != nil {
		c.IsSleeping = *p.IsSleeping
	}
	if p.CurrentBedIndex != nil {
		c.CurrentBedIndex = *p.CurrentBedIndex
	}
	if p.BubbleMessage != nil {
		if *p.BubbleMessage == "" {
			c.BubbleMessage = nil
		} else {
			bubble := *p.BubbleMessage
			c.BubbleMessage = &bubble
		}
	}
}

// Message is a chat entry in a room's bounded history.
// System messages carry SenderBot and no user fields.
type Message struct {
	Sender    Sender    `json:"sender"`
	UserID    int       `json:"userId,omitempty"`
	Username  string    `json:"username,omitempty"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
