package api

import (
	"encoding/json"
	"time"
)

// RegisterRequest is the API request to register an account.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

// LoginRequest is the API request to log in.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest is the API request to refresh tokens.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UserResponse is the API representation of an account.
type UserResponse struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenResponse is the API response carrying a token pair.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// LoginResponse is the API response for a successful login.
type LoginResponse struct {
	User   UserResponse  `json:"user"`
	Tokens TokenResponse `json:"tokens"`
}

// ProfileResponse is the API response for the authenticated user's profile.
type ProfileResponse struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Nickname  string    `json:"nickname"`
	RoomID    int       `json:"room_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRoomRequest is the API request to create a room.
type CreateRoomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity"`
}

// RoomResponse is the API representation of a room.
type RoomResponse struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Capacity    int       `json:"capacity"`
	Current     int       `json:"current"`
	OwnerID     int       `json:"owner_id"`
	OwnerName   string    `json:"owner_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// RoomListResponse is the API response for listing rooms.
type RoomListResponse struct {
	Rooms []RoomResponse `json:"rooms"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// Client-to-server WebSocket event types.
const (
	wsTypeJoinRoom        = "join-room"
	wsTypeCharacterUpdate = "character-update"
	wsTypeSendMessage     = "send-message"
	wsTypeLeaveRoom       = "leave-room"
)

// clientEvent is the inbound WebSocket frame. Payload stays raw until the
// type-specific handler decodes it.
type clientEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// joinRoomPayload is the payload of a join-room frame.
type joinRoomPayload struct {
	RoomID int `json:"roomId"`
}

// messagePayload is the payload of a send-message frame.
type messagePayload struct {
	Content string `json:"content"`
}
