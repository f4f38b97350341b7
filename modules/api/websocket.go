package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	domain "github.com/example/room-presence-demo/domain/presence"
	"github.com/example/room-presence-demo/modules/broadcast"
	"github.com/example/room-presence-demo/modules/presence"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

const maxMessageLength = 4096

// handleWebSocket handles WebSocket connections at /ws. The access token is
// carried in the "token" query parameter; an unauthenticated connection is
// closed without any payload.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	token := c.Query("token")
	if token == "" {
		_ = c.Close()
		return
	}

	claims, err := m.authAdapter.ValidateToken(context.Background(), token)
	if err != nil {
		log.Printf("[api] WebSocket auth failed: %v", err)
		_ = c.Close()
		return
	}

	svc := m.presence.Service()
	connID := uuid.New().String()

	client := &broadcast.Client{
		ID:       connID,
		UserID:   claims.UserID,
		Username: claims.Username,
		Conn:     c,
	}

	m.hub.Register(client)
	defer func() {
		svc.Disconnect(connID)
		m.hub.Unregister(client)
		log.Printf("[api] WebSocket client disconnected: %s (%s)", connID, claims.Username)
	}()

	log.Printf("[api] WebSocket client connected: %s (%s)", connID, claims.Username)

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[api] Client %s closed connection", connID)
			} else {
				log.Printf("[api] Read error from %s: %v", connID, err)
			}
			break
		}

		var event clientEvent
		if err := json.Unmarshal(msgBytes, &event); err != nil {
			m.sendError(client, "Invalid message format")
			continue
		}

		switch event.Type {
		case wsTypeJoinRoom:
			m.handleJoinRoom(client, svc, event.Payload)
		case wsTypeCharacterUpdate:
			m.handleCharacterUpdate(client, svc, event.Payload)
		case wsTypeSendMessage:
			m.handleSendMessage(client, svc, event.Payload)
		case wsTypeLeaveRoom:
			m.handleLeaveRoom(client, svc)
		default:
			m.sendError(client, "Unknown message type: "+event.Type)
		}
	}
}

func (m *APIModule) handleJoinRoom(client *broadcast.Client, svc *presence.Service, payload json.RawMessage) {
	var req joinRoomPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		m.sendError(client, "Invalid join-room payload")
		return
	}

	result, err := svc.Join(context.Background(), client.ID, client.UserID, client.Username, req.RoomID)
	if err != nil {
		switch {
		case errors.Is(err, presence.ErrRoomNotFound):
			m.sendError(client, "Room not found")
		case errors.Is(err, presence.ErrAlreadyInRoom):
			m.sendError(client, "Already in this room")
		default:
			log.Printf("[api] Join failed for %s: %v", client.ID, err)
			m.sendError(client, "Failed to join room")
		}
		return
	}

	// Subscribe to the room's fan-out before confirming so no broadcast
	// slips through the gap.
	m.hub.JoinRoom(client.ID, result.RoomID)

	_ = client.Send(broadcast.Envelope{
		Type: broadcast.EventJoinSuccess,
		Payload: broadcast.RoomSnapshotPayload{
			RoomID:     result.RoomID,
			Character:  result.Character,
			Characters: result.Characters,
			Messages:   result.Messages,
		},
	})
}

func (m *APIModule) handleCharacterUpdate(client *broadcast.Client, svc *presence.Service, payload json.RawMessage) {
	var patch domain.CharacterPatch
	if err := json.Unmarshal(payload, &patch); err != nil {
		m.sendError(client, "Invalid character-update payload")
		return
	}

	if err := svc.UpdateCharacter(context.Background(), client.ID, patch); err != nil {
		switch {
		case errors.Is(err, presence.ErrBedOccupied):
			m.sendError(client, "This bed is already occupied")
		case errors.Is(err, presence.ErrSessionNotFound):
			m.sendError(client, "Join a room first")
		default:
			log.Printf("[api] Character update failed for %s: %v", client.ID, err)
			m.sendError(client, "Failed to update character")
		}
	}
}

func (m *APIModule) handleSendMessage(client *broadcast.Client, svc *presence.Service, payload json.RawMessage) {
	var req messagePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		m.sendError(client, "Invalid send-message payload")
		return
	}

	if req.Content == "" {
		m.sendError(client, "Message content is required")
		return
	}
	if len(req.Content) > maxMessageLength {
		m.sendError(client, "Message too long")
		return
	}

	if _, err := svc.SendMessage(context.Background(), client.ID, req.Content); err != nil {
		if errors.Is(err, presence.ErrSessionNotFound) {
			m.sendError(client, "Join a room first")
			return
		}
		log.Printf("[api] Send message failed for %s: %v", client.ID, err)
		m.sendError(client, "Failed to send message")
	}
}

func (m *APIModule) handleLeaveRoom(client *broadcast.Client, svc *presence.Service) {
	// Leaving when not in a room is a no-op.
	if _, ok := svc.Leave(client.ID); ok {
		m.hub.LeaveRoom(client.ID)
	}
}

func (m *APIModule) sendError(client *broadcast.Client, message string) {
	_ = client.Send(broadcast.Envelope{
		Type:    broadcast.EventError,
		Payload: broadcast.ErrorPayload{Message: message},
	})
}
