package presence

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	domain "github.com/example/room-presence-demo/domain/presence"
	"github.com/example/room-presence-demo/domain/room"
	"github.com/example/room-presence-demo/events"
)

// defaultBotReplyDelay is how long the bot waits before answering a
// good-night message.
const defaultBotReplyDelay = time.Second

// Catalog is the durable room catalog consumed for hydration. GetByID
// returns (nil, nil) for an unknown id.
type Catalog interface {
	List(ctx context.Context) ([]room.Record, error)
	GetByID(ctx context.Context, id int) (*room.Record, error)
}

// Publisher fans presence events out to room subscribers. Delivery is
// best-effort fire-and-forget.
type Publisher interface {
	PersonJoined(events.PersonJoinedEvent)
	CharacterUpdated(events.CharacterUpdatedEvent)
	NewMessage(events.NewMessageEvent)
	PersonLeft(events.PersonLeftEvent)
}

// Service owns the live room registry and the session index and implements
// the session event protocol: join, character update, message, leave and
// disconnect.
type Service struct {
	registry  *Registry
	index     *SessionIndex
	catalog   Catalog
	publisher Publisher
	botDelay  time.Duration
}

// NewService creates a presence service around the given collaborators.
func NewService(registry *Registry, index *SessionIndex, catalog Catalog, publisher Publisher) *Service {
	return &Service{
		registry:  registry,
		index:     index,
		catalog:   catalog,
		publisher: publisher,
		botDelay:  defaultBotReplyDelay,
	}
}

// Hydrate populates the registry from the full catalog listing.
func (s *Service) Hydrate(ctx context.Context) error {
	records, err := s.catalog.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list room catalog: %w", err)
	}
	for _, rec := range records {
		s.registry.Hydrate(rec.ID, rec.Name)
	}
	return nil
}

// Registry returns the live room registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Sessions returns the session index.
func (s *Service) Sessions() *SessionIndex {
	return s.index
}

// Join places the identified user into roomID, lazily hydrating the room
// from the catalog on first reference. On success the session index gains an
// entry for connID and the joined snapshot is returned for the direct
// response; the same snapshot is broadcast room-wide.
func (s *Service) Join(ctx context.Context, connID string, userID int, username string, roomID int) (*JoinResult, error) {
	rm := s.registry.Get(roomID)
	if rm == nil {
		rec, err := s.catalog.GetByID(ctx, roomID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up room %d: %w", roomID, err)
		}
		if rec == nil {
			return nil, ErrRoomNotFound
		}
		rm = s.registry.Hydrate(rec.ID, rec.Name)
	}

	state, err := rm.Join(userID, username)
	if err != nil {
		return nil, err
	}

	s.index.Put(connID, Session{UserID: userID, RoomID: roomID, Username: username})

	s.publisher.NewMessage(events.NewMessageEvent{RoomID: roomID, Message: state.System})
	s.publisher.PersonJoined(events.PersonJoinedEvent{
		Origin:     connID,
		RoomID:     roomID,
		Character:  state.Character,
		Characters: state.Characters,
		Messages:   state.Messages,
	})

	log.Printf("[presence] User %d joined room %d (%d occupants)", userID, roomID, len(state.Characters))

	return &JoinResult{
		RoomID:     roomID,
		Character:  state.Character,
		Characters: state.Characters,
		Messages:   state.Messages,
	}, nil
}

// UpdateCharacter merges a partial patch into the requester's character and
// broadcasts the updated state. Spatial values are relayed as-is; the only
// rejected patch is one that claims an occupied bed.
func (s *Service) UpdateCharacter(_ context.Context, connID string, patch domain.CharacterPatch) error {
	sess, ok := s.index.Get(connID)
	if !ok {
		return ErrSessionNotFound
	}

	rm := s.registry.Get(sess.RoomID)
	if rm == nil {
		return ErrRoomNotFound
	}

	state, found, err := rm.Update(sess.UserID, patch)
	if err != nil {
		return err
	}
	if !found {
		// Character already removed; nothing to broadcast.
		return nil
	}

	for _, sys := range state.System {
		s.publisher.NewMessage(events.NewMessageEvent{RoomID: sess.RoomID, Message: sys})
	}
	s.publisher.CharacterUpdated(events.CharacterUpdatedEvent{
		RoomID:     sess.RoomID,
		Character:  state.Character,
		Characters: state.Characters,
		Messages:   state.Messages,
	})

	return nil
}

// SendMessage appends a user message to the requester's room history and
// broadcasts it. Content is relayed without filtering or throttling.
func (s *Service) SendMessage(_ context.Context, connID string, content string) (*domain.Message, error) {
	sess, ok := s.index.Get(connID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	rm := s.registry.Get(sess.RoomID)
	if rm == nil {
		return nil, ErrRoomNotFound
	}

	msg := domain.Message{
		Sender:    domain.SenderUser,
		UserID:    sess.UserID,
		Username:  sess.Username,
		Content:   content,
		Timestamp: time.Now(),
	}
	rm.Append(msg)
	s.publisher.NewMessage(events.NewMessageEvent{RoomID: sess.RoomID, Message: msg})

	if wantsBotReply(content) {
		roomID := sess.RoomID
		username := sess.Username
		time.AfterFunc(s.botDelay, func() {
			s.addBotMessage(roomID, fmt.Sprintf("%s, sweet dreams!", username))
		})
	}

	return &msg, nil
}

// Leave removes the requester from their room and clears the session index
// entry. Returns the room id left, or false if the connection had no live
// membership.
func (s *Service) Leave(connID string) (int, bool) {
	sess, ok := s.index.Get(connID)
	if !ok {
		return 0, false
	}

	s.removeFromRoom(sess)

	// Cleared unconditionally so a disconnect after an explicit leave is a
	// true no-op rather than a second departure broadcast.
	s.index.Delete(connID)

	return sess.RoomID, true
}

// Disconnect runs the same removal path as Leave and additionally tolerates
// a connection that never joined or already left.
func (s *Service) Disconnect(connID string) {
	if roomID, ok := s.Leave(connID); ok {
		log.Printf("[presence] Connection %s disconnected from room %d", connID, roomID)
	}
	s.index.Delete(connID)
}

// addBotMessage appends a server-originated message to a known room and
// broadcasts it. Unknown rooms are a silent no-op.
func (s *Service) addBotMessage(roomID int, content string) {
	rm := s.registry.Get(roomID)
	if rm == nil {
		return
	}
	msg := rm.AppendBot(content)
	s.publisher.NewMessage(events.NewMessageEvent{RoomID: roomID, Message: msg})
}

func (s *Service) removeFromRoom(sess Session) {
	rm := s.registry.Get(sess.RoomID)
	if rm == nil {
		return
	}

	sys, removed := rm.Remove(sess.UserID, sess.Username)
	if !removed {
		return
	}

	s.publisher.NewMessage(events.NewMessageEvent{RoomID: sess.RoomID, Message: sys})
	s.publisher.PersonLeft(events.PersonLeftEvent{RoomID: sess.RoomID, UserID: sess.UserID})
}

func wantsBotReply(content string) bool {
	lower := strings.ToLower(content)
	return strings.Contains(lower, "good night") || strings.Contains(lower, "sleep")
}
