package presence

import (
	"fmt"
	"sync"
	"time"

	domain "github.com/example/room-presence-demo/domain/presence"
)

// Room is the live, in-memory occupancy and chat-history state for one
// catalog room. All mutation runs under the room mutex, so a join's
// duplicate check and append are atomic with respect to other events.
type Room struct {
	mu         sync.Mutex
	id         int
	name       string
	characters []*domain.Character
	messages   []domain.Message
}

// JoinState is the snapshot returned by a successful join.
type JoinState struct {
	Character  domain.Character
	Characters []domain.Character
	Messages   []domain.Message
	System     domain.Message
}

// UpdateState is the snapshot returned by a merged character patch.
type UpdateState struct {
	Character  domain.Character
	Characters []domain.Character
	Messages   []domain.Message
	System     []domain.Message
}

// ID returns the room id.
func (r *Room) ID() int {
	return r.id
}

// Name returns the display name copied from the catalog at hydration time.
func (r *Room) Name() string {
	return r.name
}

// Join adds a character for userID with join-time defaults and appends the
// "joined the room" system message. Returns ErrAlreadyInRoom if a character
// with this userID is already present.
func (r *Room) Join(userID int, username string) (JoinState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.characters {
		if c.ID == userID {
			return JoinState{}, ErrAlreadyInRoom
		}
	}

	ch := domain.NewCharacter(userID, username, r.id)
	r.characters = append(r.characters, &ch)

	sys := r.appendBotLocked(fmt.Sprintf("%s joined the room", username))

	return JoinState{
		Character:  ch,
		Characters: r.charactersLocked(),
		Messages:   r.messagesLocked(),
		System:     sys,
	}, nil
}

// Update merges patch into the character owned by userID. The server relays
// state as-is; the only check is bed occupancy, since two sleepers in one bed
// corrupts what every other client renders. A missing character is a silent
// no-op (found=false), tolerant of removal racing an in-flight update.
func (r *Room) Update(userID int, patch domain.CharacterPatch) (UpdateState, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ch *domain.Character
	for _, c := range r.characters {
		if c.ID == userID {
			ch = c
			break
		}
	}
	if ch == nil {
		return UpdateState{}, false, nil
	}

	goingToSleep := patch.IsSleeping != nil && *patch.IsSleeping && !ch.IsSleeping
	wakingUp := patch.IsSleeping != nil && !*patch.IsSleeping && ch.IsSleeping

	if patch.CurrentBedIndex != nil && *patch.CurrentBedIndex >= 0 {
		for _, other := range r.characters {
			if other.ID != userID && other.IsSleeping && other.CurrentBedIndex == *patch.CurrentBedIndex {
				return UpdateState{}, true, ErrBedOccupied
			}
		}
	}

	oldBed := ch.CurrentBedIndex
	ch.Apply(patch)

	var system []domain.Message
	if goingToSleep && ch.CurrentBedIndex >= 0 {
		system = append(system, r.appendBotLocked(
			fmt.Sprintf("%s went to sleep in bed %d", ch.Username, ch.CurrentBedIndex)))
	} else if wakingUp {
		if oldBed >= 0 {
			system = append(system, r.appendBotLocked(
				fmt.Sprintf("%s got up from bed %d", ch.Username, oldBed)))
		}
		ch.CurrentBedIndex = -1
	}

	return UpdateState{
		Character:  *ch,
		Characters: r.charactersLocked(),
		Messages:   r.messagesLocked(),
		System:     system,
	}, true, nil
}

// Append adds a message to the bounded history.
func (r *Room) Append(msg domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendLocked(msg)
}

// AppendBot adds a server-originated message to the bounded history.
func (r *Room) AppendBot(content string) domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.appendBotLocked(content)
}

// Remove deletes the character owned by userID and appends the "left the
// room" system message. Removing an absent character is a no-op, so leave
// and disconnect can both run the same path.
func (r *Room) Remove(userID int, username string) (domain.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, c := range r.characters {
		if c.ID == userID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return domain.Message{}, false
	}

	r.characters = append(r.characters[:idx], r.characters[idx+1:]...)
	sys := r.appendBotLocked(fmt.Sprintf("%s left the room", username))
	return sys, true
}

// Characters returns a copy of the current character list.
func (r *Room) Characters() []domain.Character {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.charactersLocked()
}

// Messages returns a copy of the current history, oldest first.
func (r *Room) Messages() []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messagesLocked()
}

func (r *Room) appendLocked(msg domain.Message) {
	r.messages = append(r.messages, msg)
	if len(r.messages) > domain.MaxHistory {
		r.messages = r.messages[len(r.messages)-domain.MaxHistory:]
	}
}

func (r *Room) appendBotLocked(content string) domain.Message {
	msg := domain.Message{
		Sender:    domain.SenderBot,
		Content:   content,
		Timestamp: time.Now(),
	}
	r.appendLocked(msg)
	return msg
}

func (r *Room) charactersLocked() []domain.Character {
	out := make([]domain.Character, 0, len(r.characters))
	for _, c := range r.characters {
		out = append(out, *c)
	}
	return out
}

func (r *Room) messagesLocked() []domain.Message {
	out := make([]domain.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Registry is the table of live rooms, hydrated lazily from the catalog.
// Rooms are never evicted for the process lifetime.
type Registry struct {
	mu    sync.RWMutex
	rooms map[int]*Room
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[int]*Room),
	}
}

// Get returns the live room for id, or nil if it has never been hydrated.
func (g *Registry) Get(id int) *Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rooms[id]
}

// Hydrate creates the live room for id if absent and returns it. Re-hydrating
// an existing room is a no-op and keeps its state.
func (g *Registry) Hydrate(id int, name string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	if r, ok := g.rooms[id]; ok {
		return r
	}
	r := &Room{id: id, name: name}
	g.rooms[id] = r
	return r
}

// Len returns the number of live rooms.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// Session binds a connection to a verified identity and a joined room.
type Session struct {
	UserID   int
	RoomID   int
	Username string
}

// SessionIndex maps connection ids to live joined memberships.
type SessionIndex struct {
	mu      sync.RWMutex
	entries map[string]Session
}

// NewSessionIndex creates an empty session index.
func NewSessionIndex() *SessionIndex {
	return &SessionIndex{
		entries: make(map[string]Session),
	}
}

// Put records the membership for a connection.
func (s *SessionIndex) Put(connID string, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[connID] = sess
}

// Get returns the membership for a connection.
func (s *SessionIndex) Get(connID string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.entries[connID]
	return sess, ok
}

// Delete removes the membership for a connection. Deleting an absent entry
// is a no-op.
func (s *SessionIndex) Delete(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, connID)
}

// Len returns the number of live memberships.
func (s *SessionIndex) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
