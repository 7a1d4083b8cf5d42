package relay

import (
	"sync"
	"time"

	domain "github.com/example/room-relay/domain/relay"
)

const (
	// maxHistorySize is the number of messages retained per room.
	maxHistorySize = 50
	// replayCount is how many recent messages a joiner receives.
	replayCount = 10
	// maxKeyAttempts bounds key regeneration on the (negligible) collision case.
	maxKeyAttempts = 10
)

// room is the store-internal room state. Never handed out; callers get
// RoomInfo copies and history snapshots.
type room struct {
	key       string
	members   map[string]bool // set of client IDs
	history   []domain.Message
	createdAt time.Time
}

// LeaveResult describes a completed leave transition.
type LeaveResult struct {
	RoomKey          string
	ParticipantCount int  // members remaining after the leave
	Deleted          bool // room was removed because it became empty
}

// JoinResult describes a completed join transition.
type JoinResult struct {
	Room    domain.RoomInfo
	History []domain.Message // most recent messages, oldest first
	Left    *LeaveResult     // previous room left as part of the join, if any
}

// CreateResult describes a completed create transition.
type CreateResult struct {
	Room domain.RoomInfo
	Left *LeaveResult // previous room left as part of the create, if any
}

// Store owns every room and the connection-room index. A single mutex guards
// both maps so each compound transition (check existence, mutate membership,
// compute the new count) is indivisible, and membership and index can never
// disagree. Traffic at this system's scale does not warrant per-room locking.
type Store struct {
	mu     sync.Mutex
	rooms  map[string]*room
	index  map[string]string // clientID -> room key
	newKey KeyFunc
}

// NewStore creates an empty store using the given key generator.
func NewStore(newKey KeyFunc) *Store {
	if newKey == nil {
		newKey = GenerateKey
	}
	return &Store{
		rooms:  make(map[string]*room),
		index:  make(map[string]string),
		newKey: newKey,
	}
}

// Create makes a new room and binds clientID as its first member. If the
// client is currently in another room it is removed from that room first, with
// the same side effects as Leave.
func (s *Store) Create(clientID string) (CreateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := s.uniqueKey()
	if err != nil {
		return CreateResult{}, err
	}

	left := s.leaveLocked(clientID)

	r := &room{
		key:       key,
		members:   map[string]bool{clientID: true},
		createdAt: time.Now(),
	}
	s.rooms[key] = r
	s.index[clientID] = key

	return CreateResult{Room: s.infoLocked(r), Left: left}, nil
}

// uniqueKey generates a room key, regenerating on collision with an existing
// room. Caller must hold s.mu.
func (s *Store) uniqueKey() (string, error) {
	for i := 0; i < maxKeyAttempts; i++ {
		key, err := s.newKey()
		if err != nil {
			return "", err
		}
		if _, exists := s.rooms[key]; !exists {
			return key, nil
		}
	}
	return "", ErrKeyGeneration
}

// Get returns a copy of the room's visible state.
func (s *Store) Get(key string) (domain.RoomInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[key]
	if !ok {
		return domain.RoomInfo{}, false
	}
	return s.infoLocked(r), true
}

// Join adds clientID to the room identified by key. If the room does not
// exist the client's state is left untouched. Otherwise any current room is
// left first, and the result carries the new participant count plus a replay
// snapshot of the most recent history, oldest first. Both are taken inside the
// same critical section that added the member.
func (s *Store) Join(key, clientID string) (JoinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[key]
	if !ok {
		return JoinResult{}, ErrRoomNotFound
	}

	left := s.leaveLocked(clientID)

	r.members[clientID] = true
	s.index[clientID] = key

	n := len(r.history)
	if n > replayCount {
		n = replayCount
	}
	history := make([]domain.Message, n)
	copy(history, r.history[len(r.history)-n:])

	return JoinResult{Room: s.infoLocked(r), History: history, Left: left}, nil
}

// Record builds a message for the client's current room and appends it to the
// room's history, trimming to the most recent maxHistorySize entries. The
// message is constructed under the store lock, so timestamps are monotonically
// non-decreasing within a room.
func (s *Store) Record(clientID, text, sender string) (domain.Message, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.index[clientID]
	if !ok {
		return domain.Message{}, "", ErrNotInRoom
	}
	r := s.rooms[key]

	msg := domain.Message{
		ID:        NewMessageID(),
		Text:      text,
		Sender:    sender,
		Timestamp: time.Now(),
	}
	r.history = append(r.history, msg)
	if len(r.history) > maxHistorySize {
		r.history = r.history[len(r.history)-maxHistorySize:]
	}

	return msg, key, nil
}

// Leave removes clientID from its current room, unbinds it, and deletes the
// room the instant it becomes empty. Idempotent: returns ok=false when the
// client was not in any room.
func (s *Store) Leave(clientID string) (LeaveResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	left := s.leaveLocked(clientID)
	if left == nil {
		return LeaveResult{}, false
	}
	return *left, true
}

// leaveLocked performs the leave transition. Returns nil when clientID is not
// bound to any room. Caller must hold s.mu.
func (s *Store) leaveLocked(clientID string) *LeaveResult {
	key, ok := s.index[clientID]
	if !ok {
		return nil
	}
	delete(s.index, clientID)

	r := s.rooms[key]
	delete(r.members, clientID)

	res := &LeaveResult{RoomKey: key, ParticipantCount: len(r.members)}
	if len(r.members) == 0 {
		delete(s.rooms, key)
		res.Deleted = true
	}
	return res
}

// RoomOf returns the key of the room clientID is currently bound to.
func (s *Store) RoomOf(clientID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.index[clientID]
	return key, ok
}

// SweepIdle removes every room that has no members and is older than maxAge,
// returning the removed keys. Emptiness is re-checked here under the same
// mutex used by Join/Leave, so a room that gained a member between sweep
// decision and deletion cannot be removed.
func (s *Store) SweepIdle(maxAge time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	cutoff := time.Now().Add(-maxAge)
	for key, r := range s.rooms {
		if len(r.members) == 0 && r.createdAt.Before(cutoff) {
			delete(s.rooms, key)
			removed = append(removed, key)
		}
	}
	return removed
}

// RoomCount returns the number of active rooms.
func (s *Store) RoomCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// infoLocked builds the visible view of a room. Caller must hold s.mu.
func (s *Store) infoLocked(r *room) domain.RoomInfo {
	return domain.RoomInfo{
		Key:              r.key,
		CreatedAt:        r.createdAt,
		ParticipantCount: len(r.members),
	}
}
