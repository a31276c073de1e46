package app

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hushchat/hush/internal/domain"
	"github.com/hushchat/hush/internal/roomkey"
)

const (
	// historyLimit is the maximum number of messages kept per room;
	// the oldest entries are evicted first.
	historyLimit = 100
	// replayLimit is how much history a joining member receives.
	replayLimit = 50

	roomIDLen = 8
)

// Room is a threadsafe in-memory room. All member and history mutations
// are serialized by its own lock, so unrelated rooms never contend.
type Room struct {
	meta domain.Room
	key  roomkey.Key

	mu      sync.RWMutex
	members map[domain.SessionID]domain.Member
	history []domain.StoredMessage
}

func (r *Room) ID() domain.RoomID { return r.meta.ID }

func (r *Room) Key() roomkey.Key { return r.key }

// AddMember inserts or overwrites the entry for sid. Idempotent per connection.
func (r *Room) AddMember(sid domain.SessionID, m domain.Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[sid] = m
	log.Info().Str("module", "app.room").Str("room", string(r.meta.ID)).Str("sid", string(sid)).Str("username", m.Username).Msg("member added")
}

// RemoveMember is a no-op when sid is not a member.
func (r *Room) RemoveMember(sid domain.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[sid]; !ok {
		return
	}
	delete(r.members, sid)
	log.Info().Str("module", "app.room").Str("room", string(r.meta.ID)).Str("sid", string(sid)).Msg("member removed")
}

func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *Room) MembersSnapshot() []domain.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m)
	}
	return out
}

// Append adds a stored message and trims history to the most recent
// historyLimit entries.
func (r *Room) Append(msg domain.StoredMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, msg)
	if len(r.history) > historyLimit {
		r.history = r.history[len(r.history)-historyLimit:]
	}
}

// Recent returns up to the last replayLimit messages in send order,
// decrypted for display. A body that fails to open is returned verbatim;
// replay never fails.
func (r *Room) Recent() []domain.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	start := 0
	if len(r.history) > replayLimit {
		start = len(r.history) - replayLimit
	}
	out := make([]domain.Message, 0, len(r.history)-start)
	for _, msg := range r.history[start:] {
		body := msg.Body
		if msg.Encrypted {
			if plain, err := r.key.Open(msg.Body); err == nil {
				body = plain
			}
		}
		out = append(out, domain.Message{
			Username:  msg.Username,
			Avatar:    msg.Avatar,
			Body:      body,
			Timestamp: msg.Timestamp,
			Encrypted: true,
		})
	}
	return out
}

func (r *Room) historyLen() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.history)
}

// Rooms is the registry of live rooms. Rooms are never deleted; an empty
// room stays joinable for the process lifetime.
type Rooms struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*Room
}

func NewRooms() *Rooms {
	return &Rooms{rooms: make(map[domain.RoomID]*Room)}
}

// Create inserts an empty room under a fresh ID and key.
func (f *Rooms) Create() (*Room, error) {
	key, err := roomkey.Generate()
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := newRoomID()
	for {
		if _, taken := f.rooms[id]; !taken {
			break
		}
		id = newRoomID()
	}
	room := &Room{
		meta:    domain.Room{ID: id, CreatedAt: time.Now()},
		key:     key,
		members: make(map[domain.SessionID]domain.Member),
	}
	f.rooms[id] = room
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room created")
	return room, nil
}

func (f *Rooms) Get(id domain.RoomID) (*Room, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[id]
	return room, ok
}

func (f *Rooms) Exists(id domain.RoomID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.rooms[id]
	return ok
}

type RoomInfo struct {
	ID          domain.RoomID `json:"room_id"`
	MemberCount int           `json:"member_count"`
}

func (f *Rooms) List() []RoomInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]RoomInfo, 0, len(f.rooms))
	for id, r := range f.rooms {
		out = append(out, RoomInfo{ID: id, MemberCount: r.MemberCount()})
	}
	return out
}

func newRoomID() domain.RoomID {
	id := strings.ToUpper(uuid.NewString()[:roomIDLen])
	return domain.RoomID(id)
}
