package app

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hushchat/hush/internal/domain"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNotJoined    = errors.New("not joined")
)

// Orchestrator keeps the session table and room membership in lockstep.
// Every operation either fully succeeds or leaves both untouched.
type Orchestrator struct {
	Registry *Registry
	Rooms    *Rooms
}

func NewOrchestrator() *Orchestrator {
	return &Orchestrator{Registry: NewRegistry(), Rooms: NewRooms()}
}

// Join adds the connection to the room and attaches its session. The
// member entry is written before the session becomes visible to
// broadcasts, so no event can reach a half-constructed join. Rejoining
// moves the membership out of any previous room first.
func (o *Orchestrator) Join(sid domain.SessionID, roomID domain.RoomID, m domain.Member, conn Conn) (*Room, error) {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if prev, ok := o.Registry.Lookup(sid); ok && prev.RoomID != roomID {
		if old, ok := o.Rooms.Get(prev.RoomID); ok {
			old.RemoveMember(sid)
		}
		log.Info().Str("module", "app.orchestrator").Str("sid", string(sid)).Str("from_room", string(prev.RoomID)).Msg("moved out of previous room")
	}
	room.AddMember(sid, m)
	o.Registry.Attach(sid, m, roomID, conn)
	return room, nil
}

// Disconnect tears down the session/member pair. Safe to call twice for
// the same connection; the second call reports no prior session.
func (o *Orchestrator) Disconnect(sid domain.SessionID) (domain.Session, *Room, bool) {
	sess, ok := o.Registry.Detach(sid)
	if !ok {
		return domain.Session{}, nil, false
	}
	room, ok := o.Rooms.Get(sess.RoomID)
	if !ok {
		return sess, nil, true
	}
	room.RemoveMember(sid)
	return sess, room, true
}

// Post seals the text under the room key, appends it to history and
// returns the display form for fan-out. The freshly composed plaintext
// is broadcast directly; only storage holds ciphertext. If sealing
// itself errors the plaintext is stored as-is, still flagged encrypted,
// trading confidentiality for availability.
func (o *Orchestrator) Post(sid domain.SessionID, text string) (domain.Message, *Room, error) {
	sess, ok := o.Registry.Lookup(sid)
	if !ok {
		return domain.Message{}, nil, ErrNotJoined
	}
	room, ok := o.Rooms.Get(sess.RoomID)
	if !ok {
		return domain.Message{}, nil, ErrRoomNotFound
	}

	stamp := domain.Stamp(time.Now())
	body, err := room.Key().Seal(text)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.orchestrator").Str("room", string(room.ID())).Msg("seal failed, storing plaintext")
		body = text
	}
	room.Append(domain.StoredMessage{
		Username:  sess.Username,
		Avatar:    sess.Avatar,
		Body:      body,
		Timestamp: stamp,
		Encrypted: true,
	})

	return domain.Message{
		Username:  sess.Username,
		Avatar:    sess.Avatar,
		Body:      text,
		Timestamp: stamp,
		Encrypted: true,
	}, room, nil
}
