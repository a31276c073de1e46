package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hushchat/hush/internal/domain"
)

// Conn is the one thing the core needs from a transport endpoint.
// Owned by the adapter; the adapter must close it.
type Conn interface {
	TrySend(data []byte) error
}

type sessionEntry struct {
	sess domain.Session
	conn Conn
}

// Registry is the session table: one entry per live connection that has
// completed a join. It is kept in lockstep with room membership by the
// orchestrator.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.SessionID]*sessionEntry)}
}

func (r *Registry) Attach(sid domain.SessionID, m domain.Member, roomID domain.RoomID, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{
		sess: domain.Session{ID: sid, Username: m.Username, Avatar: m.Avatar, RoomID: roomID},
		conn: conn,
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(roomID)).Msg("attached session")
}

func (r *Registry) Lookup(sid domain.SessionID) (domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return domain.Session{}, false
	}
	return e.sess, true
}

// Detach removes and returns the prior session. Detaching an unknown
// connection is a safe no-op.
func (r *Registry) Detach(sid domain.SessionID) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return domain.Session{}, false
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("detached session")
	return e.sess, true
}

type MemberSnap struct {
	SID  domain.SessionID
	Conn Conn
}

// MembersOfRoom snapshots the connections currently joined to a room.
// Broadcasts iterate this snapshot outside the registry lock.
func (r *Registry) MembersOfRoom(roomID domain.RoomID) []MemberSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MemberSnap, 0, len(r.sessions))
	for sid, e := range r.sessions {
		if e.sess.RoomID == roomID {
			out = append(out, MemberSnap{SID: sid, Conn: e.conn})
		}
	}
	return out
}
