package domain

// SessionID identifies one live connection. It is minted by the
// transport adapter and never reused.
type SessionID string

// Session binds a connection to its identity and current room.
// A connection without a session is unauthenticated.
type Session struct {
	ID       SessionID
	Username string
	Avatar   string
	RoomID   RoomID
}
