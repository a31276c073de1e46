package domain

import "time"

type RoomID string

// Room is pure meta. Membership, key and history are owned by the
// app layer, which serializes access per room.
type Room struct {
	ID        RoomID
	CreatedAt time.Time
}
