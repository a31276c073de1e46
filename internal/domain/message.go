package domain

import "time"

// StoredMessage is the at-rest form kept in a room's history.
// Body holds ciphertext; it only ever holds plaintext when sealing
// itself failed at write time.
type StoredMessage struct {
	Username  string
	Avatar    string
	Body      string
	Timestamp string
	Encrypted bool
}

// Message is the display form sent to clients.
type Message struct {
	Username  string `json:"username"`
	Avatar    string `json:"avatar"`
	Body      string `json:"message"`
	Timestamp string `json:"timestamp"`
	Encrypted bool   `json:"is_encrypted"`
}

// Stamp formats wall-clock time at the minute precision the protocol uses.
func Stamp(t time.Time) string {
	return t.Format("15:04")
}
