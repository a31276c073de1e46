// Package domain contains entities without logic, just meta-data.
package domain

import "errors"

const (
	MaxUsernameLen = 36
	MaxAvatarLen   = 36
)

var (
	ErrUsernameEmpty   = errors.New("username empty")
	ErrUsernameTooLong = errors.New("username too long")
	ErrAvatarEmpty     = errors.New("avatar empty")
	ErrAvatarTooLong   = errors.New("avatar too long")
)

// Member is a room-scoped identity bound to one live connection.
// Username and avatar are fixed for the lifetime of the session.
type Member struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// NewMember avoids raw literals in adapters and keeps validation in one place.
func NewMember(username, avatar string) (Member, error) {
	if len(username) == 0 {
		return Member{}, ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return Member{}, ErrUsernameTooLong
	}
	if len(avatar) == 0 {
		return Member{}, ErrAvatarEmpty
	}
	if len(avatar) > MaxAvatarLen {
		return Member{}, ErrAvatarTooLong
	}
	return Member{Username: username, Avatar: avatar}, nil
}
