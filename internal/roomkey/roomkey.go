// Package roomkey is the crypto boundary: one symmetric key per room,
// sealed tokens at rest. All failures are explicit return values so the
// engine's fallback branches stay visible.
package roomkey

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	KeySize   = 32
	nonceSize = 24
)

var (
	ErrBadToken   = errors.New("malformed token")
	ErrOpenFailed = errors.New("decryption failed")
	ErrBadKey     = errors.New("bad key encoding")
)

// Key is a room's symmetric key, immutable for the room's lifetime.
type Key [KeySize]byte

func Generate() (Key, error) {
	var k Key
	if _, err := io.ReadFull(rand.Reader, k[:]); err != nil {
		return Key{}, err
	}
	return k, nil
}

// Encode returns the transport-safe form sent to joining clients.
func (k Key) Encode() string {
	return base64.URLEncoding.EncodeToString(k[:])
}

func Decode(s string) (Key, error) {
	raw, err := base64.URLEncoding.DecodeString(s)
	if err != nil || len(raw) != KeySize {
		return Key{}, ErrBadKey
	}
	var k Key
	copy(k[:], raw)
	return k, nil
}

// Seal encrypts plaintext into a base64 token with the nonce prepended.
func (k Key) Seal(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}
	key := [KeySize]byte(k)
	box := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &key)
	return base64.URLEncoding.EncodeToString(box), nil
}

// Open reverses Seal. It returns ErrOpenFailed on authentication failure
// and ErrBadToken when the token is not even well-formed.
func (k Key) Open(token string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", ErrBadToken
	}
	if len(raw) < nonceSize {
		return "", ErrBadToken
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	key := [KeySize]byte(k)
	out, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &key)
	if !ok {
		return "", ErrOpenFailed
	}
	return string(out), nil
}
