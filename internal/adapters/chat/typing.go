package chat

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/hushchat/hush/internal/domain"
)

// Typing indicators from unauthenticated connections are dropped
// silently; they are not worth an error round-trip.
func (ctl *ChatWSController) handleTyping(sid domain.SessionID, data []byte) {
	type typingPayload struct {
		Type     string `json:"type"`
		IsTyping bool   `json:"is_typing"`
	}
	var p typingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "chat").Msg("bad typing payload")
		return
	}

	sess, ok := ctl.Orch.Registry.Lookup(sid)
	if !ok {
		return
	}

	ctl.broadcastFrom(sid, sess.RoomID, struct {
		Type     string `json:"type"`
		Username string `json:"username"`
		Avatar   string `json:"avatar"`
		IsTyping bool   `json:"is_typing"`
	}{"user_typing", sess.Username, sess.Avatar, p.IsTyping})
}
