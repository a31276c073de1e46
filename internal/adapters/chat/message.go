package chat

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hushchat/hush/internal/app"
	"github.com/hushchat/hush/internal/domain"
)

func (ctl *ChatWSController) handleMessage(sid domain.SessionID, conn app.Conn, data []byte) {
	type messagePayload struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	var p messagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "chat").Msg("bad message payload")
		ctl.sendError(conn, "Invalid payload")
		return
	}

	text := strings.TrimSpace(p.Message)
	if text == "" {
		ctl.sendError(conn, "Message is required")
		return
	}
	if len(text) > ctl.cfg.MaxMessageLen {
		ctl.sendError(conn, "Message too long")
		return
	}
	if !ctl.limiter.Allow(sid) {
		log.Warn().Str("module", "chat").Str("sid", string(sid)).Msg("message rate limited")
		ctl.sendError(conn, "Slow down")
		return
	}

	msg, room, err := ctl.Orch.Post(sid, text)
	if err != nil {
		if errors.Is(err, app.ErrNotJoined) {
			ctl.sendError(conn, "Not authenticated")
			return
		}
		ctl.sendError(conn, "Invalid room ID")
		return
	}

	ctl.broadcastRoom(room.ID(), struct {
		Type string `json:"type"`
		domain.Message
	}{Type: "new_message", Message: msg})
}
