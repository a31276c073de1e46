package chat

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hushchat/hush/internal/app"
	"github.com/hushchat/hush/internal/domain"
)

func (ctl *ChatWSController) handleJoin(sid domain.SessionID, conn app.Conn, data []byte) {
	type joinPayload struct {
		Type     string `json:"type"`
		RoomID   string `json:"room_id"`
		Username string `json:"username"`
		Avatar   string `json:"avatar"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "chat").Msg("bad join payload")
		ctl.sendError(conn, "Invalid payload")
		return
	}

	roomID := domain.RoomID(strings.ToUpper(strings.TrimSpace(p.RoomID)))
	if roomID == "" || !ctl.Orch.Rooms.Exists(roomID) {
		log.Warn().Str("module", "chat").Str("sid", string(sid)).Str("room", string(roomID)).Msg("join to unknown room")
		ctl.sendError(conn, "Invalid room ID")
		return
	}

	member, err := domain.NewMember(strings.TrimSpace(p.Username), p.Avatar)
	if err != nil {
		ctl.sendError(conn, "Username and avatar are required")
		return
	}

	room, err := ctl.Orch.Join(sid, roomID, member, conn)
	if err != nil {
		ctl.sendError(conn, "Invalid room ID")
		return
	}
	log.Info().Str("module", "chat").Str("sid", string(sid)).Str("room", string(roomID)).Str("username", member.Username).Msg("joined")

	// The key is shared with every room member over the join event; this
	// is room-level at-rest encryption, not end-to-end.
	ctl.sendJSON(conn, struct {
		Type          string `json:"type"`
		EncryptionKey string `json:"encryption_key"`
	}{"room_key", room.Key().Encode()})

	ctl.sendJSON(conn, struct {
		Type     string           `json:"type"`
		Messages []domain.Message `json:"messages"`
	}{"message_history", room.Recent()})

	ctl.broadcastFrom(sid, roomID, struct {
		Type      string `json:"type"`
		Username  string `json:"username"`
		Avatar    string `json:"avatar"`
		Timestamp string `json:"timestamp"`
	}{"user_joined", member.Username, member.Avatar, domain.Stamp(time.Now())})

	ctl.broadcastUserList(room)

	ctl.sendJSON(conn, struct {
		Type string `json:"type"`
	}{"joined_successfully"})
}

// disconnect runs when the transport reports the connection gone. It is
// idempotent: a second call finds no session and emits nothing.
func (ctl *ChatWSController) disconnect(sid domain.SessionID) {
	sess, room, ok := ctl.Orch.Disconnect(sid)
	ctl.limiter.Forget(sid)
	if !ok || room == nil {
		return
	}
	log.Info().Str("module", "chat").Str("sid", string(sid)).Str("room", string(sess.RoomID)).Msg("disconnected")

	ctl.broadcastRoom(sess.RoomID, struct {
		Type      string `json:"type"`
		Username  string `json:"username"`
		Timestamp string `json:"timestamp"`
	}{"user_left", sess.Username, domain.Stamp(time.Now())})

	ctl.broadcastUserList(room)
}

func (ctl *ChatWSController) broadcastUserList(room *app.Room) {
	users := room.MembersSnapshot()
	ctl.broadcastRoom(room.ID(), struct {
		Type  string          `json:"type"`
		Users []domain.Member `json:"users"`
		Count int             `json:"count"`
	}{"user_list_update", users, len(users)})
}
