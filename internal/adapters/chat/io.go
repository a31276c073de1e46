package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/hushchat/hush/internal/app"
	"github.com/hushchat/hush/internal/domain"
)

const writeWait = 5 * time.Second

func (ctl *ChatWSController) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "chat").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "chat").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "chat").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "chat").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("module", "chat").Msg("writePump ping error")
				return
			}
		}
	}
}

func (ctl *ChatWSController) readPump(ctx context.Context, cancel context.CancelFunc, sid domain.SessionID, c *wsConn) {
	defer func() {
		log.Info().Str("module", "chat").Str("sid", string(sid)).Msg("readPump closing")
		ctl.disconnect(sid)
		cancel()
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.cfg.ReadLimit)
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "chat").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "chat").Str("sid", string(sid)).Msg("readPump read error")
				return
			}
			ctl.handleEvent(sid, c, data)
		}
	}
}

func (ctl *ChatWSController) handleEvent(sid domain.SessionID, c app.Conn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "chat").Msg("bad json")
		return
	}

	switch env.Type {
	case "join_chat":
		ctl.handleJoin(sid, c, data)
	case "send_message":
		ctl.handleMessage(sid, c, data)
	case "typing":
		ctl.handleTyping(sid, data)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "chat").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *ChatWSController) sendJSON(c app.Conn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "chat").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *ChatWSController) sendError(c app.Conn, msg string) {
	ctl.sendJSON(c, struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}{"error", msg})
}

// broadcastRoom fans an event out to every connection joined to the room.
func (ctl *ChatWSController) broadcastRoom(roomID domain.RoomID, v any) {
	for _, snap := range ctl.Orch.Registry.MembersOfRoom(roomID) {
		ctl.sendJSON(snap.Conn, v)
	}
}

// broadcastFrom does the same but excludes the originating connection.
func (ctl *ChatWSController) broadcastFrom(sid domain.SessionID, roomID domain.RoomID, v any) {
	for _, snap := range ctl.Orch.Registry.MembersOfRoom(roomID) {
		if snap.SID == sid {
			continue
		}
		ctl.sendJSON(snap.Conn, v)
	}
}
