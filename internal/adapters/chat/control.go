package chat

import "github.com/hushchat/hush/internal/app"

func (ctl *ChatWSController) handlePing(conn app.Conn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}
