package chat

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/hushchat/hush/internal/app"
	"github.com/hushchat/hush/internal/config"
	"github.com/hushchat/hush/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

type ChatWSController struct {
	Orch    *app.Orchestrator
	cfg     *config.Config
	limiter *RateLimiter
}

func NewChatWSController(orch *app.Orchestrator, cfg *config.Config) *ChatWSController {
	return &ChatWSController{
		Orch:    orch,
		cfg:     cfg,
		limiter: NewRateLimiter(cfg.MessageRateLimit, cfg.MessageRateWindow),
	}
}

// wsConn pairs a websocket with a buffered send queue. A full queue
// drops the frame rather than blocking a broadcast.
type wsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleChat upgrades the connection and starts its pumps. Each upgrade
// gets a fresh session ID; two tabs are two connections.
func (ctl *ChatWSController) HandleChat(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "chat").Msg("ws upgrade")
		return
	}

	sid := domain.SessionID(uuid.NewString())
	log.Info().Str("module", "chat").Str("sid", string(sid)).Msg("new WS connection")

	conn := &wsConn{
		conn: ws,
		send: make(chan []byte, 32),
	}
	ctx, cancel := context.WithCancel(ctx)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sid, conn)
}
