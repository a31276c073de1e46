package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hushchat/hush/internal/adapters/chat"
	"github.com/hushchat/hush/internal/app"
	"github.com/hushchat/hush/internal/config"
)

func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("HushSessions", store))

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	rooms := &RoomAPI{Rooms: orch.Rooms}
	ctrl := chat.NewChatWSController(orch, cfg)

	api := r.Group("/api")
	api.POST("/create-room", rooms.CreateRoom)
	api.POST("/verify-room", rooms.VerifyRoom)
	api.GET("/rooms", rooms.ListRooms)
	api.GET("/me", rooms.Me)

	api.GET("/ws/chat", func(c *gin.Context) {
		ctrl.HandleChat(ctx, c)
	})

	return r
}
