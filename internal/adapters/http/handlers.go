package http

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hushchat/hush/internal/app"
	"github.com/hushchat/hush/internal/domain"
)

type RoomAPI struct {
	Rooms *app.Rooms
}

type createRoomRequest struct {
	Username string `json:"username" binding:"required"`
	Avatar   string `json:"avatar" binding:"required"`
}

type createRoomResponse struct {
	RoomID   string `json:"room_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

func (a *RoomAPI) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and avatar are required"})
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Avatar == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and avatar are required"})
		return
	}

	room, err := a.Rooms.Create()
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("room creation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create room"})
		return
	}

	// Remember the identity so the join page can prefill it.
	sess := sessions.Default(c)
	sess.Set("username", username)
	sess.Set("avatar", req.Avatar)
	if err := sess.Save(); err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("session save failed")
	}

	c.JSON(http.StatusOK, createRoomResponse{
		RoomID:   string(room.ID()),
		Username: username,
		Avatar:   req.Avatar,
	})
}

type verifyRoomRequest struct {
	RoomID string `json:"room_id" binding:"required"`
}

func (a *RoomAPI) VerifyRoom(c *gin.Context) {
	var req verifyRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Room ID is required"})
		return
	}

	id := domain.RoomID(strings.ToUpper(strings.TrimSpace(req.RoomID)))
	if a.Rooms.Exists(id) {
		c.JSON(http.StatusOK, gin.H{"exists": true})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"exists": false})
}

func (a *RoomAPI) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": a.Rooms.List()})
}

func (a *RoomAPI) Me(c *gin.Context) {
	sess := sessions.Default(c)
	username, _ := sess.Get("username").(string)
	avatar, _ := sess.Get("avatar").(string)
	c.JSON(http.StatusOK, gin.H{"username": username, "avatar": avatar})
}
