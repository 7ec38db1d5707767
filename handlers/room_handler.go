package handlers

import (
	"errors"
	"net/http"

	"turtlesoup/models"
	"turtlesoup/services"

	"github.com/gin-gonic/gin"
)

type RoomHandler struct {
	rooms *services.RoomService
	hub   *services.Hub
}

func NewRoomHandler(rooms *services.RoomService, hub *services.Hub) *RoomHandler {
	return &RoomHandler{rooms: rooms, hub: hub}
}

func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID, username, ok := identity(c)
	if !ok {
		return
	}

	var req services.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.rooms.CreateRoom(c.Request.Context(), userID, username, &req)
	if err != nil {
		writeRoomError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"room": room})
}

func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.rooms.ListPublicRooms(c.Request.Context())
	if err != nil {
		writeRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (h *RoomHandler) GetRoom(c *gin.Context) {
	room, err := h.rooms.GetRoom(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		writeRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}

func (h *RoomHandler) GetRoomByName(c *gin.Context) {
	room, err := h.rooms.GetRoomByName(c.Request.Context(), c.Param("roomName"))
	if err != nil {
		writeRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}

func (h *RoomHandler) JoinRoom(c *gin.Context) {
	userID, username, ok := identity(c)
	if !ok {
		return
	}

	room, player, err := h.rooms.JoinRoom(c.Request.Context(), c.Param("roomId"), userID, username)
	if err != nil {
		writeRoomError(c, err)
		return
	}

	h.hub.BroadcastRoomUpdate(room.ID, models.ActionPlayerJoined, player.ID, room)
	c.JSON(http.StatusOK, gin.H{"room": room})
}

type joinByNameRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *RoomHandler) JoinRoomByName(c *gin.Context) {
	userID, username, ok := identity(c)
	if !ok {
		return
	}

	var req joinByNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, player, err := h.rooms.JoinRoomByName(c.Request.Context(), req.Name, userID, username)
	if err != nil {
		writeRoomError(c, err)
		return
	}

	h.hub.BroadcastRoomUpdate(room.ID, models.ActionPlayerJoined, player.ID, room)
	c.JSON(http.StatusOK, gin.H{"room": room})
}

type setReadyRequest struct {
	IsReady *bool `json:"is_ready" binding:"required"`
}

func (h *RoomHandler) SetReady(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}

	var req setReadyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	playerID := c.Param("playerId")
	room, err := h.rooms.SetReady(c.Request.Context(), c.Param("roomId"), playerID, userID, *req.IsReady)
	if err != nil {
		writeRoomError(c, err)
		return
	}

	h.hub.BroadcastRoomUpdate(room.ID, models.ActionPlayerReadyStatusChanged, playerID, room)
	c.JSON(http.StatusOK, gin.H{"room": room})
}

func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}

	roomID := c.Param("roomId")
	playerID := c.Param("playerId")
	room, deleted, err := h.rooms.LeaveRoom(c.Request.Context(), roomID, playerID, userID)
	if err != nil {
		writeRoomError(c, err)
		return
	}

	if deleted {
		// Nobody is left to notify.
		c.JSON(http.StatusOK, gin.H{"room": nil, "deleted": true})
		return
	}

	h.hub.BroadcastRoomUpdate(room.ID, models.ActionPlayerLeft, playerID, room)
	c.JSON(http.StatusOK, gin.H{"room": room, "deleted": false})
}

func (h *RoomHandler) StartGame(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}

	room, err := h.rooms.StartGame(c.Request.Context(), c.Param("roomId"), userID)
	if err != nil {
		writeRoomError(c, err)
		return
	}

	h.hub.BroadcastRoomUpdate(room.ID, models.ActionGameStarted, "", room)
	c.JSON(http.StatusOK, gin.H{"room": room})
}

// FinishGame closes out a playing room, creator only.
func (h *RoomHandler) FinishGame(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}

	roomID := c.Param("roomId")
	current, err := h.rooms.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		writeRoomError(c, err)
		return
	}
	if current.CreatorID != userID {
		writeRoomError(c, services.ErrForbidden)
		return
	}

	room, err := h.rooms.FinishGame(c.Request.Context(), roomID)
	if err != nil {
		writeRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}

// identity pulls the authenticated caller out of the context; the auth
// middleware guarantees presence on protected routes.
func identity(c *gin.Context) (userID, username string, ok bool) {
	id, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return "", "", false
	}
	name, _ := c.Get("username")
	uname, _ := name.(string)
	return id.(string), uname, true
}

func writeRoomError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrRoomNotFound), errors.Is(err, services.ErrPlayerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrDuplicateName),
		errors.Is(err, services.ErrRoomFull),
		errors.Is(err, services.ErrAlreadyJoined),
		errors.Is(err, services.ErrInsufficientPlayers),
		errors.Is(err, services.ErrNotAllReady),
		errors.Is(err, services.ErrRoomNotJoinable):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
