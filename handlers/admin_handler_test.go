package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"turtlesoup/models"
	"turtlesoup/services"

	"github.com/gin-gonic/gin"
)

func newAdminRouter(store *fakeRoomStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewAdminHandler(services.NewAdminService(nil, store))

	r := gin.New()
	r.Use(testIdentity("admin-1", "admin"))
	r.GET("/api/admin/rooms", handler.ListRooms)
	r.PUT("/api/admin/rooms/:id", handler.UpdateRoom)
	r.DELETE("/api/admin/rooms/:id", handler.DeleteRoom)
	return r
}

func TestAdminUpdateRoom(t *testing.T) {
	store := newFakeRoomStore()
	room := seedRoom(t, store, "soup-night", "u1", 5)
	r := newAdminRouter(store)

	w := doJSON(t, r, http.MethodPut, "/api/admin/rooms/"+room.ID, gin.H{"name": "renamed", "max_players": 8})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Room models.Room `json:"room"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Room.Name != "renamed" || resp.Room.MaxPlayers != 8 {
		t.Errorf("unexpected room: %+v", resp.Room)
	}
}

func TestAdminUpdateRoom_DuplicateName(t *testing.T) {
	store := newFakeRoomStore()
	seedRoom(t, store, "alpha", "u1", 5)
	room := seedRoom(t, store, "beta", "u2", 5)
	r := newAdminRouter(store)

	// Renaming onto a name another room holds is a client error, not a 500.
	w := doJSON(t, r, http.MethodPut, "/api/admin/rooms/"+room.ID, gin.H{"name": "alpha"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
}

func TestAdminDeleteRoom(t *testing.T) {
	store := newFakeRoomStore()
	room := seedRoom(t, store, "soup-night", "u1", 5)
	r := newAdminRouter(store)

	w := doJSON(t, r, http.MethodDelete, "/api/admin/rooms/"+room.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodDelete, "/api/admin/rooms/"+room.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for missing room", w.Code)
	}
}
