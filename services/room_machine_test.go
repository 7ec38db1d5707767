package services

import (
	"errors"
	"testing"

	"turtlesoup/models"
)

func TestNewRoom(t *testing.T) {
	room := NewRoom("soup-night", "u1", "alice", 0, true)
	if room.Status != models.RoomStatusWaiting {
		t.Errorf("Status = %q, want %q", room.Status, models.RoomStatusWaiting)
	}
	if room.MaxPlayers != DefaultMaxPlayers {
		t.Errorf("MaxPlayers = %d, want default %d", room.MaxPlayers, DefaultMaxPlayers)
	}
	if room.Version != 1 {
		t.Errorf("Version = %d, want 1", room.Version)
	}
	if len(room.Players) != 1 {
		t.Fatalf("len(Players) = %d, want 1", len(room.Players))
	}
	creator := room.Players[0]
	if !creator.IsCreator || creator.UserID != "u1" || creator.Position != 0 {
		t.Errorf("creator seat wrong: %+v", creator)
	}
	if room.CreatorID != "u1" {
		t.Errorf("CreatorID = %q, want %q", room.CreatorID, "u1")
	}
}

func TestJoin(t *testing.T) {
	room := NewRoom("soup-night", "u1", "alice", 3, true)

	p, err := Join(room, "u2", "bob")
	if err != nil {
		t.Fatal(err)
	}
	if p.Position != 1 {
		t.Errorf("Position = %d, want 1", p.Position)
	}
	if p.IsCreator || p.IsReady {
		t.Errorf("new player should not be creator or ready: %+v", p)
	}
	if len(room.Players) != 2 {
		t.Errorf("len(Players) = %d, want 2", len(room.Players))
	}
}

func TestJoin_Duplicate(t *testing.T) {
	room := NewRoom("soup-night", "u1", "alice", 3, true)
	if _, err := Join(room, "u1", "alice"); !errors.Is(err, ErrAlreadyJoined) {
		t.Errorf("err = %v, want ErrAlreadyJoined", err)
	}
	// Same userID under a different display name is still the same user.
	if _, err := Join(room, "u1", "Alice"); !errors.Is(err, ErrAlreadyJoined) {
		t.Errorf("err = %v, want ErrAlreadyJoined", err)
	}
}

func TestJoin_Full(t *testing.T) {
	room := NewRoom("soup-night", "u1", "alice", 2, true)
	if _, err := Join(room, "u2", "bob"); err != nil {
		t.Fatal(err)
	}
	if _, err := Join(room, "u3", "carol"); !errors.Is(err, ErrRoomFull) {
		t.Errorf("err = %v, want ErrRoomFull", err)
	}
}

func TestJoin_NotWaiting(t *testing.T) {
	room := NewRoom("soup-night", "u1", "alice", 3, true)
	room.Status = models.RoomStatusPlaying
	if _, err := Join(room, "u2", "bob"); !errors.Is(err, ErrRoomNotJoinable) {
		t.Errorf("err = %v, want ErrRoomNotJoinable", err)
	}
}

func TestSetReady(t *testing.T) {
	room := NewRoom("soup-night", "u1", "alice", 3, true)
	p, _ := Join(room, "u2", "bob")

	if err := SetReady(room, p.ID, "u2", true); err != nil {
		t.Fatal(err)
	}
	if !room.FindPlayer(p.ID).IsReady {
		t.Error("player should be ready")
	}

	// The creator may toggle other players.
	if err := SetReady(room, p.ID, "u1", false); err != nil {
		t.Fatal(err)
	}
	if room.FindPlayer(p.ID).IsReady {
		t.Error("player should not be ready after creator toggled it off")
	}

	// A third party may not.
	if err := SetReady(room, p.ID, "u3", true); !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}

	if err := SetReady(room, "nope", "u1", true); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("err = %v, want ErrPlayerNotFound", err)
	}
}

func TestRemovePlayer_CreatorTransfer(t *testing.T) {
	room := NewRoom("soup-night", "u1", "alice", 5, true)
	pb, _ := Join(room, "u2", "bob")
	Join(room, "u3", "carol")

	creator := room.Players[0]
	removed, empty, err := RemovePlayer(room, creator.ID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if empty {
		t.Error("room with two survivors should not be empty")
	}
	if removed.UserID != "u1" {
		t.Errorf("removed UserID = %q, want u1", removed.UserID)
	}
	// Earliest-joined survivor inherits the room.
	if room.CreatorID != "u2" {
		t.Errorf("CreatorID = %q, want u2", room.CreatorID)
	}
	if !room.FindPlayer(pb.ID).IsCreator {
		t.Error("bob should be marked creator")
	}
}

func TestRemovePlayer_LastLeaves(t *testing.T) {
	room := NewRoom("soup-night", "u1", "alice", 5, true)
	_, empty, err := RemovePlayer(room, room.Players[0].ID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if !empty {
		t.Error("last player leaving should report the room empty")
	}
}

func TestRemovePlayer_Authorization(t *testing.T) {
	room := NewRoom("soup-night", "u1", "alice", 5, true)
	pb, _ := Join(room, "u2", "bob")

	// A non-creator cannot remove another player.
	if _, _, err := RemovePlayer(room, room.Players[0].ID, "u2"); !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
	// The creator can kick.
	if _, _, err := RemovePlayer(room, pb.ID, "u1"); err != nil {
		t.Fatal(err)
	}
	if room.HasUser("u2") {
		t.Error("bob should be gone")
	}
}

func TestStart(t *testing.T) {
	room := NewRoom("soup-night", "u1", "alice", 5, true)

	if err := Start(room, "u1"); !errors.Is(err, ErrInsufficientPlayers) {
		t.Errorf("err = %v, want ErrInsufficientPlayers", err)
	}

	pb, _ := Join(room, "u2", "bob")
	if err := Start(room, "u1"); !errors.Is(err, ErrNotAllReady) {
		t.Errorf("err = %v, want ErrNotAllReady", err)
	}

	SetReady(room, room.Players[0].ID, "u1", true)
	SetReady(room, pb.ID, "u2", true)

	if err := Start(room, "u2"); !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}

	if err := Start(room, "u1"); err != nil {
		t.Fatal(err)
	}
	if room.Status != models.RoomStatusPlaying {
		t.Errorf("Status = %q, want %q", room.Status, models.RoomStatusPlaying)
	}
	if room.StartedAt == nil {
		t.Error("StartedAt should be set")
	}

	// Already playing; cannot start again.
	if err := Start(room, "u1"); !errors.Is(err, ErrRoomNotJoinable) {
		t.Errorf("err = %v, want ErrRoomNotJoinable", err)
	}
}

func TestFinish(t *testing.T) {
	room := NewRoom("soup-night", "u1", "alice", 5, true)

	// Finishing a waiting room is a no-op, status never moves backward or skips.
	Finish(room)
	if room.Status != models.RoomStatusWaiting {
		t.Errorf("Status = %q, want waiting", room.Status)
	}

	room.Status = models.RoomStatusPlaying
	Finish(room)
	if room.Status != models.RoomStatusFinished {
		t.Errorf("Status = %q, want finished", room.Status)
	}
	if room.FinishedAt == nil {
		t.Error("FinishedAt should be set")
	}

	stamp := room.FinishedAt
	Finish(room)
	if room.FinishedAt != stamp {
		t.Error("second Finish should not touch the room")
	}
}
