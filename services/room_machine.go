package services

import (
	"time"

	"turtlesoup/models"

	"github.com/google/uuid"
)

// The room state machine: pure transitions over a models.Room. Every function
// here mutates the in-memory record only; persistence and broadcasting are the
// room service's job. Callers must hold a consistent snapshot of the room
// (the store's version check makes a stale snapshot fail on save).

const DefaultMaxPlayers = 5

// NewRoom builds a waiting room with the creator already seated.
func NewRoom(name, creatorUserID, creatorUsername string, maxPlayers int, isPublic bool) *models.Room {
	if maxPlayers <= 0 {
		maxPlayers = DefaultMaxPlayers
	}
	now := time.Now()
	roomID := uuid.NewString()
	return &models.Room{
		ID:         roomID,
		Name:       name,
		CreatorID:  creatorUserID,
		MaxPlayers: maxPlayers,
		IsPublic:   isPublic,
		Status:     models.RoomStatusWaiting,
		Version:    1,
		CreatedAt:  now,
		Players: []models.Player{{
			ID:        uuid.NewString(),
			RoomID:    roomID,
			UserID:    creatorUserID,
			Username:  creatorUsername,
			IsReady:   false,
			IsCreator: true,
			Position:  0,
			JoinedAt:  now,
		}},
	}
}

// Join seats a new player at the end of the join order.
func Join(room *models.Room, userID, username string) (*models.Player, error) {
	if room.Status != models.RoomStatusWaiting {
		return nil, ErrRoomNotJoinable
	}
	if room.HasUser(userID) {
		return nil, ErrAlreadyJoined
	}
	if len(room.Players) >= room.MaxPlayers {
		return nil, ErrRoomFull
	}
	player := models.Player{
		ID:        uuid.NewString(),
		RoomID:    room.ID,
		UserID:    userID,
		Username:  username,
		IsReady:   false,
		IsCreator: false,
		Position:  nextPosition(room),
		JoinedAt:  time.Now(),
	}
	room.Players = append(room.Players, player)
	return &room.Players[len(room.Players)-1], nil
}

// SetReady toggles a player's ready flag. Only the player themselves or the
// room creator may do so.
func SetReady(room *models.Room, playerID, requesterUserID string, isReady bool) error {
	player := room.FindPlayer(playerID)
	if player == nil {
		return ErrPlayerNotFound
	}
	if player.UserID != requesterUserID && room.CreatorID != requesterUserID {
		return ErrForbidden
	}
	player.IsReady = isReady
	return nil
}

// RemovePlayer takes a player out of the room. If the creator leaves and
// others remain, creator status transfers to the earliest-joined survivor.
// Returns empty=true when the room is now unoccupied and must be deleted.
func RemovePlayer(room *models.Room, playerID, requesterUserID string) (removed *models.Player, empty bool, err error) {
	player := room.FindPlayer(playerID)
	if player == nil {
		return nil, false, ErrPlayerNotFound
	}
	if player.UserID != requesterUserID && room.CreatorID != requesterUserID {
		return nil, false, ErrForbidden
	}

	gone := *player
	kept := room.Players[:0]
	for _, p := range room.Players {
		if p.ID != playerID {
			kept = append(kept, p)
		}
	}
	room.Players = kept

	if len(room.Players) == 0 {
		return &gone, true, nil
	}

	if gone.IsCreator {
		next := earliestJoined(room.Players)
		next.IsCreator = true
		room.CreatorID = next.UserID
	}
	return &gone, false, nil
}

// Start moves the room from waiting to playing. Creator only, at least two
// players, everyone ready.
func Start(room *models.Room, requesterUserID string) error {
	if room.CreatorID != requesterUserID {
		return ErrForbidden
	}
	if room.Status != models.RoomStatusWaiting {
		return ErrRoomNotJoinable
	}
	if len(room.Players) < 2 {
		return ErrInsufficientPlayers
	}
	for _, p := range room.Players {
		if !p.IsReady {
			return ErrNotAllReady
		}
	}
	now := time.Now()
	room.Status = models.RoomStatusPlaying
	room.StartedAt = &now
	return nil
}

// Finish closes out a playing room. Status never moves backward.
func Finish(room *models.Room) {
	if room.Status != models.RoomStatusPlaying {
		return
	}
	now := time.Now()
	room.Status = models.RoomStatusFinished
	room.FinishedAt = &now
}

func nextPosition(room *models.Room) int {
	max := -1
	for _, p := range room.Players {
		if p.Position > max {
			max = p.Position
		}
	}
	return max + 1
}

func earliestJoined(players []models.Player) *models.Player {
	next := &players[0]
	for i := range players {
		if players[i].Position < next.Position {
			next = &players[i]
		}
	}
	return next
}
