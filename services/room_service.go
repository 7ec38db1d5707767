package services

import (
	"context"
	"errors"

	"turtlesoup/models"
)

// saveRetries bounds how often a command replays its read-modify-write
// cycle after losing a version race.
const saveRetries = 3

// RoomService drives the room state machine against the store. Per-room
// serialization comes from the store's version check: a command that read a
// stale room fails its save and replays against a fresh snapshot, so its
// preconditions are re-validated before every committed write.
type RoomService struct {
	store RoomStore
}

func NewRoomService(store RoomStore) *RoomService {
	return &RoomService{store: store}
}

type CreateRoomRequest struct {
	Name       string `json:"name" binding:"required"`
	IsPublic   *bool  `json:"is_public"`
	MaxPlayers int    `json:"max_players" binding:"omitempty,min=2,max=16"`
}

func (s *RoomService) CreateRoom(ctx context.Context, userID, username string, req *CreateRoomRequest) (*models.Room, error) {
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	room := NewRoom(req.Name, userID, username, req.MaxPlayers, isPublic)
	if err := s.store.CreateRoom(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *RoomService) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	return s.store.GetRoom(ctx, roomID)
}

func (s *RoomService) GetRoomByName(ctx context.Context, name string) (*models.Room, error) {
	return s.store.GetRoomByName(ctx, name)
}

func (s *RoomService) ListPublicRooms(ctx context.Context) ([]models.Room, error) {
	return s.store.ListRooms(ctx, true)
}

// JoinRoom seats the user in the room and returns the updated snapshot along
// with the new player record.
func (s *RoomService) JoinRoom(ctx context.Context, roomID, userID, username string) (*models.Room, *models.Player, error) {
	var joined *models.Player
	room, err := s.mutate(ctx, func(ctx context.Context) (*models.Room, error) {
		return s.store.GetRoom(ctx, roomID)
	}, func(room *models.Room) error {
		p, err := Join(room, userID, username)
		if err != nil {
			return err
		}
		joined = p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return room, joined, nil
}

// JoinRoomByName resolves the room by its display name first.
func (s *RoomService) JoinRoomByName(ctx context.Context, name, userID, username string) (*models.Room, *models.Player, error) {
	var joined *models.Player
	room, err := s.mutate(ctx, func(ctx context.Context) (*models.Room, error) {
		return s.store.GetRoomByName(ctx, name)
	}, func(room *models.Room) error {
		p, err := Join(room, userID, username)
		if err != nil {
			return err
		}
		joined = p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return room, joined, nil
}

func (s *RoomService) SetReady(ctx context.Context, roomID, playerID, requesterUserID string, isReady bool) (*models.Room, error) {
	return s.mutate(ctx, func(ctx context.Context) (*models.Room, error) {
		return s.store.GetRoom(ctx, roomID)
	}, func(room *models.Room) error {
		return SetReady(room, playerID, requesterUserID, isReady)
	})
}

// LeaveRoom removes the player. When the last player leaves, the room itself
// is deleted and the returned room is nil with deleted=true.
func (s *RoomService) LeaveRoom(ctx context.Context, roomID, playerID, requesterUserID string) (room *models.Room, deleted bool, err error) {
	var lastErr error
	for attempt := 0; attempt < saveRetries; attempt++ {
		current, err := s.store.GetRoom(ctx, roomID)
		if err != nil {
			return nil, false, err
		}
		_, empty, err := RemovePlayer(current, playerID, requesterUserID)
		if err != nil {
			return nil, false, err
		}
		if empty {
			if err := s.store.DeleteRoom(ctx, roomID); err != nil {
				return nil, false, err
			}
			return nil, true, nil
		}
		if err := s.store.SaveRoom(ctx, current); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				lastErr = err
				continue
			}
			return nil, false, err
		}
		return current, false, nil
	}
	return nil, false, lastErr
}

func (s *RoomService) StartGame(ctx context.Context, roomID, requesterUserID string) (*models.Room, error) {
	return s.mutate(ctx, func(ctx context.Context) (*models.Room, error) {
		return s.store.GetRoom(ctx, roomID)
	}, func(room *models.Room) error {
		return Start(room, requesterUserID)
	})
}

// FinishGame closes out a playing room once its session ends.
func (s *RoomService) FinishGame(ctx context.Context, roomID string) (*models.Room, error) {
	return s.mutate(ctx, func(ctx context.Context) (*models.Room, error) {
		return s.store.GetRoom(ctx, roomID)
	}, func(room *models.Room) error {
		Finish(room)
		return nil
	})
}

func (s *RoomService) mutate(ctx context.Context, load func(context.Context) (*models.Room, error), apply func(*models.Room) error) (*models.Room, error) {
	var lastErr error
	for attempt := 0; attempt < saveRetries; attempt++ {
		room, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := apply(room); err != nil {
			return nil, err
		}
		if err := s.store.SaveRoom(ctx, room); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return room, nil
	}
	return nil, lastErr
}
