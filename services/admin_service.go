package services

import (
	"context"
	"errors"

	"turtlesoup/models"

	"gorm.io/gorm"
)

// AdminService backs the moderation screens: user management plus room
// overrides. Room writes go through the RoomStore so they respect the same
// version discipline as player commands.
type AdminService struct {
	db    *gorm.DB
	rooms RoomStore
}

func NewAdminService(db *gorm.DB, rooms RoomStore) *AdminService {
	return &AdminService{db: db, rooms: rooms}
}

var ErrSelfDelete = errors.New("cannot delete your own account")

func (s *AdminService) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error
	return users, err
}

func (s *AdminService) DeleteUser(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return ErrSelfDelete
	}
	res := s.db.WithContext(ctx).Where("id = ?", targetID).Delete(&models.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *AdminService) ListRooms(ctx context.Context) ([]models.Room, error) {
	return s.rooms.ListRooms(ctx, false)
}

type UpdateRoomRequest struct {
	Name       *string `json:"name"`
	IsPublic   *bool   `json:"is_public"`
	MaxPlayers *int    `json:"max_players" binding:"omitempty,min=2,max=16"`
}

func (s *AdminService) UpdateRoom(ctx context.Context, roomID string, req *UpdateRoomRequest) (*models.Room, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		room.Name = *req.Name
	}
	if req.IsPublic != nil {
		room.IsPublic = *req.IsPublic
	}
	if req.MaxPlayers != nil {
		room.MaxPlayers = *req.MaxPlayers
	}
	if err := s.rooms.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *AdminService) DeleteRoom(ctx context.Context, roomID string) error {
	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		return err
	}
	return s.rooms.DeleteRoom(ctx, roomID)
}
