package services

import (
	"context"
	"errors"
	"time"

	"turtlesoup/models"

	"gorm.io/gorm"
)

// RoomStore is the durable-store boundary for rooms. SaveRoom is a
// conditional write: it succeeds only if the stored version still matches
// the snapshot's, otherwise ErrVersionConflict. On success the snapshot's
// Version is advanced to the stored value.
type RoomStore interface {
	CreateRoom(ctx context.Context, room *models.Room) error
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	GetRoomByName(ctx context.Context, name string) (*models.Room, error)
	SaveRoom(ctx context.Context, room *models.Room) error
	DeleteRoom(ctx context.Context, id string) error
	ListRooms(ctx context.Context, publicOnly bool) ([]models.Room, error)
}

type gormRoomStore struct {
	db *gorm.DB
}

func NewGormRoomStore(db *gorm.DB) RoomStore {
	return &gormRoomStore{db: db}
}

func (s *gormRoomStore) CreateRoom(ctx context.Context, room *models.Room) error {
	err := s.db.WithContext(ctx).Create(room).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateName
	}
	return err
}

func (s *gormRoomStore) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	return s.findRoom(ctx, "id = ?", id)
}

func (s *gormRoomStore) GetRoomByName(ctx context.Context, name string) (*models.Room, error) {
	return s.findRoom(ctx, "name = ?", name)
}

func (s *gormRoomStore) findRoom(ctx context.Context, query string, arg any) (*models.Room, error) {
	var room models.Room
	err := s.db.WithContext(ctx).
		Preload("Players", func(db *gorm.DB) *gorm.DB {
			return db.Order("players.position")
		}).
		Where(query, arg).
		First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *gormRoomStore) SaveRoom(ctx context.Context, room *models.Room) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Room{}).
			Where("id = ? AND version = ?", room.ID, room.Version).
			Updates(map[string]any{
				"name":        room.Name,
				"creator_id":  room.CreatorID,
				"max_players": room.MaxPlayers,
				"is_public":   room.IsPublic,
				"status":      room.Status,
				"started_at":  room.StartedAt,
				"finished_at": room.FinishedAt,
				"version":     room.Version + 1,
				"updated_at":  time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Room{}).Where("id = ?", room.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrRoomNotFound
			}
			return ErrVersionConflict
		}

		// Replace the roster wholesale; rooms are small.
		if err := tx.Where("room_id = ?", room.ID).Delete(&models.Player{}).Error; err != nil {
			return err
		}
		if len(room.Players) > 0 {
			if err := tx.Create(&room.Players).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Renaming onto a name another room holds.
		return ErrDuplicateName
	}
	if err != nil {
		return err
	}
	room.Version++
	return nil
}

func (s *gormRoomStore) DeleteRoom(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", id).Delete(&models.Player{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Room{}).Error
	})
}

func (s *gormRoomStore) ListRooms(ctx context.Context, publicOnly bool) ([]models.Room, error) {
	var rooms []models.Room
	q := s.db.WithContext(ctx).
		Preload("Players", func(db *gorm.DB) *gorm.DB {
			return db.Order("players.position")
		}).
		Order("created_at DESC")
	if publicOnly {
		q = q.Where("is_public = ?", true)
	}
	err := q.Find(&rooms).Error
	return rooms, err
}
