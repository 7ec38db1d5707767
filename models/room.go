package models

import (
	"time"
)

// RoomStatus only ever moves forward: waiting -> playing -> finished.
type RoomStatus string

const (
	RoomStatusWaiting  RoomStatus = "waiting"
	RoomStatusPlaying  RoomStatus = "playing"
	RoomStatusFinished RoomStatus = "finished"
)

func (s RoomStatus) Valid() bool {
	switch s {
	case RoomStatusWaiting, RoomStatusPlaying, RoomStatusFinished:
		return true
	}
	return false
}

// RoomUpdateAction is the closed set of actions carried by roomUpdate events.
type RoomUpdateAction string

const (
	ActionPlayerJoined             RoomUpdateAction = "playerJoined"
	ActionPlayerReadyStatusChanged RoomUpdateAction = "playerReadyStatusChanged"
	ActionPlayerLeft               RoomUpdateAction = "playerLeft"
	ActionGameStarted              RoomUpdateAction = "gameStarted"
)

func (a RoomUpdateAction) Valid() bool {
	switch a {
	case ActionPlayerJoined, ActionPlayerReadyStatusChanged, ActionPlayerLeft, ActionGameStarted:
		return true
	}
	return false
}

type Room struct {
	ID         string     `json:"id" gorm:"primaryKey"`
	Name       string     `json:"name" gorm:"uniqueIndex;not null"`
	CreatorID  string     `json:"creator_id" gorm:"not null"`
	MaxPlayers int        `json:"max_players" gorm:"not null;default:5"`
	IsPublic   bool       `json:"is_public" gorm:"not null;default:true"`
	Status     RoomStatus `json:"status" gorm:"not null;default:'waiting'"`
	// Version guards concurrent read-modify-write cycles on the room.
	Version    int        `json:"version" gorm:"not null;default:1"`
	StartedAt  *time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Relationships
	Players []Player `json:"players" gorm:"foreignKey:RoomID"`
}

type Player struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	RoomID    string    `json:"room_id" gorm:"index;not null"`
	UserID    string    `json:"user_id" gorm:"not null"`
	Username  string    `json:"username" gorm:"not null"`
	IsReady   bool      `json:"is_ready" gorm:"not null;default:false"`
	IsCreator bool      `json:"is_creator" gorm:"not null;default:false"`
	// Position materializes join order; JoinedAt alone is not granular enough
	// when two players land in the same instant.
	Position int       `json:"position" gorm:"not null"`
	JoinedAt time.Time `json:"joined_at"`
}

// FindPlayer returns the player row with the given id, or nil.
func (r *Room) FindPlayer(playerID string) *Player {
	for i := range r.Players {
		if r.Players[i].ID == playerID {
			return &r.Players[i]
		}
	}
	return nil
}

// HasUser reports whether the account is already seated in the room.
func (r *Room) HasUser(userID string) bool {
	for i := range r.Players {
		if r.Players[i].UserID == userID {
			return true
		}
	}
	return false
}
