package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string         `json:"id" gorm:"primaryKey"`
	Username     string         `json:"username" gorm:"uniqueIndex;not null"`
	Email        string         `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string         `json:"-" gorm:"not null"`
	Role         string         `json:"role" gorm:"not null;default:'user'"` // user, admin
	Score        int            `json:"score" gorm:"not null;default:0"`
	GamesPlayed  int            `json:"games_played" gorm:"not null;default:0"`
	GamesWon     int            `json:"games_won" gorm:"not null;default:0"`
	// Personal bests; nil until the first win sets them.
	MinQuestionsRecord *int `json:"min_questions_record"`
	FastestTimeRecord  *int `json:"fastest_time_record"` // seconds

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
