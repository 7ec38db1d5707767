package models

import (
	"time"

	"gorm.io/gorm"
)

type GameSession struct {
	ID      string `json:"id" gorm:"primaryKey"`
	UserID  string `json:"user_id" gorm:"index;not null"`
	RoomID  string `json:"room_id,omitempty" gorm:"index"` // empty for single-player sessions
	Subject string `json:"subject" gorm:"not null"`
	Level   int    `json:"level" gorm:"not null;default:1"`
	// The riddle: Answer is the hidden term, Description is the "soup face"
	// shown to players, Hint is revealed at most once on request.
	Answer      string `json:"-" gorm:"not null"`
	Hint        string `json:"-" gorm:"not null"`
	Description string `json:"description" gorm:"not null"`

	MaxQuestions  int  `json:"max_questions" gorm:"not null;default:20"`
	Rounds        int  `json:"rounds" gorm:"not null;default:1"`
	CurrentRound  int  `json:"current_round" gorm:"not null;default:1"`
	IsCompleted   bool `json:"is_completed" gorm:"not null;default:false"`
	IsWon         bool `json:"is_won" gorm:"not null;default:false"`
	Score         int  `json:"score" gorm:"not null;default:0"`
	HintRequested bool `json:"hint_requested" gorm:"not null;default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Questions []QuestionRecord `json:"questions" gorm:"foreignKey:SessionID"`
}

// QuestionRecord is one question asked during a session and the oracle's answer.
type QuestionRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	SessionID string    `json:"session_id" gorm:"index;not null"`
	Question  string    `json:"question" gorm:"not null"`
	Answer    string    `json:"answer" gorm:"not null"`
	AskedAt   time.Time `json:"asked_at"`
}
