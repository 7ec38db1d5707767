package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"turtlesoup/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const sessionStateTTL = 2 * time.Hour

// OracleClient is the puzzle/answer boundary the session service talks to.
type OracleClient interface {
	GeneratePuzzle(ctx context.Context, subject string, level int) (*Puzzle, error)
	AnswerQuestion(ctx context.Context, subject string, puzzle *Puzzle, question string) (string, error)
	Hint(ctx context.Context, subject string, puzzle *Puzzle) (string, error)
}

// SessionService runs turtle-soup game sessions: puzzle generation through
// the oracle, question/answer bookkeeping, scoring, and the player's
// personal records. Active-session snapshots are mirrored to Redis so
// room members can poll state without hitting Postgres.
type SessionService struct {
	db     *gorm.DB
	redis  *redis.Client
	oracle OracleClient
}

func NewSessionService(db *gorm.DB, redisClient *redis.Client, oracle OracleClient) *SessionService {
	return &SessionService{db: db, redis: redisClient, oracle: oracle}
}

type StartSessionRequest struct {
	Subject      string `json:"subject" binding:"required"`
	Level        int    `json:"level"`
	MaxQuestions int    `json:"max_questions"`
	Rounds       int    `json:"rounds"`
	RoomID       string `json:"room_id"`
}

type AskResult struct {
	Answer        string `json:"answer"`
	IsCorrect     bool   `json:"is_correct"`
	IsCompleted   bool   `json:"is_completed"`
	IsWon         bool   `json:"is_won"`
	Score         int    `json:"score"`
	QuestionsLeft int    `json:"questions_left"`
}

// SessionState is the lightweight snapshot cached in Redis.
type SessionState struct {
	SessionID     string `json:"session_id"`
	Subject       string `json:"subject"`
	Level         int    `json:"level"`
	Description   string `json:"description"`
	QuestionsUsed int    `json:"questions_used"`
	MaxQuestions  int    `json:"max_questions"`
	HintRequested bool   `json:"hint_requested"`
	IsCompleted   bool   `json:"is_completed"`
	IsWon         bool   `json:"is_won"`
	Score         int    `json:"score"`
}

func (s *SessionService) StartSession(ctx context.Context, userID string, req *StartSessionRequest) (*models.GameSession, error) {
	if !ValidSubject(req.Subject) {
		return nil, ErrUnknownSubject
	}
	level := req.Level
	if level <= 0 {
		level = 1
	}
	maxQuestions := req.MaxQuestions
	if maxQuestions <= 0 {
		maxQuestions = 20
	}
	rounds := req.Rounds
	if rounds <= 0 {
		rounds = 1
	}

	puzzle, err := s.oracle.GeneratePuzzle(ctx, req.Subject, level)
	if err != nil {
		return nil, err
	}

	session := models.GameSession{
		ID:           uuid.NewString(),
		UserID:       userID,
		RoomID:       req.RoomID,
		Subject:      req.Subject,
		Level:        level,
		Answer:       puzzle.Answer,
		Hint:         puzzle.Hint,
		Description:  puzzle.Description,
		MaxQuestions: maxQuestions,
		Rounds:       rounds,
		CurrentRound: 1,
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, err
	}

	s.storeSessionState(ctx, &session)
	return &session, nil
}

// AskQuestion records one question against the session. Guessing the answer
// verbatim (case-insensitively) wins the game; exhausting the question
// budget ends it.
func (s *SessionService) AskQuestion(ctx context.Context, userID, sessionID, question string) (*AskResult, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted {
		return nil, ErrSessionCompleted
	}
	if len(session.Questions) >= session.MaxQuestions {
		return nil, ErrQuestionLimit
	}

	puzzle := &Puzzle{Answer: session.Answer, Hint: session.Hint, Description: session.Description}
	isCorrect := strings.EqualFold(strings.TrimSpace(question), session.Answer)

	var answer string
	if isCorrect {
		answer = "Correct! You solved the riddle."
	} else {
		answer, err = s.oracle.AnswerQuestion(ctx, session.Subject, puzzle, question)
		if err != nil {
			return nil, err
		}
	}

	record := models.QuestionRecord{
		SessionID: session.ID,
		Question:  question,
		Answer:    answer,
		AskedAt:   time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	session.Questions = append(session.Questions, record)

	used := len(session.Questions)
	if isCorrect {
		session.IsCompleted = true
		session.IsWon = true
		session.Score = SessionScore(used, session.MaxQuestions)
		s.recordWin(ctx, userID, session.Score, used)
	} else if used >= session.MaxQuestions {
		session.IsCompleted = true
		s.recordLoss(ctx, userID)
	}

	err = s.db.WithContext(ctx).Model(&models.GameSession{}).
		Where("id = ?", session.ID).
		Updates(map[string]any{
			"is_completed": session.IsCompleted,
			"is_won":       session.IsWon,
			"score":        session.Score,
		}).Error
	if err != nil {
		return nil, err
	}

	s.storeSessionState(ctx, session)

	return &AskResult{
		Answer:        answer,
		IsCorrect:     isCorrect,
		IsCompleted:   session.IsCompleted,
		IsWon:         session.IsWon,
		Score:         session.Score,
		QuestionsLeft: session.MaxQuestions - used,
	}, nil
}

// RequestHint reveals the hint, once per session.
func (s *SessionService) RequestHint(ctx context.Context, userID, sessionID string) (string, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return "", err
	}
	if session.IsCompleted {
		return "", ErrSessionCompleted
	}
	if session.HintRequested {
		return "", ErrHintAlreadyUsed
	}

	puzzle := &Puzzle{Answer: session.Answer, Hint: session.Hint, Description: session.Description}
	hint, err := s.oracle.Hint(ctx, session.Subject, puzzle)
	if err != nil {
		return "", err
	}

	err = s.db.WithContext(ctx).Model(&models.GameSession{}).
		Where("id = ?", session.ID).
		Updates(map[string]any{"hint_requested": true, "hint": hint}).Error
	if err != nil {
		return "", err
	}

	session.HintRequested = true
	s.storeSessionState(ctx, session)
	return hint, nil
}

type SessionStatus struct {
	Session     *models.GameSession `json:"session"`
	Hint        string              `json:"hint,omitempty"`
	UserRecords UserRecords         `json:"user_records"`
}

type UserRecords struct {
	MinQuestions *int `json:"min_questions"`
	FastestTime  *int `json:"fastest_time"`
}

// Status returns the full session view plus the owner's personal records.
// The hint is only included once it has been requested.
func (s *SessionService) Status(ctx context.Context, userID, sessionID string) (*SessionStatus, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("loading user records: %w", err)
	}

	status := &SessionStatus{
		Session: session,
		UserRecords: UserRecords{
			MinQuestions: user.MinQuestionsRecord,
			FastestTime:  user.FastestTimeRecord,
		},
	}
	if session.HintRequested {
		status.Hint = session.Hint
	}
	return status, nil
}

// CurrentState serves the cached snapshot, repopulating the cache from
// Postgres when Redis misses.
func (s *SessionService) CurrentState(ctx context.Context, sessionID string) (*SessionState, error) {
	if state := s.getSessionState(ctx, sessionID); state != nil {
		return state, nil
	}

	var session models.GameSession
	err := s.db.WithContext(ctx).Preload("Questions").First(&session, "id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	s.storeSessionState(ctx, &session)
	return snapshotOf(&session), nil
}

func (s *SessionService) Records(ctx context.Context, userID string) (*UserRecords, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &UserRecords{MinQuestions: user.MinQuestionsRecord, FastestTime: user.FastestTimeRecord}, nil
}

// UpdateTimeRecord stores a new fastest solve time; slower times are ignored.
func (s *SessionService) UpdateTimeRecord(ctx context.Context, userID string, seconds int) (*UserRecords, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if user.FastestTimeRecord == nil || seconds < *user.FastestTimeRecord {
		user.FastestTimeRecord = &seconds
		if err := s.db.WithContext(ctx).Model(&user).Update("fastest_time_record", seconds).Error; err != nil {
			return nil, err
		}
	}
	return &UserRecords{MinQuestions: user.MinQuestionsRecord, FastestTime: user.FastestTimeRecord}, nil
}

// SessionScore rewards solving with fewer questions: 100 points less a
// proportional penalty per question already spent, floored at 10.
func SessionScore(questionsUsed, maxQuestions int) int {
	if maxQuestions <= 0 {
		return 10
	}
	score := 100 - (questionsUsed-1)*100/maxQuestions
	if score < 10 {
		return 10
	}
	return score
}

func (s *SessionService) ownedSession(ctx context.Context, userID, sessionID string) (*models.GameSession, error) {
	var session models.GameSession
	err := s.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_records.asked_at")
		}).
		First(&session, "id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrForbidden
	}
	return &session, nil
}

func (s *SessionService) recordWin(ctx context.Context, userID string, score, questionsUsed int) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		log.Printf("Error loading user %s for win update: %v", userID, err)
		return
	}
	updates := map[string]any{
		"score":        user.Score + score,
		"games_played": user.GamesPlayed + 1,
		"games_won":    user.GamesWon + 1,
	}
	if user.MinQuestionsRecord == nil || questionsUsed < *user.MinQuestionsRecord {
		updates["min_questions_record"] = questionsUsed
	}
	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		log.Printf("Error updating user %s after win: %v", userID, err)
	}
}

func (s *SessionService) recordLoss(ctx context.Context, userID string) {
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("games_played", gorm.Expr("games_played + 1")).Error
	if err != nil {
		log.Printf("Error updating user %s after loss: %v", userID, err)
	}
}

func (s *SessionService) storeSessionState(ctx context.Context, session *models.GameSession) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(snapshotOf(session))
	if err != nil {
		log.Printf("Error marshaling session state for %s: %v", session.ID, err)
		return
	}
	if err := s.redis.Set(ctx, "session:"+session.ID, data, sessionStateTTL).Err(); err != nil {
		log.Printf("Failed to store session state in Redis: %v", err)
	}
}

func (s *SessionService) getSessionState(ctx context.Context, sessionID string) *SessionState {
	if s.redis == nil {
		return nil
	}
	data, err := s.redis.Get(ctx, "session:"+sessionID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("Redis error getting session state for %s: %v", sessionID, err)
		}
		return nil
	}
	var state SessionState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		log.Printf("Failed to unmarshal session state for %s: %v", sessionID, err)
		return nil
	}
	return &state
}

func snapshotOf(session *models.GameSession) *SessionState {
	return &SessionState{
		SessionID:     session.ID,
		Subject:       session.Subject,
		Level:         session.Level,
		Description:   session.Description,
		QuestionsUsed: len(session.Questions),
		MaxQuestions:  session.MaxQuestions,
		HintRequested: session.HintRequested,
		IsCompleted:   session.IsCompleted,
		IsWon:         session.IsWon,
		Score:         session.Score,
	}
}
