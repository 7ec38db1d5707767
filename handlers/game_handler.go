package handlers

import (
	"errors"
	"net/http"

	"turtlesoup/services"

	"github.com/gin-gonic/gin"
)

type GameHandler struct {
	sessions *services.SessionService
}

func NewGameHandler(sessions *services.SessionService) *GameHandler {
	return &GameHandler{sessions: sessions}
}

func (h *GameHandler) StartSession(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}

	var req services.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessions.StartSession(c.Request.Context(), userID, &req)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"session_id":    session.ID,
		"subject":       session.Subject,
		"level":         session.Level,
		"description":   session.Description,
		"max_questions": session.MaxQuestions,
	})
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
}

func (h *GameHandler) AskQuestion(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.sessions.AskQuestion(c.Request.Context(), userID, c.Param("sessionId"), req.Question)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *GameHandler) RequestHint(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}

	hint, err := h.sessions.RequestHint(c.Request.Context(), userID, c.Param("sessionId"))
	if err != nil {
		writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hint": hint})
}

func (h *GameHandler) SessionStatus(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}

	status, err := h.sessions.Status(c.Request.Context(), userID, c.Param("sessionId"))
	if err != nil {
		writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// SessionState serves the lightweight cached snapshot; any authenticated
// room member may poll it.
func (h *GameHandler) SessionState(c *gin.Context) {
	state, err := h.sessions.CurrentState(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *GameHandler) GetRecords(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}

	records, err := h.sessions.Records(c.Request.Context(), userID)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

type timeRecordRequest struct {
	Time int `json:"time" binding:"required,min=1"` // seconds
}

func (h *GameHandler) UpdateTimeRecord(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}

	var req timeRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := h.sessions.UpdateTimeRecord(c.Request.Context(), userID, req.Time)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func writeSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrSessionNotFound), errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrSessionCompleted),
		errors.Is(err, services.ErrQuestionLimit),
		errors.Is(err, services.ErrHintAlreadyUsed),
		errors.Is(err, services.ErrUnknownSubject):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
