package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knighthoot/backend/internal/middleware"
	"github.com/knighthoot/backend/internal/model"
	"github.com/knighthoot/backend/internal/response"
	"github.com/knighthoot/backend/internal/service"
	"github.com/knighthoot/backend/internal/validator"
)

// LiveHandler drives a running game: teachers start and advance, students
// submit answers. All state changes go through LiveService so one question
// cursor and one score ledger stay consistent under concurrent requests.
type LiveHandler struct {
	liveService *service.LiveService
}

// NewLiveHandler creates a new LiveHandler.
func NewLiveHandler(liveService *service.LiveService) *LiveHandler {
	return &LiveHandler{liveService: liveService}
}

// StartTest godoc
// POST /api/startTest
// Puts the teacher's test live at question zero.
func (h *LiveHandler) StartTest(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.StartTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.liveService.Start(c.Request.Context(), req.ID, claims.UserID)
	if err != nil {
		failLiveError(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// NextQuestion godoc
// POST /api/nextQuestion
// Advances the teacher's live test. Students who never answered the question
// being left behind are credited an incorrect answer before the cursor moves.
// Advancing past the last question ends the game and the response carries
// gameFinished instead of a question.
func (h *LiveHandler) NextQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.NextQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.liveService.Advance(c.Request.Context(), req.ID, claims.UserID, req.FromIndex)
	if err != nil {
		failLiveError(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// SubmitQuestion godoc
// POST /api/submitQuestion
// Records the student's graded answer for the current question and returns
// the updated tally.
func (h *LiveHandler) SubmitQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	record, err := h.liveService.SubmitAnswer(
		c.Request.Context(), claims.UserID, req.TestID, *req.IsCorrect, req.QuestionIndex)
	if err != nil {
		failLiveError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"score": record})
}

// failLiveError maps live-session errors onto HTTP statuses: unknown test is
// 404, someone else's test is 403, any state the request cannot apply to is
// 400, everything else is a store failure.
func failLiveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrTestNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, model.ErrNotTestOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotTestOwner)
	case errors.Is(err, model.ErrTestAlreadyLive):
		response.Fail(c, http.StatusBadRequest, response.ErrTestAlreadyLive)
	case errors.Is(err, model.ErrTestNotLive):
		response.Fail(c, http.StatusBadRequest, response.ErrTestNotLive)
	case errors.Is(err, model.ErrNoQuestions):
		response.Fail(c, http.StatusBadRequest, response.ErrNoQuestions)
	case errors.Is(err, model.ErrStaleCursor):
		response.Fail(c, http.StatusBadRequest, response.ErrStaleCursor)
	case errors.Is(err, model.ErrStaleAnswer):
		response.Fail(c, http.StatusBadRequest, response.ErrStaleAnswer)
	case errors.Is(err, model.ErrAlreadyAnswered):
		response.Fail(c, http.StatusBadRequest, response.ErrAlreadyAnswered)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
