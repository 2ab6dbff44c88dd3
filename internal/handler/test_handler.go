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

// TestHandler handles quiz authoring and the player-facing read endpoint.
type TestHandler struct {
	testService *service.TestService
}

// NewTestHandler creates a new TestHandler.
func NewTestHandler(testService *service.TestService) *TestHandler {
	return &TestHandler{testService: testService}
}

// Create godoc
// POST /api/tests
// Creates a new test owned by the authenticated teacher.
func (h *TestHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	test, err := h.testService.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTestIDTaken):
			response.Fail(c, http.StatusConflict, response.ErrTestIDTaken)
		case isQuestionError(err):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"test": test})
}

// List godoc
// GET /api/tests
// Lists the authenticated teacher's tests, answer keys included.
func (h *TestHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)

	tests, err := h.testService.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tests": tests})
}

// Get godoc
// GET /api/tests/:id
// Returns the full test for its owner.
func (h *TestHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)

	test, err := h.testService.Get(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		failTestError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"test": test})
}

// GetView godoc
// GET /api/test/:id
// Returns the sanitized test plus live state. This is the endpoint players
// poll during a game and hosts hit to resume one, so the correct answers are
// stripped.
func (h *TestHandler) GetView(c *gin.Context) {
	view, err := h.testService.GetView(c.Request.Context(), c.Param("id"))
	if err != nil {
		failTestError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"test": view})
}

// Update godoc
// PUT /api/tests/:id
// Replaces the test's title and questions. Refused while the test is live.
func (h *TestHandler) Update(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.UpdateTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	test, err := h.testService.Update(c.Request.Context(), claims.UserID, c.Param("id"), &req)
	if err != nil {
		if isQuestionError(err) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		failTestError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"test": test})
}

// Delete godoc
// DELETE /api/tests/:id
// Removes the test and its score records. Refused while live.
func (h *TestHandler) Delete(c *gin.Context) {
	claims := middleware.GetClaims(c)

	if err := h.testService.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		failTestError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// failTestError maps the shared test error cases onto HTTP statuses.
func failTestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrTestNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, model.ErrNotTestOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotTestOwner)
	case errors.Is(err, model.ErrTestIsLive):
		response.Fail(c, http.StatusConflict, response.ErrTestIsLive)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func isQuestionError(err error) bool {
	return errors.Is(err, model.ErrPromptRequired) ||
		errors.Is(err, model.ErrBadOptionCount) ||
		errors.Is(err, model.ErrBadOption) ||
		errors.Is(err, model.ErrAnswerOutOfRange) ||
		errors.Is(err, model.ErrNoQuestions)
}
