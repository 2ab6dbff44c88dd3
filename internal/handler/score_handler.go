package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knighthoot/backend/internal/middleware"
	"github.com/knighthoot/backend/internal/response"
	"github.com/knighthoot/backend/internal/service"
)

// ScoreHandler serves leaderboards to test owners.
type ScoreHandler struct {
	scoreService *service.ScoreService
}

// NewScoreHandler creates a new ScoreHandler.
func NewScoreHandler(scoreService *service.ScoreService) *ScoreHandler {
	return &ScoreHandler{scoreService: scoreService}
}

// Leaderboard godoc
// GET /api/tests/:id/scores
// Lists every participant's tally for the teacher's test, best first.
func (h *ScoreHandler) Leaderboard(c *gin.Context) {
	claims := middleware.GetClaims(c)

	scores, err := h.scoreService.Leaderboard(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		failTestError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"scores": scores})
}
