package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knighthoot/backend/internal/middleware"
	"github.com/knighthoot/backend/internal/model"
	"github.com/knighthoot/backend/internal/response"
	"github.com/knighthoot/backend/internal/service"
	"github.com/knighthoot/backend/internal/validator"
)

// CardHandler handles the flashcard endpoints.
type CardHandler struct {
	cardService *service.CardService
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cardService *service.CardService) *CardHandler {
	return &CardHandler{cardService: cardService}
}

// Add godoc
// POST /api/addcard
// Stores one card for the authenticated user.
func (h *CardHandler) Add(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.AddCardRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	card, err := h.cardService.Add(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"card": card})
}

// Search godoc
// POST /api/searchcards
// Returns the user's card labels matching the query prefix.
func (h *CardHandler) Search(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.SearchCardsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	cards, err := h.cardService.Search(c.Request.Context(), claims.UserID, req.Search)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"cards": cards})
}
