package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/knighthoot/backend/internal/model"
	"github.com/knighthoot/backend/internal/repository"
)

// CardService handles the flashcard collection: per-user labels, searchable
// by prefix. Cards never participate in live games.
type CardService struct {
	cardRepo *repository.CardRepository
	log      zerolog.Logger
}

// NewCardService creates a new CardService.
func NewCardService(cardRepo *repository.CardRepository, log zerolog.Logger) *CardService {
	return &CardService{
		cardRepo: cardRepo,
		log:      log.With().Str("component", "card_service").Logger(),
	}
}

// Add stores a new card for the user.
func (s *CardService) Add(ctx context.Context, userID int, req *model.AddCardRequest) (*model.Card, error) {
	card := &model.Card{
		UserID: userID,
		Card:   req.Card,
	}
	if err := s.cardRepo.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}
	s.log.Debug().Int("user_id", userID).Int("card_id", card.ID).Msg("Card added")
	return card, nil
}

// Search returns the user's card labels matching the query prefix. An empty
// query lists everything.
func (s *CardService) Search(ctx context.Context, userID int, query string) ([]string, error) {
	cards, err := s.cardRepo.SearchByUser(ctx, userID, query)
	if err != nil {
		return nil, err
	}
	if cards == nil {
		cards = []string{}
	}
	return cards, nil
}
