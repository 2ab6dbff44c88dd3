package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/knighthoot/backend/internal/model"
	"github.com/knighthoot/backend/internal/repository"
)

// ScoreService reads the score ledger for leaderboards and result screens.
// All writes to the ledger go through LiveService.
type ScoreService struct {
	scoreRepo *repository.ScoreRepository
	testRepo  *repository.TestRepository
	log       zerolog.Logger
}

// NewScoreService creates a new ScoreService.
func NewScoreService(scoreRepo *repository.ScoreRepository, testRepo *repository.TestRepository, log zerolog.Logger) *ScoreService {
	return &ScoreService{
		scoreRepo: scoreRepo,
		testRepo:  testRepo,
		log:       log.With().Str("component", "score_service").Logger(),
	}
}

// Leaderboard lists every participant's record for a test, best first. Owner
// only; students see their own record via the submit response instead.
func (s *ScoreService) Leaderboard(ctx context.Context, teacherID int, testID string) ([]repository.TestScore, error) {
	test, err := s.testRepo.GetByID(ctx, testID)
	if err != nil {
		return nil, err
	}
	if test.TeacherID != teacherID {
		return nil, model.ErrNotTestOwner
	}

	scores, err := s.scoreRepo.ListByTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	if scores == nil {
		scores = []repository.TestScore{}
	}
	return scores, nil
}
