package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/knighthoot/backend/internal/config"
	"github.com/knighthoot/backend/internal/model"
)

// TestStore is the authoring persistence needed by TestService. Implemented
// by repository.TestRepository.
type TestStore interface {
	GetByID(ctx context.Context, id string) (*model.Test, error)
	GetLiveState(ctx context.Context, id string) (bool, int, error)
	ListByTeacher(ctx context.Context, teacherID int) ([]model.Test, error)
	Create(ctx context.Context, t *model.Test) error
	Replace(ctx context.Context, t *model.Test) error
	Delete(ctx context.Context, id string) error
}

// ErrTestIDTaken is returned when creating a test with an identifier that
// already exists.
var ErrTestIDTaken = errors.New("test id already taken")

// testPayload is the cached, answer-stripped part of a test. The live cursor
// is deliberately not in here; it changes on every advance and is read fresh.
type testPayload struct {
	Title     string               `json:"title"`
	Questions []model.QuestionView `json:"questions"`
}

// TestService handles quiz authoring and the student-facing read path. The
// sanitized question payload is cached in Redis and loads collapse through
// singleflight, so a room full of players joining at once costs one database
// read.
type TestService struct {
	testRepo TestStore
	rdb      *redis.Client
	sf       singleflight.Group
	log      zerolog.Logger
}

// NewTestService creates a new TestService.
func NewTestService(testRepo TestStore, rdb *redis.Client, log zerolog.Logger) *TestService {
	return &TestService{
		testRepo: testRepo,
		rdb:      rdb,
		log:      log.With().Str("component", "test_service").Logger(),
	}
}

// Create inserts a new test owned by the teacher. The identifier is chosen by
// the teacher (it doubles as the game PIN) and must be free.
func (s *TestService) Create(ctx context.Context, teacherID int, req *model.CreateTestRequest) (*model.Test, error) {
	if err := model.ValidateQuestions(req.Questions); err != nil {
		return nil, err
	}
	if _, err := s.testRepo.GetByID(ctx, req.ID); err == nil {
		return nil, ErrTestIDTaken
	} else if !errors.Is(err, model.ErrTestNotFound) {
		return nil, err
	}

	test := &model.Test{
		ID:        req.ID,
		TeacherID: teacherID,
		Title:     req.Title,
		Questions: req.Questions,
	}
	if err := s.testRepo.Create(ctx, test); err != nil {
		return nil, fmt.Errorf("create test: %w", err)
	}

	s.log.Info().Str("test_id", test.ID).Int("teacher_id", teacherID).
		Int("questions", len(test.Questions)).Msg("Test created")
	return test, nil
}

// Get retrieves the full test, answer key included. Owner only.
func (s *TestService) Get(ctx context.Context, teacherID int, id string) (*model.Test, error) {
	test, err := s.testRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if test.TeacherID != teacherID {
		return nil, model.ErrNotTestOwner
	}
	return test, nil
}

// List retrieves all tests owned by a teacher.
func (s *TestService) List(ctx context.Context, teacherID int) ([]model.Test, error) {
	tests, err := s.testRepo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if tests == nil {
		tests = []model.Test{}
	}
	return tests, nil
}

// GetView retrieves the sanitized test for players and resuming hosts: the
// cached payload plus the current live state.
func (s *TestService) GetView(ctx context.Context, id string) (*model.TestView, error) {
	payload, err := s.payload(ctx, id)
	if err != nil {
		return nil, err
	}
	isLive, current, err := s.testRepo.GetLiveState(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.TestView{
		ID:              id,
		Title:           payload.Title,
		IsLive:          isLive,
		CurrentQuestion: current,
		Questions:       payload.Questions,
	}, nil
}

// Update replaces a test's title and questions. Refused while the test is
// live; rewriting questions under a running game would desync every player.
func (s *TestService) Update(ctx context.Context, teacherID int, id string, req *model.UpdateTestRequest) (*model.Test, error) {
	if err := model.ValidateQuestions(req.Questions); err != nil {
		return nil, err
	}
	test, err := s.Get(ctx, teacherID, id)
	if err != nil {
		return nil, err
	}
	if test.IsLive {
		return nil, model.ErrTestIsLive
	}

	test.Title = req.Title
	test.Questions = req.Questions
	if err := s.testRepo.Replace(ctx, test); err != nil {
		return nil, fmt.Errorf("replace test: %w", err)
	}
	s.invalidatePayload(ctx, id)

	s.log.Info().Str("test_id", id).Msg("Test updated")
	return test, nil
}

// Delete removes a test and its score records. Refused while live.
func (s *TestService) Delete(ctx context.Context, teacherID int, id string) error {
	test, err := s.Get(ctx, teacherID, id)
	if err != nil {
		return err
	}
	if test.IsLive {
		return model.ErrTestIsLive
	}
	if err := s.testRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete test: %w", err)
	}
	s.invalidatePayload(ctx, id)

	s.log.Info().Str("test_id", id).Msg("Test deleted")
	return nil
}

// payload returns the answer-stripped payload for a test, cache first.
func (s *TestService) payload(ctx context.Context, id string) (*testPayload, error) {
	key := config.CacheKey.TestPayloadKey(id)

	cached, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		p := &testPayload{}
		if err := json.Unmarshal([]byte(cached), p); err == nil {
			return p, nil
		}
		// Corrupt entry; fall through and rebuild.
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("test_id", id).Msg("Payload cache read failed")
	}

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		test, err := s.testRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		views := make([]model.QuestionView, len(test.Questions))
		for i, q := range test.Questions {
			views[i] = q.View()
		}
		p := &testPayload{Title: test.Title, Questions: views}

		encoded, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		if err := s.rdb.Set(ctx, key, encoded, 0).Err(); err != nil {
			s.log.Warn().Err(err).Str("test_id", id).Msg("Payload cache write failed")
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*testPayload), nil
}

func (s *TestService) invalidatePayload(ctx context.Context, id string) {
	if err := s.rdb.Del(ctx, config.CacheKey.TestPayloadKey(id)).Err(); err != nil {
		s.log.Warn().Err(err).Str("test_id", id).Msg("Payload cache invalidation failed")
	}
}
