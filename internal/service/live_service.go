package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/knighthoot/backend/internal/model"
)

// LiveStore is the persistence needed by the live-session core. The postgres
// implementation lives in repository.LiveStore; tests use an in-memory one.
type LiveStore interface {
	GetTest(ctx context.Context, id string) (*model.Test, error)
	SetLiveState(ctx context.Context, id string, isLive bool, index int) error
	ListScores(ctx context.Context, testID string) ([]model.ScoreRecord, error)
	GetScore(ctx context.Context, studentID int, testID string) (*model.ScoreRecord, error)
	UpsertScore(ctx context.Context, studentID int, testID string, delta model.ScoreDelta) error
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// LiveState is what hosts and players see of a running game. Question is the
// sanitized view of the current question and is nil once the game finished.
type LiveState struct {
	TestID          string              `json:"testID"`
	GameFinished    bool                `json:"gameFinished"`
	CurrentQuestion int                 `json:"currentQuestion"`
	QuestionCount   int                 `json:"questionCount"`
	Question        *model.QuestionView `json:"question,omitempty"`
}

// LiveService owns the question cursor and the score ledger of running games.
// All cursor mutations and answer submissions for one test serialize on a
// per-test lock, so every submission observes the cursor either before or
// after a given advance, never halfway through.
type LiveService struct {
	store LiveStore
	log   zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLiveService creates a new LiveService.
func NewLiveService(store LiveStore, log zerolog.Logger) *LiveService {
	return &LiveService{
		store: store,
		log:   log.With().Str("component", "live_service").Logger(),
		locks: make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex guarding one test's live session. Entries are
// never evicted; the map grows with the number of distinct tests hosted on
// this process, which stays small.
func (s *LiveService) lockFor(testID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[testID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[testID] = l
	}
	return l
}

// Start puts a test live at question zero. Only the owning teacher may host,
// the test must not already be live, and it must have at least one question.
// Re-hosting a finished test resets the cursor; score records from earlier
// runs are kept as they are, the ledger only ever grows.
func (s *LiveService) Start(ctx context.Context, testID string, teacherID int) (*LiveState, error) {
	l := s.lockFor(testID)
	l.Lock()
	defer l.Unlock()

	test, err := s.store.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	if test.TeacherID != teacherID {
		return nil, model.ErrNotTestOwner
	}
	if test.IsLive {
		return nil, model.ErrTestAlreadyLive
	}
	if len(test.Questions) == 0 {
		return nil, model.ErrNoQuestions
	}

	if err := s.store.SetLiveState(ctx, testID, true, 0); err != nil {
		return nil, err
	}

	s.log.Info().Str("test_id", testID).Int("teacher_id", teacherID).
		Int("questions", len(test.Questions)).Msg("Test started")

	q := test.Questions[0].View()
	return &LiveState{
		TestID:          testID,
		CurrentQuestion: 0,
		QuestionCount:   len(test.Questions),
		Question:        &q,
	}, nil
}

// Advance moves a live test off its current question. Before the cursor
// moves, every existing score record is reconciled: students who never
// submitted for the question being left behind are credited an incorrect
// answer, so each record's tally always equals the number of questions the
// game has completed. Reconciliation and the cursor write happen in one
// transaction. Leaving the last question ends the game.
//
// fromIndex, when non-nil, must match the stored cursor; a mismatch means the
// caller acted on a stale view (for example a double-clicked next button) and
// the advance is refused without touching anything.
func (s *LiveService) Advance(ctx context.Context, testID string, teacherID int, fromIndex *int) (*LiveState, error) {
	l := s.lockFor(testID)
	l.Lock()
	defer l.Unlock()

	var state *LiveState
	err := s.store.InTx(ctx, func(ctx context.Context) error {
		test, err := s.store.GetTest(ctx, testID)
		if err != nil {
			return err
		}
		if test.TeacherID != teacherID {
			return model.ErrNotTestOwner
		}
		if !test.IsLive {
			return model.ErrTestNotLive
		}
		if fromIndex != nil && *fromIndex != test.CurrentQuestion {
			return model.ErrStaleCursor
		}

		next := test.CurrentQuestion + 1
		reconciled, err := s.reconcile(ctx, testID, next)
		if err != nil {
			return err
		}

		finished := next >= len(test.Questions)
		if err := s.store.SetLiveState(ctx, testID, !finished, next); err != nil {
			return err
		}

		s.log.Info().Str("test_id", testID).
			Int("from", test.CurrentQuestion).Int("to", next).
			Int("reconciled", reconciled).Bool("finished", finished).
			Msg("Question advanced")

		state = &LiveState{
			TestID:          testID,
			GameFinished:    finished,
			CurrentQuestion: next,
			QuestionCount:   len(test.Questions),
		}
		if !finished {
			q := test.Questions[next].View()
			state.Question = &q
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// reconcile brings every existing score record up to expected total answers,
// crediting the shortfall as incorrect. Records are only ever topped up in a
// single delta; nothing is created and nothing is decremented. A record
// already at or past expected is left alone.
func (s *LiveService) reconcile(ctx context.Context, testID string, expected int) (int, error) {
	records, err := s.store.ListScores(ctx, testID)
	if err != nil {
		return 0, err
	}
	reconciled := 0
	for _, r := range records {
		answered := r.Answered()
		if answered >= expected {
			continue
		}
		delta := model.ScoreDelta{Incorrect: expected - answered}
		if err := s.store.UpsertScore(ctx, r.StudentID, testID, delta); err != nil {
			return reconciled, err
		}
		reconciled++
	}
	return reconciled, nil
}

// SubmitAnswer records one graded answer from a student for the test's
// current question. The record is created on first submission. A student
// whose tally already covers the current question has answered it (or been
// credited for it) and is refused; otherwise exactly one counter goes up by
// one, so no question can ever count twice for the same student.
//
// questionIndex, when non-nil, must match the stored cursor; a mismatch means
// the host advanced while the answer was in flight.
func (s *LiveService) SubmitAnswer(ctx context.Context, studentID int, testID string, isCorrect bool, questionIndex *int) (*model.ScoreRecord, error) {
	l := s.lockFor(testID)
	l.Lock()
	defer l.Unlock()

	test, err := s.store.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	if !test.IsLive {
		return nil, model.ErrTestNotLive
	}
	if questionIndex != nil && *questionIndex != test.CurrentQuestion {
		return nil, model.ErrStaleAnswer
	}

	record, err := s.store.GetScore(ctx, studentID, testID)
	if errors.Is(err, model.ErrScoreNotFound) {
		record = &model.ScoreRecord{StudentID: studentID, TestID: testID}
	} else if err != nil {
		return nil, err
	}
	if record.Answered() > test.CurrentQuestion {
		return nil, model.ErrAlreadyAnswered
	}

	delta := model.ScoreDelta{}
	if isCorrect {
		delta.Correct = 1
	} else {
		delta.Incorrect = 1
	}
	if err := s.store.UpsertScore(ctx, studentID, testID, delta); err != nil {
		return nil, err
	}

	record.Correct += delta.Correct
	record.Incorrect += delta.Incorrect

	s.log.Debug().Str("test_id", testID).Int("student_id", studentID).
		Bool("correct", isCorrect).Int("question", test.CurrentQuestion).
		Msg("Answer recorded")

	return record, nil
}

// State reports the live view of a test for polling clients. Finished and
// never-started tests both report GameFinished with no question payload.
func (s *LiveService) State(ctx context.Context, testID string) (*LiveState, error) {
	test, err := s.store.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	state := &LiveState{
		TestID:          testID,
		GameFinished:    !test.IsLive,
		CurrentQuestion: test.CurrentQuestion,
		QuestionCount:   len(test.Questions),
	}
	if test.IsLive && test.CurrentQuestion < len(test.Questions) {
		q := test.Questions[test.CurrentQuestion].View()
		state.Question = &q
	}
	return state, nil
}
