package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/knighthoot/backend/internal/middleware"
	"github.com/knighthoot/backend/internal/model"
	"github.com/knighthoot/backend/internal/service"
	"github.com/knighthoot/backend/internal/validator"
)

// memLiveStore is a minimal in-memory service.LiveStore for HTTP-level tests.
type memLiveStore struct {
	mu     sync.Mutex
	tests  map[string]*model.Test
	scores map[string]*model.ScoreRecord
}

func (s *memLiveStore) GetTest(ctx context.Context, id string) (*model.Test, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tests[id]
	if !ok {
		return nil, model.ErrTestNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *memLiveStore) SetLiveState(ctx context.Context, id string, isLive bool, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tests[id]
	if !ok {
		return model.ErrTestNotFound
	}
	t.IsLive = isLive
	t.CurrentQuestion = index
	return nil
}

func (s *memLiveStore) ListScores(ctx context.Context, testID string) ([]model.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []model.ScoreRecord
	for _, r := range s.scores {
		if r.TestID == testID {
			records = append(records, *r)
		}
	}
	return records, nil
}

func (s *memLiveStore) GetScore(ctx context.Context, studentID int, testID string) (*model.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.scores[fmt.Sprintf("%d|%s", studentID, testID)]
	if !ok {
		return nil, model.ErrScoreNotFound
	}
	copied := *r
	return &copied, nil
}

func (s *memLiveStore) UpsertScore(ctx context.Context, studentID int, testID string, delta model.ScoreDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%d|%s", studentID, testID)
	r, ok := s.scores[key]
	if !ok {
		r = &model.ScoreRecord{StudentID: studentID, TestID: testID}
		s.scores[key] = r
	}
	r.Correct += delta.Correct
	r.Incorrect += delta.Incorrect
	return nil
}

func (s *memLiveStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeAuth injects claims the way the JWT middleware would.
func fakeAuth(role model.Role, userID int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyClaims, &service.Claims{Role: role, UserID: userID})
		c.Next()
	}
}

func newLiveRouter(t *testing.T) (*gin.Engine, *memLiveStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.Setup()

	store := &memLiveStore{
		tests: map[string]*model.Test{
			"QUIZ01": {
				ID:        "QUIZ01",
				TeacherID: 1,
				Questions: []model.Question{
					{
						Prompt:  "2 + 2?",
						Options: []model.Option{{Text: "4"}, {Text: "5"}},
						Answer:  0,
					},
					{
						Prompt:  "3 * 3?",
						Options: []model.Option{{Text: "6"}, {Text: "9"}},
						Answer:  1,
					},
				},
			},
		},
		scores: make(map[string]*model.ScoreRecord),
	}
	h := NewLiveHandler(service.NewLiveService(store, zerolog.Nop()))

	r := gin.New()
	r.POST("/api/startTest", fakeAuth(model.RoleTeacher, 1), h.StartTest)
	r.POST("/api/nextQuestion", fakeAuth(model.RoleTeacher, 1), h.NextQuestion)
	r.POST("/api/submitQuestion", fakeAuth(model.RoleStudent, 10), h.SubmitQuestion)
	return r, store
}

func doJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data  map[string]any `json:"data"`
		Error *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v (%s)", err, w.Body.String())
	}
	return envelope.Data
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v (%s)", err, w.Body.String())
	}
	return envelope.Error.Code
}

func TestLiveGameOverHTTP(t *testing.T) {
	r, _ := newLiveRouter(t)

	// Start.
	w := doJSON(t, r, "/api/startTest", gin.H{"ID": "QUIZ01"})
	if w.Code != http.StatusOK {
		t.Fatalf("start status = %d (%s)", w.Code, w.Body.String())
	}
	data := decodeData(t, w)
	if data["currentQuestion"] != float64(0) || data["gameFinished"] != false {
		t.Fatalf("unexpected start payload: %v", data)
	}
	if q, ok := data["question"].(map[string]any); !ok || q["answer"] != nil {
		t.Fatalf("question payload should exist without the answer key: %v", data["question"])
	}

	// Student answers.
	w = doJSON(t, r, "/api/submitQuestion", gin.H{"testID": "QUIZ01", "isCorrect": true, "questionIndex": 0})
	if w.Code != http.StatusOK {
		t.Fatalf("submit status = %d (%s)", w.Code, w.Body.String())
	}

	// Duplicate submit for the same question.
	w = doJSON(t, r, "/api/submitQuestion", gin.H{"testID": "QUIZ01", "isCorrect": true, "questionIndex": 0})
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "ALREADY_ANSWERED" {
		t.Fatalf("duplicate submit: status %d code %s", w.Code, errorCode(t, w))
	}

	// Advance to question 1.
	w = doJSON(t, r, "/api/nextQuestion", gin.H{"ID": "QUIZ01", "fromIndex": 0})
	if w.Code != http.StatusOK {
		t.Fatalf("advance status = %d (%s)", w.Code, w.Body.String())
	}

	// Replaying the advance with the old cursor is refused.
	w = doJSON(t, r, "/api/nextQuestion", gin.H{"ID": "QUIZ01", "fromIndex": 0})
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "STALE_CURSOR" {
		t.Fatalf("stale advance: status %d code %s", w.Code, errorCode(t, w))
	}

	// Advance past the last question finishes the game.
	w = doJSON(t, r, "/api/nextQuestion", gin.H{"ID": "QUIZ01", "fromIndex": 1})
	if w.Code != http.StatusOK {
		t.Fatalf("final advance status = %d (%s)", w.Code, w.Body.String())
	}
	data = decodeData(t, w)
	if data["gameFinished"] != true {
		t.Fatalf("expected gameFinished, got %v", data)
	}

	// The game is over for everyone.
	w = doJSON(t, r, "/api/submitQuestion", gin.H{"testID": "QUIZ01", "isCorrect": true})
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "TEST_NOT_LIVE" {
		t.Fatalf("submit after finish: status %d code %s", w.Code, errorCode(t, w))
	}
}

func TestLiveErrorStatuses(t *testing.T) {
	r, _ := newLiveRouter(t)

	w := doJSON(t, r, "/api/startTest", gin.H{"ID": "GHOST"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown test: status = %d", w.Code)
	}

	w = doJSON(t, r, "/api/nextQuestion", gin.H{"ID": "QUIZ01"})
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "TEST_NOT_LIVE" {
		t.Fatalf("advance before start: status %d code %s", w.Code, errorCode(t, w))
	}

	// Missing required fields fail validation.
	w = doJSON(t, r, "/api/startTest", gin.H{})
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "VALIDATION_ERROR" {
		t.Fatalf("empty start: status %d code %s", w.Code, errorCode(t, w))
	}
	w = doJSON(t, r, "/api/submitQuestion", gin.H{"testID": "QUIZ01"})
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "VALIDATION_ERROR" {
		t.Fatalf("submit without isCorrect: status %d code %s", w.Code, errorCode(t, w))
	}
}

func TestForbiddenForNonOwner(t *testing.T) {
	_, store := newLiveRouter(t)

	gin.SetMode(gin.TestMode)
	h := NewLiveHandler(service.NewLiveService(store, zerolog.Nop()))
	r := gin.New()
	r.POST("/api/startTest", fakeAuth(model.RoleTeacher, 99), h.StartTest)

	w := doJSON(t, r, "/api/startTest", gin.H{"ID": "QUIZ01"})
	if w.Code != http.StatusForbidden || errorCode(t, w) != "NOT_TEST_OWNER" {
		t.Fatalf("non-owner start: status %d code %s", w.Code, errorCode(t, w))
	}
}
