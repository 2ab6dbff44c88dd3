package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/knighthoot/backend/internal/config"
	"github.com/knighthoot/backend/internal/model"
)

// memTestStore is an in-memory TestStore counting reads, so caching behavior
// is observable.
type memTestStore struct {
	mu    sync.Mutex
	tests map[string]*model.Test
	reads int
}

func newMemTestStore() *memTestStore {
	return &memTestStore{tests: make(map[string]*model.Test)}
}

func (s *memTestStore) GetByID(ctx context.Context, id string) (*model.Test, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	t, ok := s.tests[id]
	if !ok {
		return nil, model.ErrTestNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *memTestStore) GetLiveState(ctx context.Context, id string) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tests[id]
	if !ok {
		return false, 0, model.ErrTestNotFound
	}
	return t.IsLive, t.CurrentQuestion, nil
}

func (s *memTestStore) ListByTeacher(ctx context.Context, teacherID int) ([]model.Test, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tests []model.Test
	for _, t := range s.tests {
		if t.TeacherID == teacherID {
			tests = append(tests, *t)
		}
	}
	return tests, nil
}

func (s *memTestStore) Create(ctx context.Context, t *model.Test) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *t
	s.tests[t.ID] = &copied
	return nil
}

func (s *memTestStore) Replace(ctx context.Context, t *model.Test) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tests[t.ID]
	if !ok {
		return model.ErrTestNotFound
	}
	stored.Title = t.Title
	stored.Questions = t.Questions
	return nil
}

func (s *memTestStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tests, id)
	return nil
}

func newTestFixture(t *testing.T) (*TestService, *memTestStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := newMemTestStore()
	return NewTestService(store, rdb, zerolog.Nop()), store, mr
}

func createRequest() *model.CreateTestRequest {
	return &model.CreateTestRequest{
		ID:    "MATH101",
		Title: "Fractions",
		Questions: []model.Question{
			{
				Prompt:  "What is 1/2 + 1/4?",
				Options: []model.Option{{Text: "3/4"}, {Text: "2/6"}},
				Answer:  0,
			},
		},
	}
}

func TestCreateTest(t *testing.T) {
	svc, _, _ := newTestFixture(t)
	ctx := context.Background()

	test, err := svc.Create(ctx, 1, createRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if test.TeacherID != 1 || test.IsLive {
		t.Fatalf("unexpected test: %+v", test)
	}

	if _, err := svc.Create(ctx, 2, createRequest()); !errors.Is(err, ErrTestIDTaken) {
		t.Fatalf("expected ErrTestIDTaken, got %v", err)
	}

	bad := createRequest()
	bad.ID = "MATH102"
	bad.Questions[0].Answer = 5
	if _, err := svc.Create(ctx, 1, bad); !errors.Is(err, model.ErrAnswerOutOfRange) {
		t.Fatalf("expected ErrAnswerOutOfRange, got %v", err)
	}
}

func TestGetOwnership(t *testing.T) {
	svc, _, _ := newTestFixture(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, 1, createRequest()); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(ctx, 2, "MATH101"); !errors.Is(err, model.ErrNotTestOwner) {
		t.Fatalf("expected ErrNotTestOwner, got %v", err)
	}
	if _, err := svc.Get(ctx, 1, "NOPE"); !errors.Is(err, model.ErrTestNotFound) {
		t.Fatalf("expected ErrTestNotFound, got %v", err)
	}
	test, err := svc.Get(ctx, 1, "MATH101")
	if err != nil || test.Questions[0].Answer != 0 {
		t.Fatalf("owner read failed: %v %+v", err, test)
	}
}

func TestGetViewStripsAnswersAndCaches(t *testing.T) {
	svc, store, mr := newTestFixture(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, 1, createRequest()); err != nil {
		t.Fatalf("create: %v", err)
	}

	view, err := svc.GetView(ctx, "MATH101")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.IsLive || len(view.Questions) != 1 {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.Questions[0].Prompt != "What is 1/2 + 1/4?" {
		t.Fatalf("question missing from view: %+v", view.Questions[0])
	}

	if !mr.Exists(config.CacheKey.TestPayloadKey("MATH101")) {
		t.Fatal("payload should be cached after first view")
	}

	// Subsequent views come out of the cache.
	readsAfterFirst := store.reads
	if _, err := svc.GetView(ctx, "MATH101"); err != nil {
		t.Fatalf("second view: %v", err)
	}
	if store.reads != readsAfterFirst {
		t.Fatalf("expected cached read, store reads went %d -> %d", readsAfterFirst, store.reads)
	}

	// Updating the test drops the stale payload.
	req := &model.UpdateTestRequest{
		Title: "Fractions v2",
		Questions: []model.Question{
			{
				Prompt:  "What is 1/3 + 1/3?",
				Options: []model.Option{{Text: "2/3"}, {Text: "1/6"}},
				Answer:  0,
			},
		},
	}
	if _, err := svc.Update(ctx, 1, "MATH101", req); err != nil {
		t.Fatalf("update: %v", err)
	}
	if mr.Exists(config.CacheKey.TestPayloadKey("MATH101")) {
		t.Fatal("payload cache should be invalidated on update")
	}

	view, err = svc.GetView(ctx, "MATH101")
	if err != nil {
		t.Fatalf("view after update: %v", err)
	}
	if view.Title != "Fractions v2" || view.Questions[0].Prompt != "What is 1/3 + 1/3?" {
		t.Fatalf("view did not pick up the update: %+v", view)
	}
}

func TestUpdateAndDeleteRefusedWhileLive(t *testing.T) {
	svc, store, _ := newTestFixture(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, 1, createRequest()); err != nil {
		t.Fatalf("create: %v", err)
	}
	store.tests["MATH101"].IsLive = true

	req := &model.UpdateTestRequest{Questions: createRequest().Questions}
	if _, err := svc.Update(ctx, 1, "MATH101", req); !errors.Is(err, model.ErrTestIsLive) {
		t.Fatalf("expected ErrTestIsLive on update, got %v", err)
	}
	if err := svc.Delete(ctx, 1, "MATH101"); !errors.Is(err, model.ErrTestIsLive) {
		t.Fatalf("expected ErrTestIsLive on delete, got %v", err)
	}

	store.tests["MATH101"].IsLive = false
	if err := svc.Delete(ctx, 1, "MATH101"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, 1, "MATH101"); !errors.Is(err, model.ErrTestNotFound) {
		t.Fatalf("expected test gone, got %v", err)
	}
}
