package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knighthoot/backend/internal/model"
)

// TestRepository handles quiz authoring data access. Live-session mutation
// goes through LiveStore instead; this repository never touches the cursor.
type TestRepository struct {
	pool *pgxpool.Pool
}

// NewTestRepository creates a new TestRepository.
func NewTestRepository(pool *pgxpool.Pool) *TestRepository {
	return &TestRepository{pool: pool}
}

const testColumns = `id, teacher_id, title, questions, is_live, current_question, created_at, updated_at`

func scanTest(row interface{ Scan(...any) error }) (*model.Test, error) {
	t := &model.Test{}
	var questions []byte
	err := row.Scan(&t.ID, &t.TeacherID, &t.Title, &questions,
		&t.IsLive, &t.CurrentQuestion, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &t.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return t, nil
}

// GetByID retrieves a test by its teacher-chosen identifier.
func (r *TestRepository) GetByID(ctx context.Context, id string) (*model.Test, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+testColumns+` FROM tests WHERE id = $1`, id)
	t, err := scanTest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrTestNotFound
	}
	return t, err
}

// GetLiveState reads only the live flag and cursor, skipping the question
// payload. Used on the polling path where the payload comes from cache.
func (r *TestRepository) GetLiveState(ctx context.Context, id string) (bool, int, error) {
	var isLive bool
	var current int
	err := r.pool.QueryRow(ctx,
		`SELECT is_live, current_question FROM tests WHERE id = $1`, id,
	).Scan(&isLive, &current)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, 0, model.ErrTestNotFound
	}
	return isLive, current, err
}

// ListByTeacher retrieves all tests owned by a teacher, newest first.
func (r *TestRepository) ListByTeacher(ctx context.Context, teacherID int) ([]model.Test, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+testColumns+` FROM tests WHERE teacher_id = $1 ORDER BY created_at DESC`,
		teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []model.Test
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		tests = append(tests, *t)
	}
	return tests, rows.Err()
}

// Create inserts a new test. The live pointer starts at (false, 0).
func (r *TestRepository) Create(ctx context.Context, t *model.Test) error {
	questions, err := json.Marshal(t.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO tests (id, teacher_id, title, questions)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		t.ID, t.TeacherID, t.Title, questions,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
}

// Replace overwrites a test's title and question list.
func (r *TestRepository) Replace(ctx context.Context, t *model.Test) error {
	questions, err := json.Marshal(t.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE tests SET title = $1, questions = $2, updated_at = NOW() WHERE id = $3`,
		t.Title, questions, t.ID)
	return err
}

// Delete removes a test and, via FK cascade, its score records.
func (r *TestRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM tests WHERE id = $1`, id)
	return err
}
