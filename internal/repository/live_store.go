package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knighthoot/backend/internal/model"
)

// querier is satisfied by both pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// LiveStore is the persistent backing for the live-session core: the test's
// live pointer and the score ledger. All methods run against the pool unless
// the context carries a transaction opened by InTx.
type LiveStore struct {
	pool *pgxpool.Pool
}

// NewLiveStore creates a new LiveStore.
func NewLiveStore(pool *pgxpool.Pool) *LiveStore {
	return &LiveStore{pool: pool}
}

func (s *LiveStore) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pool
}

// InTx runs fn inside a single transaction; every store call made with the
// context fn receives joins that transaction. Rolls back on error.
func (s *LiveStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx) // already inside a transaction
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetTest retrieves a test. Inside a transaction the row is locked, so two
// concurrent advances for the same test serialize at the database as well.
func (s *LiveStore) GetTest(ctx context.Context, id string) (*model.Test, error) {
	query := `SELECT ` + testColumns + ` FROM tests WHERE id = $1`
	if _, inTx := ctx.Value(txKey{}).(pgx.Tx); inTx {
		query += ` FOR UPDATE`
	}
	t, err := scanTest(s.q(ctx).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrTestNotFound
	}
	return t, err
}

// SetLiveState writes the live flag and cursor position for a test.
func (s *LiveStore) SetLiveState(ctx context.Context, id string, isLive bool, index int) error {
	tag, err := s.q(ctx).Exec(ctx,
		`UPDATE tests SET is_live = $1, current_question = $2, updated_at = NOW() WHERE id = $3`,
		isLive, index, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTestNotFound
	}
	return nil
}

// ListScores retrieves every score record for a test.
func (s *LiveStore) ListScores(ctx context.Context, testID string) ([]model.ScoreRecord, error) {
	rows, err := s.q(ctx).Query(ctx,
		`SELECT student_id, test_id, correct, incorrect FROM scores WHERE test_id = $1`,
		testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.ScoreRecord
	for rows.Next() {
		var r model.ScoreRecord
		if err := rows.Scan(&r.StudentID, &r.TestID, &r.Correct, &r.Incorrect); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetScore retrieves one student's record for a test, or model.ErrScoreNotFound
// if the student has never submitted.
func (s *LiveStore) GetScore(ctx context.Context, studentID int, testID string) (*model.ScoreRecord, error) {
	r := &model.ScoreRecord{}
	err := s.q(ctx).QueryRow(ctx,
		`SELECT student_id, test_id, correct, incorrect FROM scores
		 WHERE student_id = $1 AND test_id = $2`, studentID, testID,
	).Scan(&r.StudentID, &r.TestID, &r.Correct, &r.Incorrect)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrScoreNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// UpsertScore applies one additive delta to a student's record, creating the
// record on first use. Counters only grow.
func (s *LiveStore) UpsertScore(ctx context.Context, studentID int, testID string, delta model.ScoreDelta) error {
	_, err := s.q(ctx).Exec(ctx,
		`INSERT INTO scores (student_id, test_id, correct, incorrect)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (student_id, test_id)
		 DO UPDATE SET correct = scores.correct + EXCLUDED.correct,
		               incorrect = scores.incorrect + EXCLUDED.incorrect`,
		studentID, testID, delta.Correct, delta.Incorrect)
	return err
}
