package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knighthoot/backend/internal/model"
)

// TestScore combines a score record with the student's display data, for the
// teacher-facing results listing.
type TestScore struct {
	model.ScoreRecord
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
}

// ScoreRepository handles read access to the score ledger for reporting.
// Mutation happens exclusively through LiveStore.
type ScoreRepository struct {
	pool *pgxpool.Pool
}

// NewScoreRepository creates a new ScoreRepository.
func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

// ListByTest retrieves every score record for a test with student names,
// best tally first.
func (r *ScoreRepository) ListByTest(ctx context.Context, testID string) ([]TestScore, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT sc.student_id, sc.test_id, sc.correct, sc.incorrect,
		        st.first_name, st.last_name, st.username
		 FROM scores sc
		 JOIN students st ON st.id = sc.student_id
		 WHERE sc.test_id = $1
		 ORDER BY sc.correct DESC, st.last_name ASC, st.first_name ASC`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []TestScore
	for rows.Next() {
		var s TestScore
		if err := rows.Scan(&s.StudentID, &s.TestID, &s.Correct, &s.Incorrect,
			&s.FirstName, &s.LastName, &s.Username); err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}
