package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knighthoot/backend/internal/model"
)

// CardRepository handles the legacy card collection.
type CardRepository struct {
	pool *pgxpool.Pool
}

// NewCardRepository creates a new CardRepository.
func NewCardRepository(pool *pgxpool.Pool) *CardRepository {
	return &CardRepository{pool: pool}
}

// Create inserts a card for a user.
func (r *CardRepository) Create(ctx context.Context, c *model.Card) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO cards (user_id, card) VALUES ($1, $2) RETURNING id, created_at`,
		c.UserID, c.Card,
	).Scan(&c.ID, &c.CreatedAt)
}

// SearchByUser returns the user's card labels matching a case-insensitive
// prefix. An empty search returns everything.
func (r *CardRepository) SearchByUser(ctx context.Context, userID int, search string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT card FROM cards WHERE user_id = $1 AND card ILIKE $2 || '%' ORDER BY card ASC`,
		userID, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []string
	for rows.Next() {
		var card string
		if err := rows.Scan(&card); err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}
