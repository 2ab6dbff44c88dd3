package model

import "time"

// Card is the legacy flash-card feature: a free-form label owned by a user,
// searchable by prefix. Kept as an ordinary store-backed collection.
type Card struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	Card      string    `json:"card"`
	CreatedAt time.Time `json:"createdAt"`
}

// AddCardRequest adds one card for the authenticated user.
type AddCardRequest struct {
	Card string `json:"card" binding:"required,min=1,max=255"`
}

// SearchCardsRequest searches the user's cards by prefix.
type SearchCardsRequest struct {
	Search string `json:"search" binding:"omitempty,max=255"`
}
