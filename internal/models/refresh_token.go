package models

import "time"

// RefreshToken is the server-side record of one outstanding refresh token.
type RefreshToken struct {
	ID        string    `json:"id"`
	Token     string    `json:"-"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (t RefreshToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
