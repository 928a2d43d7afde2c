package models

import "time"

// RenewalToken is an opaque single-use token that can be exchanged for a new
// session token pair until ExpiresAt.
type RenewalToken struct {
	Token     string
	AccountID string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is no longer redeemable at now.
func (t *RenewalToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
