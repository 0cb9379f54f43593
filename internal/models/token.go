package models

import "time"

// RefreshToken is a server-side session record. The opaque token value is
// what the client presents; revocation is checked on every refresh.
type RefreshToken struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Token     string     `db:"token" json:"-"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	IPAddress string     `db:"ip_address" json:"ip_address"`
	UserAgent string     `db:"user_agent" json:"user_agent"`
}

// Live reports whether the session can still be exchanged at the given time.
func (t RefreshToken) Live(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
