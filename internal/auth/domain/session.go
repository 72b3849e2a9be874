package domain

import (
	"time"

	userdomain "github.com/AlibekovAA/dashboard-auth/internal/user/domain"
)

// Session binds an opaque token to a user. Only the SHA-256 of the token is
// kept; the raw value lives in the client's cookie.
type Session struct {
	TokenHash  string
	UserID     userdomain.ID
	CreatedAt  time.Time
	LastSeenAt time.Time
	ExpiresAt  time.Time
}

func (s Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
