package domain

import "time"

// Session is the explicit login state handed to request handlers; there is
// no ambient global auth state.
type Session struct {
	Token     string    `json:"token"`
	ProfileID string    `json:"profile_id"`
	UserType  UserType  `json:"user_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

type AdminSession struct {
	Token     string    `json:"token"`
	AdminID   string    `json:"admin_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *AdminSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
