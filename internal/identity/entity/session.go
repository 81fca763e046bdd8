package entity

import "time"

// Session binds a browser to an identity. Only the HMAC of the token is stored.
type Session struct {
	ID         int64
	IdentityID int64
	TokenHash  string
	UserAgent  string
	IPAddress  string
	CreatedAt  time.Time
}

// SessionOwner is what a token hash resolves to.
type SessionOwner struct {
	SessionID  int64
	IdentityID int64
	Email      string
}
