package entity

import "time"

// Identity is the authenticable principal. OTPSecret is sealed and is only
// opened while issuing or validating a code.
type Identity struct {
	ID              int64
	Email           string
	Verified        bool
	FirstName       string
	LastName        string
	TermsAcceptedAt time.Time
	OTPSecret       []byte
	OTPCounter      uint64
	OTPExpiresAt    *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasValidCode reports whether an issued code is still inside its window.
func (i *Identity) HasValidCode(now time.Time) bool {
	return i.OTPExpiresAt != nil && now.Before(*i.OTPExpiresAt)
}

// NewIdentity is the row written by registration. The counter starts at
// zero with no expiry.
type NewIdentity struct {
	ID              int64
	Email           string
	FirstName       string
	LastName        string
	TermsAcceptedAt time.Time
	OTPSecret       []byte
	CreatedAt       time.Time
}

// OTPState is the counter and expiry after an issue attempt.
type OTPState struct {
	Counter   uint64
	ExpiresAt *time.Time
	// Advanced is false when a reuse issue found an unexpired code and
	// changed nothing.
	Advanced bool
}

// Consume marks a code as used. The store applies it only if the counter
// still matches and the code has not expired at At.
type Consume struct {
	IdentityID int64
	Counter    uint64
	At         time.Time
}
