package auth

import "time"

// User is an account capable of authenticating.
type User struct {
	ID           string    `json:"id"`
	Title        string    `json:"title,omitempty"`
	FirstName    string    `json:"firstName,omitempty"`
	MiddleName   string    `json:"middleName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	DisplayName  string    `json:"displayName,omitempty"`
	Email        string    `json:"email"`
	Username     string    `json:"username,omitempty"`
	MobileNumber string    `json:"mobileNumber,omitempty"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// LoginKey is the canonical token subject for the user: the username,
// falling back to the email address while no username is set. Tokens embed
// the value current at issuance; a later rename does not rewrite them.
func (u User) LoginKey() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// Role is a named bundle of permissions assignable to users. Names are
// unique and case-sensitive.
type Role struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Permission is an atomic capability, optionally grouped under a label.
// An empty GroupName means ungrouped; rendering substitutes a placeholder
// and the placeholder is never persisted.
type Permission struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	GroupName string    `json:"groupName,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserUpdate carries a partial user update; only non-nil fields are applied.
type UserUpdate struct {
	Title        *string
	FirstName    *string
	MiddleName   *string
	LastName     *string
	DisplayName  *string
	Email        *string
	Username     *string
	MobileNumber *string
	Active       *bool
}
