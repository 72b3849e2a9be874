package domain

import (
	"strings"
	"time"
)

type ID int64

type User struct {
	ID           ID
	Username     string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// NewUser is a record that has not been assigned an id or creation time yet.
type NewUser struct {
	Username     string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
}

// Patch names the only fields that may change after creation. A nil field
// is left untouched.
type Patch struct {
	Username  *string
	FirstName *string
	LastName  *string
	Email     *string
}

func (p Patch) IsEmpty() bool {
	return p.Username == nil && p.FirstName == nil && p.LastName == nil && p.Email == nil
}

func (p Patch) Apply(u User) User {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	return u
}

// Matches reports whether query occurs, ignoring case, in any of the
// user's searchable fields. An empty query matches everyone.
func (u User) Matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, field := range []string{u.Username, u.FirstName, u.LastName, u.Email} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
