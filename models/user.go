package models

import "strings"

// User represents a local account, optionally linked to a Google identity
type User struct {
	ID       int64   `json:"id" db:"id"`
	Username string  `json:"username" db:"username"`
	Email    string  `json:"email" db:"email"`
	GoogleID *string `json:"googleId,omitempty" db:"google_id"` // Google "sub" claim, never reassigned once set
	Name     *string `json:"name,omitempty" db:"name"`
	Picture  *string `json:"picture,omitempty" db:"picture"`
	RoleID   *int64  `json:"role_id" db:"role_id"`

	// RoleName is joined from roles and is empty when the user has no role
	RoleName string `json:"roleName,omitempty" db:"-"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new User instance with the given username and email
func NewUser(username, email string) *User {
	return &User{
		Username: username,
		Email:    email,
	}
}

// UsernameFromEmail derives the default username from the local part of an email address
func UsernameFromEmail(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found {
		return email
	}
	return local
}

// HasRole returns true if the user is assigned the named role
func (u *User) HasRole(name string) bool {
	return u.RoleID != nil && u.RoleName == name
}

// IsLinked returns true if a Google identity is linked to the user
func (u *User) IsLinked() bool {
	return u.GoogleID != nil && *u.GoogleID != ""
}

// StringPtr returns a pointer to s, or nil when s is empty
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences p, returning "" for nil
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
