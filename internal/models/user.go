// Package models defines the data structures persisted in the user store
// document and provides the core types used throughout the application.
package models

// Role represents a user's permission level in the system.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ValidRole reports whether r is one of the closed set of roles.
func ValidRole(r Role) bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents an account with password and TOTP enrollment fields.
// The email address is the primary key; ID always mirrors it.
//
// The JSON tags define the on-disk document schema. PasswordHash, Secret
// and QRCode are secrets and must never appear in API responses — handlers
// serialize a sanitized view, never this struct.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PasswordHash string `json:"password"`
	Secret       string `json:"secret"`
	QRCode       string `json:"qrCode"`
	Verified     bool   `json:"is_verified"`
	Deleted      bool   `json:"is_deleted"`
	Role         Role   `json:"role"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserSet is the full user store document: a mapping from email to record.
// It is always read and written as one unit.
type UserSet struct {
	Users map[string]*User `json:"users"`
}

// NewUserSet returns an empty, initialized document.
func NewUserSet() *UserSet {
	return &UserSet{Users: make(map[string]*User)}
}

// Get returns the record for email, or nil if absent.
func (s *UserSet) Get(email string) *User {
	if s.Users == nil {
		return nil
	}
	return s.Users[email]
}

// Put inserts or replaces the record for u.ID.
func (s *UserSet) Put(u *User) {
	if s.Users == nil {
		s.Users = make(map[string]*User)
	}
	s.Users[u.ID] = u
}

// Len returns the number of records, soft-deleted included.
func (s *UserSet) Len() int {
	return len(s.Users)
}

// Clone returns a deep copy sharing nothing with the receiver. Record
// structs are copied by value; all their fields are value types.
func (s *UserSet) Clone() *UserSet {
	out := &UserSet{Users: make(map[string]*User, len(s.Users))}
	for email, u := range s.Users {
		c := *u
		out.Users[email] = &c
	}
	return out
}
