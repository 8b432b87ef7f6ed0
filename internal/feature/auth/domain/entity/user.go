// Package entity defines the domain entities for the auth feature.
package entity

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered user in the system.
// It contains authentication credentials, the current session token and
// login metadata for security auditing.
type User struct {
	// ID is the unique identifier for the user.
	ID uint `gorm:"primaryKey" json:"id"`

	// Name is the user's display name.
	Name string `gorm:"size:100;not null" json:"name"`

	// Email is the user's email address used for authentication.
	// It is stored lowercased and must be unique across all live users.
	Email string `gorm:"uniqueIndex;size:100;not null" json:"email"`

	// Password is the bcrypt hash of the user's password.
	// This never stores plaintext passwords.
	Password string `gorm:"size:255;not null" json:"-"`

	// JWTToken is the user's current session token. At most one token is
	// active per user: issuing a new one overwrites this field, and logout
	// sets it to nil.
	JWTToken *string `gorm:"size:500" json:"-"`

	// LastLoginAt is the timestamp of the most recent successful login.
	LastLoginAt *time.Time `json:"last_login_at"`

	// LastLoginIP is the origin address of the most recent successful login.
	LastLoginIP string `gorm:"size:45" json:"-"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updated_at"`

	// DeletedAt marks the user as soft-deleted. Rows are never hard-deleted.
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
