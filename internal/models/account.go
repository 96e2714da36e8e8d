package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserAccount is a grid user account.
type UserAccount struct {
	PrincipalID uuid.UUID         `db:"principal_id" json:"principal_id" yaml:"-"`
	ScopeID     uuid.UUID         `db:"scope_id" json:"scope_id" yaml:"-"`
	FirstName   string            `db:"first_name" json:"first_name" yaml:"first"`
	LastName    string            `db:"last_name" json:"last_name" yaml:"last"`
	Email       string            `db:"email" json:"email" yaml:"email"`
	UserLevel   int               `db:"user_level" json:"user_level" yaml:"level"`
	UserFlags   int               `db:"user_flags" json:"user_flags" yaml:"-"`
	UserTitle   string            `db:"user_title" json:"user_title" yaml:"title"`
	Created     int64             `db:"created" json:"created" yaml:"-"`
	ServiceURLs map[string]string `db:"-" json:"service_urls,omitempty" yaml:"-"`
}

// Name returns "First Last".
func (a *UserAccount) Name() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// CreatedTime converts the unix Created stamp.
func (a *UserAccount) CreatedTime() time.Time {
	return time.Unix(a.Created, 0)
}

// IsPending reports whether the account awaits administrator activation.
func (a *UserAccount) IsPending() bool {
	return a.UserLevel < 0
}

// Auth is a stored credential for a principal.
type Auth struct {
	PrincipalID  uuid.UUID `db:"principal_id"`
	PasswordHash string    `db:"password_hash"`
	PasswordSalt string    `db:"password_salt"`
	AccountType  string    `db:"account_type"`
}

// GridUserInfo is the per-user grid state: home, last position, online flag.
type GridUserInfo struct {
	UserID       string    `db:"user_id"`
	HomeRegionID uuid.UUID `db:"home_region_id"`
	LastRegionID uuid.UUID `db:"last_region_id"`
	Online       bool      `db:"online"`
	Login        int64     `db:"login"`
	Logout       int64     `db:"logout"`
	TOSAccepted  bool      `db:"tos_accepted"`
}

// LastLogin converts the unix Login stamp; the zero time means never.
func (g *GridUserInfo) LastLogin() time.Time {
	if g == nil || g.Login == 0 {
		return time.Time{}
	}
	return time.Unix(g.Login, 0)
}

// PresenceInfo ties a viewer session to a user and region.
type PresenceInfo struct {
	UserID          string    `db:"user_id"`
	RegionID        uuid.UUID `db:"region_id"`
	SessionID       uuid.UUID `db:"session_id"`
	SecureSessionID uuid.UUID `db:"secure_session_id"`
	LastSeen        int64     `db:"last_seen"`
}
