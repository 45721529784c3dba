// Package models defines the core data types for the account subsystem.
package models

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
	"unicode/utf8"
)

// Column limits of the user table.
const (
	MaxNameLen     = 32
	MaxPasswordLen = 64
)

// NewUser is the caller-supplied data for account creation.
type NewUser struct {
	Name       string
	Password   string
	IsMale     bool
	CreationIP string // optional
}

// Validate checks NewUser against the user table constraints.
func (u *NewUser) Validate() error {
	name := strings.TrimSpace(u.Name)
	switch {
	case name == "":
		return errors.New("user name is required")
	case name != u.Name:
		return fmt.Errorf("user name %q has leading or trailing spaces", u.Name)
	case utf8.RuneCountInString(u.Name) > MaxNameLen:
		return fmt.Errorf("user name is longer than %d characters", MaxNameLen)
	case u.Password == "":
		return errors.New("password is required")
	case utf8.RuneCountInString(u.Password) > MaxPasswordLen:
		return fmt.Errorf("password is longer than %d characters", MaxPasswordLen)
	}
	if u.CreationIP != "" && !ValidIP(u.CreationIP) {
		return fmt.Errorf("creation ip %q is not a valid address", u.CreationIP)
	}
	return nil
}

// ValidIP reports whether s is an IPv4 or IPv6 literal.
func ValidIP(s string) bool { return net.ParseIP(s) != nil }

// Ban is the effective ban of a user or an IP address.
type Ban struct {
	Permanent bool
	ExpiresAt time.Time // zero when Permanent
}

// Active reports whether the ban still applies at now.
func (b Ban) Active(now time.Time) bool {
	return b.Permanent || now.Before(b.ExpiresAt)
}

// String renders the ban for CLI output.
func (b Ban) String() string {
	if b.Permanent {
		return "permanent"
	}
	return "until " + b.ExpiresAt.UTC().Format(time.RFC3339)
}

// UserLoginInfo is what the login server needs to authenticate a user.
type UserLoginInfo struct {
	Password  string
	IsDeleted bool
	Ban       *Ban // nil when the user has never been banned
}

// UserPostLoginInfo is the profile sent to the client after a successful login.
type UserPostLoginInfo struct {
	IsMale           bool
	Auth             int
	DefaultCharacter int
	Rank             int
	RankRecord       int
	Points           int
	Code             int
}

// LoginOutcome classifies a login attempt.
type LoginOutcome string

// Login outcomes.
const (
	LoginOK            LoginOutcome = "ok"
	LoginUnknownUser   LoginOutcome = "unknown_user"
	LoginWrongPassword LoginOutcome = "wrong_password"
	LoginDeleted       LoginOutcome = "deleted"
	LoginUserBanned    LoginOutcome = "user_banned"
	LoginIPBanned      LoginOutcome = "ip_banned"
)

// LoginResult is returned from Service.Login.
type LoginResult struct {
	Outcome  LoginOutcome
	UserID   int64
	Ban      *Ban               // set for LoginUserBanned and LoginIPBanned
	PostInfo *UserPostLoginInfo // set for LoginOK
}

// OK reports whether the login succeeded.
func (r *LoginResult) OK() bool { return r.Outcome == LoginOK }
