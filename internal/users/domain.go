// Package users owns the user directory shared by authentication, gym staff
// and membership enrolment.
package users

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role is the coarse permission set of a user. A user without a role has not
// finished onboarding.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleTrainer Role = "trainer"
	RoleMember  Role = "member"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleTrainer, RoleMember:
		return true
	}
	return false
}

// User represents a person known to the system.
type User struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"fullName"`
	MobileNumber string    `json:"mobileNumber"`
	Username     string    `json:"username"`
	Email        *string   `json:"email"`
	Gender       *string   `json:"gender"`
	AgeOrDOB     *string   `json:"ageOrDob"`
	City         *string   `json:"city"`
	Role         *Role     `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasRole reports whether the user has finished onboarding.
func (u *User) HasRole() bool {
	return u != nil && u.Role != nil
}

// RoleIs reports whether the user holds role.
func (u *User) RoleIs(role Role) bool {
	return u.HasRole() && *u.Role == role
}

// CanLogin reports whether a password has been set. Accounts enrolled by an
// owner start without one.
func (u *User) CanLogin() bool {
	return u != nil && u.PasswordHash != ""
}

// NewUser carries the fields needed to insert a user.
type NewUser struct {
	FullName     string
	MobileNumber string
	Username     string
	Email        *string
	Gender       *string
	AgeOrDOB     *string
	City         *string
	Role         *Role
	PasswordHash string
}

var titleCaser = cases.Title(language.Und)

// NormalizeCity trims and title-cases a city name so "  new delhi" and
// "New Delhi" match.
func NormalizeCity(city string) string {
	fields := strings.Fields(city)
	if len(fields) == 0 {
		return ""
	}
	return titleCaser.String(strings.ToLower(strings.Join(fields, " ")))
}

// NormalizeMobile strips spaces and dashes from a mobile number.
func NormalizeMobile(mobile string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(mobile) {
		if r == ' ' || r == '-' || r == '(' || r == ')' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
