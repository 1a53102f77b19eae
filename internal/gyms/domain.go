// Package gyms manages gyms, their owners and the trainers attached to them.
package gyms

import (
	"errors"
	"strings"
	"time"

	"github.com/gymcore/gymcore/internal/users"
)

var (
	ErrNotFound      = errors.New("gym not found")
	ErrNotOwner      = errors.New("gym belongs to another owner")
	ErrTrainerExists = errors.New("trainer already attached to gym")
)

// MembershipPlan is a priced plan a gym advertises.
type MembershipPlan struct {
	Name           string  `json:"name" validate:"required,max=80"`
	Price          float64 `json:"price" validate:"gte=0"`
	DurationMonths int     `json:"durationMonths" validate:"gte=0,lte=120"`
	Description    string  `json:"description,omitempty" validate:"max=500"`
}

// Gym is a location run by exactly one owner.
type Gym struct {
	ID              int64            `json:"id"`
	OwnerID         int64            `json:"ownerId"`
	Name            string           `json:"name"`
	Address         string           `json:"address"`
	City            string           `json:"city"`
	ContactNumber   string           `json:"contactNumber"`
	GymImages       []string         `json:"gymImages"`
	GpayQR          *string          `json:"gpayQr"`
	PhonepeQR       *string          `json:"phonepeQr"`
	Facilities      []string         `json:"facilities"`
	Services        []string         `json:"services"`
	MembershipPlans []MembershipPlan `json:"membershipPlans"`
	IsActive        bool             `json:"isActive"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// OwnedBy reports whether userID owns the gym.
func (g *Gym) OwnedBy(userID int64) bool {
	return g != nil && g.OwnerID == userID
}

// Trainer is a user attached to a gym as staff.
type Trainer struct {
	ID             int64       `json:"id"`
	GymID          int64       `json:"gymId"`
	UserID         int64       `json:"userId"`
	Specialization *string     `json:"specialization"`
	CreatedAt      time.Time   `json:"createdAt"`
	User           *users.User `json:"user,omitempty"`
}

// Patch carries the fields of a partial update; nil means unchanged.
type Patch struct {
	Name            *string
	Address         *string
	City            *string
	ContactNumber   *string
	GymImages       *[]string
	GpayQR          *string
	PhonepeQR       *string
	Facilities      *[]string
	Services        *[]string
	MembershipPlans *[]MembershipPlan
	IsActive        *bool
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}

// UniqueStrings trims entries, drops blanks and removes case-insensitive
// duplicates keeping the first spelling and order.
func UniqueStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
