// Package access decides whether a user may reach a client route or API
// endpoint, and where to send them when they may not.
package access

import (
	"slices"

	"github.com/gymcore/gymcore/internal/users"
)

// Decision is the outcome of evaluating a rule.
type Decision string

const (
	Allow           Decision = "allow"
	Unauthenticated Decision = "unauthenticated"
	NeedsOnboarding Decision = "needs_onboarding"
	WrongRole       Decision = "wrong_role"
	NeedsGym        Decision = "needs_gym"
)

// Client routes used as redirect targets.
const (
	PathAuth       = "/auth"
	PathOnboarding = "/onboarding"
	PathCreateGym  = "/gyms/create"
	PathDashboard  = "/dashboard"
	PathSchedule   = "/dashboard/schedule"
)

// Subject is what the gate knows about the requester.
type Subject struct {
	Authenticated bool
	Role          *users.Role
	// OwnedGyms is only consulted for owners on gym-scoped rules.
	OwnedGyms int
	// GymLookupFailed marks OwnedGyms as unknown.
	GymLookupFailed bool
}

// Rule describes who may reach a route.
type Rule struct {
	Public bool
	// Onboarding admits only authenticated users without a role.
	Onboarding bool
	// Roles restricts the route; empty admits any role.
	Roles []users.Role
	// GymScoped requires owners to own at least one gym.
	GymScoped bool
}

// Result is a decision plus the route the client should go to instead.
type Result struct {
	Allowed  bool     `json:"allowed"`
	Decision Decision `json:"decision"`
	Redirect string   `json:"redirect"`
}

// Home returns the landing route for a role.
func Home(role users.Role) string {
	if role == users.RoleTrainer {
		return PathSchedule
	}
	return PathDashboard
}

// Evaluate runs the checks in order: authentication, onboarding, role and
// finally the owner gym requirement. An unknown gym count does not block.
func Evaluate(s Subject, rule Rule) Result {
	if rule.Public {
		return allow()
	}
	if !s.Authenticated {
		return Result{Decision: Unauthenticated, Redirect: PathAuth}
	}
	if rule.Onboarding {
		if s.Role == nil {
			return allow()
		}
		return Result{Decision: WrongRole, Redirect: Home(*s.Role)}
	}
	if s.Role == nil {
		return Result{Decision: NeedsOnboarding, Redirect: PathOnboarding}
	}
	role := *s.Role
	if len(rule.Roles) > 0 && !slices.Contains(rule.Roles, role) {
		return Result{Decision: WrongRole, Redirect: Home(role)}
	}
	if rule.GymScoped && role == users.RoleOwner && !s.GymLookupFailed && s.OwnedGyms == 0 {
		return Result{Decision: NeedsGym, Redirect: PathCreateGym}
	}
	return allow()
}

func allow() Result {
	return Result{Allowed: true, Decision: Allow}
}
