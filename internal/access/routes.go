package access

import (
	"path"
	"strings"

	"github.com/gymcore/gymcore/internal/users"
)

// Route binds a client path prefix to a rule.
type Route struct {
	Prefix string
	Rule   Rule
}

var ownerOnly = []users.Role{users.RoleOwner}

// ClientRoutes mirrors the browser route guard.
var ClientRoutes = []Route{
	{Prefix: PathAuth, Rule: Rule{Public: true}},
	{Prefix: PathOnboarding, Rule: Rule{Onboarding: true}},
	{Prefix: PathCreateGym, Rule: Rule{Roles: ownerOnly}},
	{Prefix: PathDashboard, Rule: Rule{}},
	{Prefix: "/dashboard/schedule", Rule: Rule{}},
	{Prefix: "/dashboard/workouts", Rule: Rule{}},
	{Prefix: "/dashboard/diets", Rule: Rule{}},
	{Prefix: "/dashboard/profile", Rule: Rule{}},
	{Prefix: "/dashboard/settings", Rule: Rule{}},
	{Prefix: "/dashboard/classes", Rule: Rule{Roles: ownerOnly, GymScoped: true}},
	{Prefix: "/dashboard/users", Rule: Rule{Roles: ownerOnly, GymScoped: true}},
	{Prefix: "/dashboard/members", Rule: Rule{Roles: ownerOnly, GymScoped: true}},
	{Prefix: "/dashboard/trainers", Rule: Rule{Roles: ownerOnly, GymScoped: true}},
	{Prefix: "/dashboard/payments", Rule: Rule{Roles: ownerOnly, GymScoped: true}},
	{Prefix: "/dashboard/attendance", Rule: Rule{Roles: ownerOnly, GymScoped: true}},
	{Prefix: "/dashboard/reports", Rule: Rule{Roles: ownerOnly, GymScoped: true}},
	{Prefix: "/dashboard/gyms", Rule: Rule{Roles: ownerOnly, GymScoped: true}},
}

// Lookup returns the rule of the longest matching prefix. Paths outside the
// table are public.
func Lookup(routes []Route, p string) (Rule, bool) {
	p = path.Clean("/" + strings.TrimSpace(p))
	best := -1
	for i, route := range routes {
		if p != route.Prefix && !strings.HasPrefix(p, route.Prefix+"/") {
			continue
		}
		if best < 0 || len(route.Prefix) > len(routes[best].Prefix) {
			best = i
		}
	}
	if best < 0 {
		return Rule{Public: true}, false
	}
	return routes[best].Rule, true
}
