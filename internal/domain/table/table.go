// Package table names the entity tables and the per-query routing decision.
package table

import "strings"

// Name is an entity table.
type Name string

const (
	// Players holds one document per footballer.
	Players Name = "players"
	// Teams holds one document per club.
	Teams Name = "teams"
)

// All lists the tables in their canonical concatenation order.
var All = []Name{Players, Teams}

// Route is the routing decision for a query, derived once and reused by every
// retrieval call for that query.
type Route string

// Routing decisions.
const (
	RoutePlayers Route = "players"
	RouteTeams   Route = "teams"
	RouteBoth    Route = "both"
	// RouteUnknown means the router could not decide. It resolves to players.
	RouteUnknown Route = "unknown"
)

// ParseRoute accepts an exact label (case-insensitive).
func ParseRoute(s string) (Route, bool) {
	switch r := Route(strings.ToLower(strings.TrimSpace(s))); r {
	case RoutePlayers, RouteTeams, RouteBoth:
		return r, true
	default:
		return RouteUnknown, false
	}
}

// Resolve maps RouteUnknown to the players default; other routes are returned as is.
func (r Route) Resolve() Route {
	if r == RouteUnknown || r == "" {
		return RoutePlayers
	}
	return r
}

// Tables returns the tables to search, players before teams.
func (r Route) Tables() []Name {
	switch r.Resolve() {
	case RouteTeams:
		return []Name{Teams}
	case RouteBoth:
		return []Name{Players, Teams}
	default:
		return []Name{Players}
	}
}

// IsBoth reports whether the query fans out across both tables.
func (r Route) IsBoth() bool { return r == RouteBoth }
