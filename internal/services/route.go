package services

import (
	"strings"

	"campus-rides-backend/internal/models"
)

// Waypoints returns a group's route as an ordered sequence: origin, then
// stops, then destination, with blank entries dropped.
func Waypoints(group *models.Group) []string {
	route := make([]string, 0, len(group.Stops)+2)
	if origin := strings.TrimSpace(group.Origin); origin != "" {
		route = append(route, origin)
	}
	for _, stop := range group.Stops {
		if s := strings.TrimSpace(stop); s != "" {
			route = append(route, s)
		}
	}
	if dest := strings.TrimSpace(group.Destination); dest != "" {
		route = append(route, dest)
	}
	return route
}

// PositionOf returns the smallest waypoint index containing term as a
// case-insensitive substring, or -1 when no waypoint matches. Substring
// matching is deliberate: "Patiala" matches "New Patiala Bypass". An empty
// term never matches.
func PositionOf(group *models.Group, term string) int {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return -1
	}
	for i, waypoint := range Waypoints(group) {
		if strings.Contains(strings.ToLower(waypoint), needle) {
			return i
		}
	}
	return -1
}
