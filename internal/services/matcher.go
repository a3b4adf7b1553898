package services

import (
	"sort"
	"time"

	"campus-rides-backend/internal/models"
)

// TimeScope selects how a desired departure time constrains candidates
type TimeScope string

const (
	// ScopeWindow keeps candidates departing within a window around the
	// desired instant
	ScopeWindow TimeScope = "window"
	// ScopeDay keeps candidates departing on the same calendar date as the
	// desired instant
	ScopeDay TimeScope = "day"
)

// DefaultWindowMinutes is the window half-width used when a search gives a
// desired departure but no explicit window.
const DefaultWindowMinutes = 60

// SearchQuery is a group search request
type SearchQuery struct {
	StartTerm     string
	DestTerm      string
	MinCapacity   int // total capacity floor; 0 disables
	MinSeatsLeft  int // remaining seats floor; 0 disables
	Departure     *time.Time
	Scope         TimeScope
	WindowMinutes int
	Viewer        *models.User // nil for anonymous searches
}

// Candidate pairs a group with its current member count
type Candidate struct {
	Group       models.Group
	MemberCount int
}

// SeatsLeft returns the candidate's remaining seats, floored at zero
func (c Candidate) SeatsLeft() int {
	if left := c.Group.Capacity - c.MemberCount; left > 0 {
		return left
	}
	return 0
}

// Match filters the candidate pool through the preference, capacity, route
// and time stages, then sorts the survivors. Each filter stage only narrows
// the set; ordering is decided once at the end.
func Match(candidates []Candidate, query SearchQuery) []Candidate {
	matched := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !visibleTo(c.Group, query.Viewer) {
			continue
		}
		if query.MinCapacity > 0 && c.Group.Capacity < query.MinCapacity {
			continue
		}
		if query.MinSeatsLeft > 0 && c.SeatsLeft() < query.MinSeatsLeft {
			continue
		}
		if !routeMatches(c.Group, query.StartTerm, query.DestTerm) {
			continue
		}
		if !timeMatches(c.Group, query) {
			continue
		}
		matched = append(matched, c)
	}
	sortCandidates(matched, query)
	return matched
}

// visibleTo hides female-only groups from viewers known to be male. Anonymous
// searches, and viewers with female or unspecified gender, see everything.
func visibleTo(group models.Group, viewer *models.User) bool {
	if group.Preference != models.PreferenceFemaleOnly {
		return true
	}
	return viewer == nil || viewer.Gender != models.GenderMale
}

// routeMatches checks route containment and, when both terms are given,
// strict ordering: the start term must occur at an earlier waypoint than the
// destination term.
func routeMatches(group models.Group, startTerm, destTerm string) bool {
	switch {
	case startTerm == "" && destTerm == "":
		return true
	case destTerm == "":
		return PositionOf(&group, startTerm) >= 0
	case startTerm == "":
		return PositionOf(&group, destTerm) >= 0
	default:
		start := PositionOf(&group, startTerm)
		dest := PositionOf(&group, destTerm)
		return start >= 0 && dest >= 0 && start < dest
	}
}

// timeMatches applies the departure constraint. Candidates with no departure
// timestamp are dropped whenever any time constraint is active.
func timeMatches(group models.Group, query SearchQuery) bool {
	if query.Departure == nil {
		return true
	}
	if group.DepartureTime == nil {
		return false
	}
	if query.Scope == ScopeDay {
		desired := *query.Departure
		dep := group.DepartureTime.In(desired.Location())
		return dep.Year() == desired.Year() && dep.YearDay() == desired.YearDay()
	}
	window := query.WindowMinutes
	if window <= 0 {
		window = DefaultWindowMinutes
	}
	diff := group.DepartureTime.Sub(*query.Departure)
	if diff < 0 {
		diff = -diff
	}
	return diff <= time.Duration(window)*time.Minute
}

// maximal sentinel so groups without a departure time sort last
const noDepartureDistance = time.Duration(1<<63 - 1)

// sortCandidates orders the surviving set. With a desired departure the
// primary key is distance from that instant ("closest to what I asked for");
// without one it is the departure time itself ("soonest leaving"). Remaining
// seats break ties, descending.
func sortCandidates(candidates []Candidate, query SearchQuery) {
	if query.Departure != nil {
		desired := *query.Departure
		sort.SliceStable(candidates, func(i, j int) bool {
			di, dj := distanceFrom(candidates[i].Group, desired), distanceFrom(candidates[j].Group, desired)
			if di != dj {
				return di < dj
			}
			return candidates[i].SeatsLeft() > candidates[j].SeatsLeft()
		})
		return
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		gi, gj := candidates[i].Group, candidates[j].Group
		switch {
		case gi.DepartureTime == nil && gj.DepartureTime == nil:
		case gi.DepartureTime == nil:
			return false
		case gj.DepartureTime == nil:
			return true
		case !gi.DepartureTime.Equal(*gj.DepartureTime):
			return gi.DepartureTime.Before(*gj.DepartureTime)
		}
		return candidates[i].SeatsLeft() > candidates[j].SeatsLeft()
	})
}

func distanceFrom(group models.Group, desired time.Time) time.Duration {
	if group.DepartureTime == nil {
		return noDepartureDistance
	}
	diff := group.DepartureTime.Sub(desired)
	if diff < 0 {
		diff = -diff
	}
	return diff
}
