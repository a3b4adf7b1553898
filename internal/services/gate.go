package services

import (
	"strings"

	"campus-rides-backend/internal/models"
)

const (
	minCapacity = 1
	maxCapacity = 200
)

// CanJoin decides whether a user may join a group given its current member
// count and whether the user already belongs. A nil result admits the user.
func CanJoin(group *models.Group, user *models.User, memberCount int, alreadyMember bool) *models.Denial {
	if user.ID == group.CreatorID {
		return models.Deny(models.DenyCreatorConflict)
	}
	if group.Preference == models.PreferenceFemaleOnly && user.Gender != models.GenderFemale {
		return models.Deny(models.DenyPreferenceBlocked)
	}
	if memberCount >= group.Capacity {
		return models.Deny(models.DenyFull)
	}
	if alreadyMember {
		return models.Deny(models.DenyAlreadyMember)
	}
	return nil
}

// CanLeave decides whether a user may leave a group. The creator can never
// leave; they must delete the group instead. Leaving a group the user is not
// a member of is allowed and treated as a no-op by the caller.
func CanLeave(group *models.Group, userID int64) *models.Denial {
	if userID == group.CreatorID {
		return models.Deny(models.DenyCreatorMustDelete)
	}
	return nil
}

// CanDelete decides whether a user may delete a group
func CanDelete(group *models.Group, userID int64) *models.Denial {
	if userID != group.CreatorID {
		return models.Deny(models.DenyNotCreator)
	}
	return nil
}

// CreationPolicy validates a proposed trip at creation time. Cities, when
// set, restricts every waypoint to known city names. HomeCity, when set,
// requires the route to start or end there.
type CreationPolicy struct {
	Cities   *CityDirectory
	HomeCity string
}

// CheckRoute validates the proposed route against the policy. Unknown
// waypoints are a validation error; a route that skips the home base is a
// policy denial.
func (p *CreationPolicy) CheckRoute(origin string, stops []string, destination string) (*models.Denial, error) {
	if strings.TrimSpace(origin) == "" {
		return nil, invalid("origin", "must not be empty")
	}
	if strings.TrimSpace(destination) == "" {
		return nil, invalid("destination", "must not be empty")
	}
	if p == nil {
		return nil, nil
	}
	if p.Cities != nil {
		if !p.Cities.IsValid(origin) {
			return nil, invalid("origin", "unknown city")
		}
		if !p.Cities.IsValid(destination) {
			return nil, invalid("destination", "unknown city")
		}
		for _, stop := range stops {
			if !p.Cities.IsValid(stop) {
				return nil, invalid("stops", "unknown city: "+stop)
			}
		}
	}
	if p.HomeCity != "" &&
		!strings.EqualFold(strings.TrimSpace(origin), p.HomeCity) &&
		!strings.EqualFold(strings.TrimSpace(destination), p.HomeCity) {
		return models.Deny(models.DenyHomeBaseRequired), nil
	}
	return nil, nil
}

// CheckCreate validates the non-route creation constraints: capacity range,
// preference enum, and the female-only gender rule for the creator.
func CheckCreate(capacity int, preference models.Preference, creator *models.User) (*models.Denial, error) {
	if capacity < minCapacity || capacity > maxCapacity {
		return nil, invalid("capacity", "must be between 1 and 200")
	}
	if !preference.Valid() {
		return nil, invalid("preference", "must be ALL or FEMALE_ONLY")
	}
	if preference == models.PreferenceFemaleOnly && creator.Gender != models.GenderFemale {
		return models.Deny(models.DenyGenderMismatch), nil
	}
	return nil, nil
}
