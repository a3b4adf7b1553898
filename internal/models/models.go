package models

import "time"

// Gender is the gender recorded on a user profile
type Gender string

const (
	GenderMale        Gender = "M"
	GenderFemale      Gender = "F"
	GenderUnspecified Gender = "U"
)

// Valid reports whether g is one of the known gender values
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderUnspecified
}

// Preference is the access policy tag on a group
type Preference string

const (
	PreferenceAll        Preference = "ALL"
	PreferenceFemaleOnly Preference = "FEMALE_ONLY"
)

// Valid reports whether p is one of the known preference values
func (p Preference) Valid() bool {
	return p == PreferenceAll || p == PreferenceFemaleOnly
}

// User represents a registered student
type User struct {
	ID           int64     `json:"id"`
	RollNo       string    `json:"roll_no"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Gender       Gender    `json:"gender"`
	Year         int       `json:"year"`
	CreatedAt    time.Time `json:"created_at"`
}

// Group represents a proposed carpool trip
type Group struct {
	ID            int64      `json:"id"`
	Origin        string     `json:"origin"`
	Stops         []string   `json:"stops"`
	Destination   string     `json:"destination"`
	DepartureTime *time.Time `json:"departure_time,omitempty"`
	Capacity      int        `json:"capacity"`
	Preference    Preference `json:"preference"`
	CreatorID     int64      `json:"creator_id"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Member is one user's membership in a group
type Member struct {
	UserID   int64     `json:"user_id"`
	Name     string    `json:"name"`
	Year     int       `json:"year"`
	IsAdmin  bool      `json:"is_admin"`
	JoinedAt time.Time `json:"joined_at"`
}

// Connection is an undirected acquaintance edge between two users.
// UserA is always the smaller id of the pair.
type Connection struct {
	UserA     int64     `json:"user_a"`
	UserB     int64     `json:"user_b"`
	CreatedAt time.Time `json:"created_at"`
}

// MutualFriend is a group member reachable from the viewer in the
// acquaintance graph
type MutualFriend struct {
	MemberID int64  `json:"member_id"`
	Name     string `json:"name"`
	Degree   int    `json:"degree"`
	Label    string `json:"label"`
}

// GroupView is the externally visible representation of a group
type GroupView struct {
	ID            int64          `json:"id"`
	Route         []string       `json:"route"`
	Capacity      int            `json:"capacity"`
	SeatsLeft     int            `json:"seats_left"`
	Preference    Preference     `json:"preference"`
	CreatorID     int64          `json:"creator_id"`
	DepartureTime *time.Time     `json:"departure_time,omitempty"`
	Members       []Member       `json:"members"`
	IsMember      bool           `json:"is_member"`
	MutualFriends []MutualFriend `json:"mutual_friends,omitempty"`
	MutualCount   int            `json:"mutual_count"`
}

// RideBuckets partitions a user's groups by departure time relative to now.
// A group with no departure time is always upcoming.
type RideBuckets struct {
	Upcoming []GroupView `json:"upcoming"`
	Past     []GroupView `json:"past"`
}

// MyRides groups the rides a user created and the ones they joined
type MyRides struct {
	Created RideBuckets `json:"created"`
	Joined  RideBuckets `json:"joined"`
}

// Deny reasons returned by the membership gate
const (
	DenyCreatorConflict   = "creator_conflict"
	DenyPreferenceBlocked = "preference_blocked"
	DenyFull              = "full"
	DenyAlreadyMember     = "already_member"
	DenyCreatorMustDelete = "creator_must_delete"
	DenyNotCreator        = "not_creator"
	DenyGenderMismatch    = "gender_mismatch"
	DenyHomeBaseRequired  = "home_base_required"
)

// Denial is a policy outcome, not an error: the operation was understood
// and rejected for a named reason the caller can branch on.
type Denial struct {
	Reason string `json:"reason"`
}

// Deny builds a Denial with the given reason
func Deny(reason string) *Denial {
	return &Denial{Reason: reason}
}
