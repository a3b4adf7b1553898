package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campus-rides-backend/internal/models"
	"campus-rides-backend/internal/repository"
)

// GroupStore is the storage collaborator for groups
type GroupStore interface {
	Create(ctx context.Context, group *models.Group, autoJoinCreator bool) error
	GetByID(ctx context.Context, id int64) (*models.Group, error)
	DeleteCascade(ctx context.Context, id int64) error
	ListCandidates(ctx context.Context, filter repository.CandidateFilter) ([]models.Group, error)
	ListCreatedBy(ctx context.Context, userID int64) ([]models.Group, error)
	ListJoinedBy(ctx context.Context, userID int64) ([]models.Group, error)
}

// MembershipStore is the storage collaborator for memberships. JoinGroup must
// run its callback and the subsequent insert inside one transaction holding a
// lock on the group row.
type MembershipStore interface {
	MemberLister
	CountMembers(ctx context.Context, groupID int64) (int, error)
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
	Delete(ctx context.Context, groupID, userID int64) error
	JoinGroup(
		ctx context.Context,
		groupID, userID int64,
		decide func(group *models.Group, memberCount int, alreadyMember bool) *models.Denial,
	) (*models.Denial, error)
}

// UserGetter resolves user ids to profiles
type UserGetter interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// CreateGroupSpec is a validated request to create a trip group
type CreateGroupSpec struct {
	Origin        string            `json:"origin"`
	Stops         []string          `json:"stops"`
	Destination   string            `json:"destination"`
	DepartureTime *time.Time        `json:"departure_time"`
	Capacity      int               `json:"capacity"`
	Preference    models.Preference `json:"preference"`
}

// GroupService implements search, membership and presentation for trip groups
type GroupService struct {
	groups          GroupStore
	memberships     MembershipStore
	users           UserGetter
	assembler       *GroupAssembler
	policy          *CreationPolicy
	autoJoinCreator bool
}

// NewGroupService creates a new group service
func NewGroupService(
	groups GroupStore,
	memberships MembershipStore,
	users UserGetter,
	assembler *GroupAssembler,
	policy *CreationPolicy,
	autoJoinCreator bool,
) *GroupService {
	return &GroupService{
		groups:          groups,
		memberships:     memberships,
		users:           users,
		assembler:       assembler,
		policy:          policy,
		autoJoinCreator: autoJoinCreator,
	}
}

// Search returns the groups matching the query, ranked. A zero viewerID is an
// anonymous search and sees every preference value.
func (s *GroupService) Search(ctx context.Context, query SearchQuery, viewerID int64) ([]models.GroupView, error) {
	var viewer *models.User
	if viewerID != 0 {
		u, err := s.users.GetByID(ctx, viewerID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve viewer: %w", err)
		}
		viewer = u
	}
	query.Viewer = viewer

	filter := repository.CandidateFilter{
		ExcludeFemaleOnly: viewer != nil && viewer.Gender == models.GenderMale,
		MinCapacity:       query.MinCapacity,
	}
	groups, err := s.groups.ListCandidates(ctx, filter)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(groups))
	for _, group := range groups {
		count, err := s.memberships.CountMembers(ctx, group.ID)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, Candidate{Group: group, MemberCount: count})
	}

	matched := Match(candidates, query)
	views := make([]models.GroupView, 0, len(matched))
	for _, c := range matched {
		view, err := s.assembler.Present(ctx, &c.Group, viewer)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// Join adds the user to the group. The capacity check and the membership
// insert happen in one locked transaction, so concurrent joins for the last
// seat resolve to exactly one success.
func (s *GroupService) Join(ctx context.Context, groupID, userID int64) (*models.GroupView, *models.Denial, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	var joined *models.Group
	denial, err := s.memberships.JoinGroup(ctx, groupID, userID,
		func(group *models.Group, memberCount int, alreadyMember bool) *models.Denial {
			joined = group
			return CanJoin(group, user, memberCount, alreadyMember)
		})
	if err != nil {
		return nil, nil, err
	}
	if denial != nil {
		return nil, denial, nil
	}

	view, err := s.assembler.Present(ctx, joined, user)
	if err != nil {
		return nil, nil, err
	}
	return view, nil, nil
}

// Leave removes the user from the group. Leaving a group the user is not a
// member of succeeds without effect; the creator is refused and must delete
// the group instead.
func (s *GroupService) Leave(ctx context.Context, groupID, userID int64) (*models.Denial, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if denial := CanLeave(group, userID); denial != nil {
		return denial, nil
	}
	if err := s.memberships.Delete(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return nil, nil
}

// Create validates and stores a new trip group. The group insert and the
// creator's auto-join are one transaction.
func (s *GroupService) Create(ctx context.Context, spec CreateGroupSpec, creatorID int64) (*models.GroupView, *models.Denial, error) {
	creator, err := s.users.GetByID(ctx, creatorID)
	if err != nil {
		return nil, nil, err
	}

	if denial, err := CheckCreate(spec.Capacity, spec.Preference, creator); err != nil {
		return nil, nil, err
	} else if denial != nil {
		return nil, denial, nil
	}
	if denial, err := s.policy.CheckRoute(spec.Origin, spec.Stops, spec.Destination); err != nil {
		return nil, nil, err
	} else if denial != nil {
		return nil, denial, nil
	}

	stops := make([]string, 0, len(spec.Stops))
	for _, stop := range spec.Stops {
		if s := strings.TrimSpace(stop); s != "" {
			stops = append(stops, s)
		}
	}

	group := &models.Group{
		Origin:        strings.TrimSpace(spec.Origin),
		Stops:         stops,
		Destination:   strings.TrimSpace(spec.Destination),
		DepartureTime: spec.DepartureTime,
		Capacity:      spec.Capacity,
		Preference:    spec.Preference,
		CreatorID:     creatorID,
	}
	if err := s.groups.Create(ctx, group, s.autoJoinCreator); err != nil {
		return nil, nil, err
	}

	view, err := s.assembler.Present(ctx, group, creator)
	if err != nil {
		return nil, nil, err
	}
	return view, nil, nil
}

// Delete removes a group and all its memberships. Only the creator may do so.
func (s *GroupService) Delete(ctx context.Context, groupID, requesterID int64) (*models.Denial, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if denial := CanDelete(group, requesterID); denial != nil {
		return denial, nil
	}
	if err := s.groups.DeleteCascade(ctx, groupID); err != nil {
		return nil, err
	}
	return nil, nil
}

// Present builds the view of one group. A zero viewerID yields the anonymous
// view without membership or mutual-connection data.
func (s *GroupService) Present(ctx context.Context, groupID, viewerID int64) (*models.GroupView, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	var viewer *models.User
	if viewerID != 0 {
		viewer, err = s.users.GetByID(ctx, viewerID)
		if err != nil {
			return nil, err
		}
	}
	return s.assembler.Present(ctx, group, viewer)
}

// MyRides partitions the user's created and joined groups into upcoming and
// past by departure time. A group with no departure time is always upcoming.
func (s *GroupService) MyRides(ctx context.Context, userID int64) (*models.MyRides, error) {
	viewer, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	created, err := s.groups.ListCreatedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	joined, err := s.groups.ListJoinedBy(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rides := &models.MyRides{}
	if rides.Created, err = s.bucketize(ctx, created, viewer, now); err != nil {
		return nil, err
	}
	if rides.Joined, err = s.bucketize(ctx, joined, viewer, now); err != nil {
		return nil, err
	}
	return rides, nil
}

func (s *GroupService) bucketize(ctx context.Context, groups []models.Group, viewer *models.User, now time.Time) (models.RideBuckets, error) {
	var buckets models.RideBuckets
	for i := range groups {
		view, err := s.assembler.Present(ctx, &groups[i], viewer)
		if err != nil {
			return buckets, err
		}
		if groups[i].DepartureTime != nil && groups[i].DepartureTime.Before(now) {
			buckets.Past = append(buckets.Past, *view)
		} else {
			buckets.Upcoming = append(buckets.Upcoming, *view)
		}
	}
	return buckets, nil
}
