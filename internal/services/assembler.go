package services

import (
	"context"
	"fmt"
	"sort"

	"campus-rides-backend/internal/models"
)

// MemberLister enumerates a group's members
type MemberLister interface {
	ListMembers(ctx context.Context, groupID int64) ([]models.Member, error)
}

// GroupAssembler composes route, membership and acquaintance data into the
// externally visible GroupView
type GroupAssembler struct {
	members MemberLister
	graph   *AcquaintanceGraph
}

// NewGroupAssembler creates an assembler over the given collaborators
func NewGroupAssembler(members MemberLister, graph *AcquaintanceGraph) *GroupAssembler {
	return &GroupAssembler{members: members, graph: graph}
}

// Present builds the view of a group. When a viewer is supplied the view also
// carries the viewer's membership flag and the mutual-connection summary; the
// acquaintance graph is traversed once per call, covering all members.
func (a *GroupAssembler) Present(ctx context.Context, group *models.Group, viewer *models.User) (*models.GroupView, error) {
	members, err := a.members.ListMembers(ctx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble group %d: %w", group.ID, err)
	}

	seatsLeft := group.Capacity - len(members)
	if seatsLeft < 0 {
		seatsLeft = 0
	}
	view := &models.GroupView{
		ID:            group.ID,
		Route:         Waypoints(group),
		Capacity:      group.Capacity,
		SeatsLeft:     seatsLeft,
		Preference:    group.Preference,
		CreatorID:     group.CreatorID,
		DepartureTime: group.DepartureTime,
		Members:       members,
	}
	if viewer == nil {
		return view, nil
	}

	names := make(map[int64]string, len(members))
	targets := make([]int64, 0, len(members))
	for _, m := range members {
		if m.UserID == viewer.ID {
			view.IsMember = true
			continue
		}
		names[m.UserID] = m.Name
		targets = append(targets, m.UserID)
	}

	degrees, err := a.graph.ShortestDegrees(ctx, viewer.ID, targets)
	if err != nil {
		return nil, fmt.Errorf("failed to compute degrees for group %d: %w", group.ID, err)
	}
	for memberID, degree := range degrees {
		view.MutualFriends = append(view.MutualFriends, models.MutualFriend{
			MemberID: memberID,
			Name:     names[memberID],
			Degree:   degree,
			Label:    DegreeLabel(degree),
		})
	}
	sort.Slice(view.MutualFriends, func(i, j int) bool {
		mi, mj := view.MutualFriends[i], view.MutualFriends[j]
		if mi.Degree != mj.Degree {
			return mi.Degree < mj.Degree
		}
		return mi.MemberID < mj.MemberID
	})
	view.MutualCount = len(view.MutualFriends)
	return view, nil
}
