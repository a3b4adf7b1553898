package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"campus-rides-backend/internal/models"
	"campus-rides-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory stand-in for the repositories. JoinGroup holds
// the store lock for the whole decide-and-insert sequence, mirroring the row
// lock the Postgres implementation takes.
type fakeStore struct {
	mu          sync.Mutex
	users       map[int64]*models.User
	groups      map[int64]*models.Group
	members     map[int64]map[int64]models.Member
	edges       map[int64][]int64
	nextGroupID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   make(map[int64]*models.User),
		groups:  make(map[int64]*models.Group),
		members: make(map[int64]map[int64]models.Member),
		edges:   make(map[int64][]int64),
	}
}

func (f *fakeStore) addUser(u models.User) *models.User {
	f.users[u.ID] = &u
	return &u
}

func (f *fakeStore) addGroup(g models.Group) *models.Group {
	f.nextGroupID++
	g.ID = f.nextGroupID
	f.groups[g.ID] = &g
	f.members[g.ID] = make(map[int64]models.Member)
	return &g
}

func (f *fakeStore) addMember(groupID, userID int64) {
	name := ""
	if u, ok := f.users[userID]; ok {
		name = u.Name
	}
	f.members[groupID][userID] = models.Member{UserID: userID, Name: name, JoinedAt: time.Now()}
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) Create(_ context.Context, group *models.Group, autoJoinCreator bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.addGroup(*group)
	group.ID = stored.ID
	if autoJoinCreator {
		f.addMember(group.ID, group.CreatorID)
	}
	return nil
}

func (f *fakeStore) getGroup(id int64) (*models.Group, error) {
	g, ok := f.groups[id]
	if !ok {
		return nil, fmt.Errorf("group: %w", repository.ErrNotFound)
	}
	copied := *g
	return &copied, nil
}

func (f *fakeStore) GetGroupByID(ctx context.Context, id int64) (*models.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getGroup(id)
}

func (f *fakeStore) DeleteCascade(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.groups[id]; !ok {
		return fmt.Errorf("group: %w", repository.ErrNotFound)
	}
	delete(f.members, id)
	delete(f.groups, id)
	return nil
}

func (f *fakeStore) ListCandidates(_ context.Context, filter repository.CandidateFilter) ([]models.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Group
	for _, g := range f.groups {
		if filter.ExcludeFemaleOnly && g.Preference == models.PreferenceFemaleOnly {
			continue
		}
		if filter.MinCapacity > 0 && g.Capacity < filter.MinCapacity {
			continue
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListCreatedBy(_ context.Context, userID int64) ([]models.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Group
	for _, g := range f.groups {
		if g.CreatorID == userID {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListJoinedBy(_ context.Context, userID int64) ([]models.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Group
	for gid, members := range f.members {
		if _, ok := members[userID]; !ok {
			continue
		}
		if g := f.groups[gid]; g != nil && g.CreatorID != userID {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) CountMembers(_ context.Context, groupID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.members[groupID]), nil
}

func (f *fakeStore) ListMembers(_ context.Context, groupID int64) ([]models.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Member
	for _, m := range f.members[groupID] {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (f *fakeStore) IsMember(_ context.Context, groupID, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.members[groupID][userID]
	return ok, nil
}

func (f *fakeStore) Delete(_ context.Context, groupID, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members[groupID], userID)
	return nil
}

func (f *fakeStore) JoinGroup(
	_ context.Context,
	groupID, userID int64,
	decide func(group *models.Group, memberCount int, alreadyMember bool) *models.Denial,
) (*models.Denial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	group, err := f.getGroup(groupID)
	if err != nil {
		return nil, err
	}
	_, already := f.members[groupID][userID]
	if denial := decide(group, len(f.members[groupID]), already); denial != nil {
		return denial, nil
	}
	f.addMember(groupID, userID)
	return nil, nil
}

func (f *fakeStore) Insert(_ context.Context, a, b int64) (bool, error) {
	if a > b {
		a, b = b, a
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.edges[a] {
		if n == b {
			return false, nil
		}
	}
	f.edges[a] = append(f.edges[a], b)
	f.edges[b] = append(f.edges[b], a)
	return true, nil
}

func (f *fakeStore) Neighbors(_ context.Context, userID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.edges[userID]...), nil
}

// groupStoreAdapter aligns the fake's GetGroupByID with the GroupStore name
type groupStoreAdapter struct{ *fakeStore }

func (a groupStoreAdapter) GetByID(ctx context.Context, id int64) (*models.Group, error) {
	return a.fakeStore.GetGroupByID(ctx, id)
}

func newTestGroupService(store *fakeStore, policy *CreationPolicy) *GroupService {
	assembler := NewGroupAssembler(store, NewAcquaintanceGraph(store))
	return NewGroupService(groupStoreAdapter{store}, store, store, assembler, policy, true)
}

func TestJoinAndRejoin(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	creator := store.addUser(models.User{ID: 1, Name: "Asha", Gender: models.GenderFemale})
	store.addUser(models.User{ID: 2, Name: "Ravi", Gender: models.GenderMale})
	departure := time.Now().Add(2 * time.Hour)
	group := store.addGroup(models.Group{
		Origin: "Patiala", Destination: "Chandigarh", Capacity: 4,
		Preference: models.PreferenceAll, CreatorID: creator.ID, DepartureTime: &departure,
	})
	store.addMember(group.ID, creator.ID)

	svc := newTestGroupService(store, &CreationPolicy{})

	// search finds the group in a 60-minute window around its departure
	desired := departure.Add(30 * time.Minute)
	views, err := svc.Search(ctx, SearchQuery{StartTerm: "Patiala", DestTerm: "Chandigarh", Departure: &desired}, 2)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, group.ID, views[0].ID)

	// wrong destination term finds nothing
	views, err = svc.Search(ctx, SearchQuery{StartTerm: "Patiala", DestTerm: "Amritsar", Departure: &desired}, 2)
	require.NoError(t, err)
	assert.Empty(t, views)

	// join succeeds and seats drop
	view, denial, err := svc.Join(ctx, group.ID, 2)
	require.NoError(t, err)
	require.Nil(t, denial)
	assert.Equal(t, 2, view.SeatsLeft)
	assert.True(t, view.IsMember)

	// a second join attempt is explicitly denied
	_, denial, err = svc.Join(ctx, group.ID, 2)
	require.NoError(t, err)
	require.NotNil(t, denial)
	assert.Equal(t, models.DenyAlreadyMember, denial.Reason)
}

func TestJoinDenials(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	creator := store.addUser(models.User{ID: 1, Name: "Asha", Gender: models.GenderFemale})
	male := store.addUser(models.User{ID: 2, Name: "Ravi", Gender: models.GenderMale})
	store.addUser(models.User{ID: 3, Name: "Meera", Gender: models.GenderFemale})
	group := store.addGroup(models.Group{
		Origin: "Patiala", Destination: "Delhi", Capacity: 1,
		Preference: models.PreferenceFemaleOnly, CreatorID: creator.ID,
	})

	svc := newTestGroupService(store, &CreationPolicy{})

	_, denial, err := svc.Join(ctx, group.ID, creator.ID)
	require.NoError(t, err)
	require.NotNil(t, denial)
	assert.Equal(t, models.DenyCreatorConflict, denial.Reason)

	_, denial, err = svc.Join(ctx, group.ID, male.ID)
	require.NoError(t, err)
	require.NotNil(t, denial)
	assert.Equal(t, models.DenyPreferenceBlocked, denial.Reason)

	_, denial, err = svc.Join(ctx, group.ID, 3)
	require.NoError(t, err)
	require.Nil(t, denial)

	late := store.addUser(models.User{ID: 4, Name: "Divya", Gender: models.GenderFemale})
	_, denial, err = svc.Join(ctx, group.ID, late.ID)
	require.NoError(t, err)
	require.NotNil(t, denial)
	assert.Equal(t, models.DenyFull, denial.Reason)
}

func TestJoinConcurrentLastSeat(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	creator := store.addUser(models.User{ID: 1, Name: "Asha", Gender: models.GenderFemale})
	store.addUser(models.User{ID: 2, Name: "Ravi", Gender: models.GenderMale})
	store.addUser(models.User{ID: 3, Name: "Karan", Gender: models.GenderMale})
	group := store.addGroup(models.Group{
		Origin: "Patiala", Destination: "Delhi", Capacity: 1,
		Preference: models.PreferenceAll, CreatorID: creator.ID,
	})

	svc := newTestGroupService(store, &CreationPolicy{})

	var wg sync.WaitGroup
	denials := make([]*models.Denial, 2)
	for i, userID := range []int64{2, 3} {
		wg.Add(1)
		go func(i int, userID int64) {
			defer wg.Done()
			_, denial, err := svc.Join(ctx, group.ID, userID)
			assert.NoError(t, err)
			denials[i] = denial
		}(i, userID)
	}
	wg.Wait()

	successes := 0
	for _, denial := range denials {
		if denial == nil {
			successes++
		} else {
			assert.Equal(t, models.DenyFull, denial.Reason)
		}
	}
	assert.Equal(t, 1, successes, "exactly one join may win the last seat")

	count, err := store.CountMembers(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLeave(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	creator := store.addUser(models.User{ID: 1, Name: "Asha", Gender: models.GenderFemale})
	member := store.addUser(models.User{ID: 2, Name: "Ravi", Gender: models.GenderMale})
	group := store.addGroup(models.Group{
		Origin: "Patiala", Destination: "Delhi", Capacity: 4,
		Preference: models.PreferenceAll, CreatorID: creator.ID,
	})
	store.addMember(group.ID, creator.ID)
	store.addMember(group.ID, member.ID)

	svc := newTestGroupService(store, &CreationPolicy{})

	denial, err := svc.Leave(ctx, group.ID, member.ID)
	require.NoError(t, err)
	assert.Nil(t, denial)

	// leaving again is a successful no-op
	denial, err = svc.Leave(ctx, group.ID, member.ID)
	require.NoError(t, err)
	assert.Nil(t, denial)

	// the creator must delete the group instead
	denial, err = svc.Leave(ctx, group.ID, creator.ID)
	require.NoError(t, err)
	require.NotNil(t, denial)
	assert.Equal(t, models.DenyCreatorMustDelete, denial.Reason)
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	female := store.addUser(models.User{ID: 1, Name: "Asha", Gender: models.GenderFemale})
	male := store.addUser(models.User{ID: 2, Name: "Ravi", Gender: models.GenderMale})

	cities := NewCityDirectory([]string{"Patiala", "Rajpura", "Chandigarh"})
	svc := newTestGroupService(store, &CreationPolicy{Cities: cities, HomeCity: "Patiala"})

	spec := CreateGroupSpec{
		Origin: "Patiala", Stops: []string{"Rajpura"}, Destination: "Chandigarh",
		Capacity: 4, Preference: models.PreferenceAll,
	}
	view, denial, err := svc.Create(ctx, spec, female.ID)
	require.NoError(t, err)
	require.Nil(t, denial)
	assert.Equal(t, []string{"Patiala", "Rajpura", "Chandigarh"}, view.Route)
	assert.Equal(t, 3, view.SeatsLeft, "creator auto-joined")
	assert.True(t, view.IsMember)

	// capacity out of range is a validation error
	bad := spec
	bad.Capacity = 0
	_, _, err = svc.Create(ctx, bad, female.ID)
	assert.Error(t, err)

	// female-only trips need a female creator
	bad = spec
	bad.Preference = models.PreferenceFemaleOnly
	_, denial, err = svc.Create(ctx, bad, male.ID)
	require.NoError(t, err)
	require.NotNil(t, denial)
	assert.Equal(t, models.DenyGenderMismatch, denial.Reason)

	// a route that skips the home base is refused
	bad = spec
	bad.Origin, bad.Destination = "Rajpura", "Chandigarh"
	_, denial, err = svc.Create(ctx, bad, female.ID)
	require.NoError(t, err)
	require.NotNil(t, denial)
	assert.Equal(t, models.DenyHomeBaseRequired, denial.Reason)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	creator := store.addUser(models.User{ID: 1, Name: "Asha", Gender: models.GenderFemale})
	other := store.addUser(models.User{ID: 2, Name: "Ravi", Gender: models.GenderMale})
	group := store.addGroup(models.Group{
		Origin: "Patiala", Destination: "Delhi", Capacity: 4,
		Preference: models.PreferenceAll, CreatorID: creator.ID,
	})

	svc := newTestGroupService(store, &CreationPolicy{})

	denial, err := svc.Delete(ctx, group.ID, other.ID)
	require.NoError(t, err)
	require.NotNil(t, denial)
	assert.Equal(t, models.DenyNotCreator, denial.Reason)

	denial, err = svc.Delete(ctx, group.ID, creator.ID)
	require.NoError(t, err)
	assert.Nil(t, denial)

	_, err = svc.Present(ctx, group.ID, 0)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSearchHidesFemaleOnlyFromMaleViewer(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	female := store.addUser(models.User{ID: 1, Name: "Asha", Gender: models.GenderFemale})
	store.addUser(models.User{ID: 2, Name: "Ravi", Gender: models.GenderMale})
	store.addGroup(models.Group{
		Origin: "Patiala", Destination: "Delhi", Capacity: 4,
		Preference: models.PreferenceAll, CreatorID: female.ID,
	})
	store.addGroup(models.Group{
		Origin: "Patiala", Destination: "Delhi", Capacity: 4,
		Preference: models.PreferenceFemaleOnly, CreatorID: female.ID,
	})

	svc := newTestGroupService(store, &CreationPolicy{})

	views, err := svc.Search(ctx, SearchQuery{}, 2)
	require.NoError(t, err)
	assert.Len(t, views, 1, "male viewer")

	views, err = svc.Search(ctx, SearchQuery{}, 1)
	require.NoError(t, err)
	assert.Len(t, views, 2, "female viewer")

	views, err = svc.Search(ctx, SearchQuery{}, 0)
	require.NoError(t, err)
	assert.Len(t, views, 2, "anonymous viewer")
}

func TestMyRidesBucketing(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	user := store.addUser(models.User{ID: 1, Name: "Asha", Gender: models.GenderFemale})
	other := store.addUser(models.User{ID: 2, Name: "Ravi", Gender: models.GenderMale})

	past := time.Now().Add(-2 * time.Hour)
	future := time.Now().Add(2 * time.Hour)

	createdPast := store.addGroup(models.Group{
		Origin: "Patiala", Destination: "Delhi", Capacity: 4,
		Preference: models.PreferenceAll, CreatorID: user.ID, DepartureTime: &past,
	})
	createdUnscheduled := store.addGroup(models.Group{
		Origin: "Patiala", Destination: "Shimla", Capacity: 4,
		Preference: models.PreferenceAll, CreatorID: user.ID,
	})
	joinedFuture := store.addGroup(models.Group{
		Origin: "Patiala", Destination: "Ambala", Capacity: 4,
		Preference: models.PreferenceAll, CreatorID: other.ID, DepartureTime: &future,
	})
	store.addMember(joinedFuture.ID, user.ID)

	svc := newTestGroupService(store, &CreationPolicy{})

	rides, err := svc.MyRides(ctx, user.ID)
	require.NoError(t, err)

	require.Len(t, rides.Created.Past, 1)
	assert.Equal(t, createdPast.ID, rides.Created.Past[0].ID)
	require.Len(t, rides.Created.Upcoming, 1, "no departure time means upcoming")
	assert.Equal(t, createdUnscheduled.ID, rides.Created.Upcoming[0].ID)

	require.Len(t, rides.Joined.Upcoming, 1)
	assert.Equal(t, joinedFuture.ID, rides.Joined.Upcoming[0].ID)
	assert.True(t, rides.Joined.Upcoming[0].IsMember)
	assert.Empty(t, rides.Joined.Past)
}

func TestConnectionService(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addUser(models.User{ID: 1, Name: "Asha"})
	store.addUser(models.User{ID: 2, Name: "Ravi"})

	svc := NewConnectionService(store, store)

	created, err := svc.Connect(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, created)

	// duplicate, in reverse order, is a no-op
	created, err = svc.Connect(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = svc.Connect(ctx, 1, 1)
	assert.Error(t, err, "self-connection rejected")

	_, err = svc.Connect(ctx, 1, 99)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
