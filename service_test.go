package userdash

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/flarexio/userdash/user"
)

type fakeRepository struct {
	mu      sync.Mutex
	users   []user.User
	err     error
	calls   int
	created []user.Draft
	release chan struct{}
}

func (repo *fakeRepository) ListAll(ctx context.Context) ([]user.User, error) {
	repo.mu.Lock()
	repo.calls++
	release := repo.release
	users, err := repo.users, repo.err
	repo.mu.Unlock()

	if release != nil {
		<-release
	}

	if err != nil {
		return nil, err
	}

	results := make([]user.User, len(users))
	copy(results, users)
	return results, nil
}

func (repo *fakeRepository) Create(ctx context.Context, d user.Draft) (*user.User, error) {
	repo.mu.Lock()
	repo.created = append(repo.created, d)
	release := repo.release
	err := repo.err
	repo.mu.Unlock()

	if release != nil {
		<-release
	}

	if err != nil {
		return nil, err
	}

	return &user.User{
		ID:       11,
		Name:     d.Name,
		Email:    d.Email,
		Username: d.Username,
		Phone:    d.Phone,
		Website:  d.Website,
	}, nil
}

type serviceTestSuite struct {
	suite.Suite
	repo *fakeRepository
	svc  Service
}

func (suite *serviceTestSuite) SetupTest() {
	suite.repo = &fakeRepository{
		users: []user.User{
			{ID: 1, Name: "Alice", Email: "a@x.com"},
		},
	}

	svc := NewService(suite.repo)
	svc = LoggingMiddleware(zap.NewNop())(svc)
	suite.svc = svc
}

func (suite *serviceTestSuite) TearDownTest() {
	suite.svc.Close()
}

func (suite *serviceTestSuite) TestFetchRemoveAdd() {
	ctx := context.Background()

	err := suite.svc.FetchAll(ctx)
	suite.NoError(err)

	state := suite.svc.State()
	suite.True(state.DataLoaded)
	suite.False(state.Loading)
	suite.Len(state.Users, 1)
	suite.Equal(1, state.Users[0].ID)
	suite.Equal(user.ImageURL(1), state.Users[0].Image)

	suite.svc.Remove(1)
	suite.Empty(suite.svc.State().Users)

	u, err := suite.svc.Add(user.Draft{Name: "Bob", Email: "b@x.com"})
	suite.NoError(err)
	suite.Equal(1, u.ID)
}

func (suite *serviceTestSuite) TestSecondFetchDoesNotAlterUsers() {
	ctx := context.Background()

	suite.NoError(suite.svc.FetchAll(ctx))
	suite.svc.Add(user.Draft{Name: "Bob", Email: "b@x.com"})
	before := suite.svc.State().Users

	suite.repo.users = []user.User{{ID: 5, Name: "Eve"}}
	suite.NoError(suite.svc.FetchAll(ctx))

	suite.Equal(before, suite.svc.State().Users)
	suite.Equal(2, suite.repo.calls)
}

func (suite *serviceTestSuite) TestFetchFailure() {
	suite.svc.Add(user.Draft{Name: "local", Email: "l@x.com"})
	before := suite.svc.State().Users

	suite.repo.err = errors.New("request failed with status code 500")

	err := suite.svc.FetchAll(context.Background())
	suite.Error(err)

	state := suite.svc.State()
	suite.Equal(before, state.Users)
	suite.Equal("request failed with status code 500", state.Error)
	suite.False(state.Loading)
	suite.False(state.DataLoaded)
}

func (suite *serviceTestSuite) TestCreateRemote() {
	ctx := context.Background()
	suite.NoError(suite.svc.FetchAll(ctx))

	u, err := suite.svc.CreateRemote(ctx, user.Draft{
		Name:  "Bob",
		Email: "b@x.com",
		Image: "ignored",
	})
	suite.NoError(err)

	suite.Equal(2, u.ID)
	suite.Equal(user.ImageURL(2), u.Image)
	suite.Equal("", suite.repo.created[0].Image)

	state := suite.svc.State()
	suite.Len(state.Users, 2)
	suite.False(state.Loading)
	suite.False(state.Create.Loading)
}

func (suite *serviceTestSuite) TestCreateRemoteFailure() {
	suite.repo.err = errors.New("network error")

	u, err := suite.svc.CreateRemote(context.Background(), user.Draft{Name: "Bob"})
	suite.Error(err)
	suite.Nil(u)

	state := suite.svc.State()
	suite.Empty(state.Users)
	suite.Equal("network error", state.Error)
	suite.Equal("network error", state.Create.Error)
	suite.False(state.Loading)
}

func (suite *serviceTestSuite) TestEditEmptyNameIsNoop() {
	suite.NoError(suite.svc.FetchAll(context.Background()))
	before := suite.svc.State()

	err := suite.svc.Edit(user.User{ID: 1, Name: "", Email: "c@x.com"})
	suite.ErrorIs(err, user.ErrNameEmailRequired)

	after := suite.svc.State()
	suite.Equal(before.Users, after.Users)
	suite.Empty(after.Error)
}

func (suite *serviceTestSuite) TestUpdateAndView() {
	suite.NoError(suite.svc.FetchAll(context.Background()))

	phone := "555"
	suite.NoError(suite.svc.Update(user.Patch{ID: 1, Phone: &phone}))

	u, err := suite.svc.User(1)
	suite.NoError(err)
	suite.Equal("555", u.Phone)
	suite.Equal("Alice", u.Name)

	_, err = suite.svc.User(2)
	suite.ErrorIs(err, user.ErrUserNotFound)
}

func (suite *serviceTestSuite) TestSearch() {
	suite.NoError(suite.svc.FetchAll(context.Background()))
	suite.svc.Add(user.Draft{Name: "Alfred"})
	suite.svc.Add(user.Draft{Name: "Bob"})

	suite.Len(suite.svc.Search("al"), 2)
	suite.Len(suite.svc.Search(""), 3)
}

func (suite *serviceTestSuite) TestSubscribe() {
	var revisions []uint64
	unsubscribe := suite.svc.Subscribe(func(revision uint64, state user.State) {
		revisions = append(revisions, revision)
	})

	suite.svc.Add(user.Draft{Name: "Bob"})
	suite.svc.Remove(42) // no change, no notification
	suite.svc.Remove(1)

	suite.Equal([]uint64{1, 2}, revisions)

	unsubscribe()
	suite.svc.Add(user.Draft{Name: "Carol"})
	suite.Len(revisions, 2)
}

func (suite *serviceTestSuite) TestMutationsDuringFetch() {
	suite.repo.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- suite.svc.FetchAll(context.Background())
	}()

	suite.Eventually(func() bool {
		return suite.svc.State().Loading
	}, time.Second, 5*time.Millisecond)

	local, err := suite.svc.Add(user.Draft{Name: "Bob", Email: "b@x.com"})
	suite.NoError(err)
	suite.Equal(1, local.ID)

	close(suite.repo.release)
	suite.NoError(<-done)

	// the first successful fetch replaces the collection
	state := suite.svc.State()
	suite.True(state.DataLoaded)
	suite.Len(state.Users, 1)
	suite.Equal("Alice", state.Users[0].Name)
}

func (suite *serviceTestSuite) TestCloseDuringFetch() {
	suite.repo.release = make(chan struct{})

	var notified int
	suite.svc.Subscribe(func(revision uint64, state user.State) {
		notified++
	})

	done := make(chan error, 1)
	go func() {
		done <- suite.svc.FetchAll(context.Background())
	}()

	suite.Eventually(func() bool {
		return suite.svc.State().Loading
	}, time.Second, 5*time.Millisecond)

	suite.svc.Close()
	close(suite.repo.release)
	suite.NoError(<-done)

	state := suite.svc.State()
	suite.False(state.DataLoaded)
	suite.Empty(state.Users)
	suite.Equal(1, notified)

	err := suite.svc.FetchAll(context.Background())
	suite.ErrorIs(err, ErrStoreClosed)
}

func (suite *serviceTestSuite) TestIntentsAfterClose() {
	suite.NoError(suite.svc.FetchAll(context.Background()))
	suite.svc.Close()

	_, err := suite.svc.Add(user.Draft{Name: "Bob", Email: "b@x.com"})
	suite.ErrorIs(err, ErrStoreClosed)

	err = suite.svc.Edit(user.User{ID: 1, Name: "Carol", Email: "c@x.com"})
	suite.ErrorIs(err, ErrStoreClosed)

	name := "Dan"
	err = suite.svc.Update(user.Patch{ID: 1, Name: &name})
	suite.ErrorIs(err, ErrStoreClosed)

	_, err = suite.svc.CreateRemote(context.Background(), user.Draft{Name: "Eve"})
	suite.ErrorIs(err, ErrStoreClosed)

	suite.svc.Remove(1)

	state := suite.svc.State()
	suite.Len(state.Users, 1)
	suite.Equal("Alice", state.Users[0].Name)
}

func (suite *serviceTestSuite) TestHydrate() {
	suite.svc.Hydrate(user.State{
		Users:      []user.User{{ID: 3, Name: "Carol"}},
		DataLoaded: true,
		Loading:    true,
	})

	state := suite.svc.State()
	suite.True(state.DataLoaded)
	suite.False(state.Loading)
	suite.Len(state.Users, 1)

	u, err := suite.svc.Add(user.Draft{Name: "Dan"})
	suite.NoError(err)
	suite.Equal(4, u.ID)
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(serviceTestSuite))
}
