package user

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNameEmailRequired = errors.New("name and email are required")
)

var validate = validator.New()

// Status tracks one asynchronous operation.
type Status struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// State is the root entity held by the store and checkpointed to the
// durable slot.
//
// Loading and Error aggregate both asynchronous operations: Loading is
// true while any of them is in flight and Error holds the most recent
// failure. Fetch and Create track each operation on its own.
type State struct {
	Users      []User `json:"users"`
	Loading    bool   `json:"loading"`
	Error      string `json:"error,omitempty"`
	DataLoaded bool   `json:"dataLoaded"`
	Fetch      Status `json:"fetch"`
	Create     Status `json:"create"`

	fetching int
	creating int
}

func NewState() *State {
	return &State{
		Users: make([]User, 0),
	}
}

// Clone returns a deep copy, so the caller may read it without holding
// the owner's lock.
func (s *State) Clone() State {
	c := *s
	c.Users = make([]User, len(s.Users))
	copy(c.Users, s.Users)
	return c
}

// Restore replaces the durable parts of the state. In-flight tracking is
// reset because no request outlives the process that issued it.
func (s *State) Restore(snapshot State) {
	users := snapshot.Users
	if users == nil {
		users = make([]User, 0)
	}

	s.Users = make([]User, len(users))
	copy(s.Users, users)
	s.DataLoaded = snapshot.DataLoaded
	s.Error = snapshot.Error
	s.Fetch = Status{Error: snapshot.Fetch.Error}
	s.Create = Status{Error: snapshot.Create.Error}
	s.fetching = 0
	s.creating = 0
	s.syncLoading()
}

func (s *State) index(id int) int {
	for i, u := range s.Users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func (s *State) Find(id int) (User, error) {
	i := s.index(id)
	if i == -1 {
		return User{}, ErrUserNotFound
	}
	return s.Users[i], nil
}

// Add appends a draft under the next free id.
func (s *State) Add(d Draft) User {
	u := d.User(NextID(s.Users))
	s.Users = append(s.Users, u)
	return u
}

type editFields struct {
	Name  string `validate:"required"`
	Email string `validate:"required"`
}

// Edit replaces name and email of the record with the same id and keeps
// the previous username, phone and website when the incoming ones are
// empty.
func (s *State) Edit(u User) error {
	if err := validate.Struct(editFields{u.Name, u.Email}); err != nil {
		return ErrNameEmailRequired
	}

	i := s.index(u.ID)
	if i == -1 {
		return ErrUserNotFound
	}

	existing := s.Users[i]
	existing.Name = u.Name
	existing.Email = u.Email

	if u.Username != "" {
		existing.Username = u.Username
	}
	if u.Phone != "" {
		existing.Phone = u.Phone
	}
	if u.Website != "" {
		existing.Website = u.Website
	}

	s.Users[i] = existing
	return nil
}

func (s *State) Update(p Patch) error {
	i := s.index(p.ID)
	if i == -1 {
		return ErrUserNotFound
	}

	s.Users[i] = p.Apply(s.Users[i])
	return nil
}

// Remove drops the record with the given id and reports whether one
// was removed.
func (s *State) Remove(id int) bool {
	users := make([]User, 0, len(s.Users))
	for _, u := range s.Users {
		if u.ID == id {
			continue
		}
		users = append(users, u)
	}

	removed := len(users) != len(s.Users)
	s.Users = users
	return removed
}

func (s *State) Search(query string) []User {
	results := make([]User, 0)
	for _, u := range s.Users {
		if MatchName(u, query) {
			results = append(results, u)
		}
	}
	return results
}

func (s *State) FetchPending() {
	s.fetching++
	s.Fetch = Status{Loading: true}
	s.Error = ""
	s.syncLoading()
}

// FetchFulfilled populates the collection only the first time. Later
// results are discarded so they cannot clobber local mutations.
func (s *State) FetchFulfilled(users []User) bool {
	s.fetchDone()
	s.Fetch.Error = ""

	if s.DataLoaded {
		return false
	}

	s.Users = WithImages(users)
	s.DataLoaded = true
	return true
}

func (s *State) FetchRejected(message string) {
	s.fetchDone()
	s.Fetch.Error = message
	s.Error = message
}

func (s *State) CreatePending() {
	s.creating++
	s.Create = Status{Loading: true}
	s.syncLoading()
}

// CreateFulfilled appends the created record under a locally allocated
// id, superseding whatever id the remote source assigned.
func (s *State) CreateFulfilled(created User) User {
	s.createDone()
	s.Create.Error = ""

	id := NextID(s.Users)
	created.ID = id
	created.Image = ImageURL(id)

	s.Users = append(s.Users, created)
	return created
}

func (s *State) CreateRejected(message string) {
	s.createDone()
	s.Create.Error = message
	s.Error = message
}

func (s *State) fetchDone() {
	if s.fetching > 0 {
		s.fetching--
	}
	s.Fetch.Loading = s.fetching > 0
	s.syncLoading()
}

func (s *State) createDone() {
	if s.creating > 0 {
		s.creating--
	}
	s.Create.Loading = s.creating > 0
	s.syncLoading()
}

func (s *State) syncLoading() {
	s.Loading = s.fetching > 0 || s.creating > 0
}
