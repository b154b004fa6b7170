package userdash

import (
	"context"
	"errors"
	"sync"

	"github.com/flarexio/userdash/user"
)

var (
	ErrStoreClosed = errors.New("store closed")
)

const (
	defaultFetchError  = "Failed to load users"
	defaultCreateError = "Failed to add user"
)

type Service interface {
	// Async

	FetchAll(ctx context.Context) error
	CreateRemote(ctx context.Context, d user.Draft) (*user.User, error)

	// Command

	Add(d user.Draft) (user.User, error)
	Edit(u user.User) error
	Update(p user.Patch) error
	Remove(id int)
	Hydrate(state user.State)

	// Query

	State() user.State
	User(id int) (*user.User, error)
	Search(query string) []user.User

	Subscribe(fn Listener) (unsubscribe func())
	Close()
}

// Listener receives a copy of the state after every mutation.
// Revision increases monotonically with each mutation.
type Listener func(revision uint64, state user.State)

type ServiceMiddleware func(Service) Service

func NewService(users user.Repository) Service {
	return &service{
		users:     users,
		state:     user.NewState(),
		listeners: make(map[int]Listener),
	}
}

type service struct {
	users user.Repository

	sync.RWMutex
	state    *user.State
	revision uint64
	closed   bool

	listenerMu sync.Mutex
	listeners  map[int]Listener
	nextID     int
}

func (svc *service) FetchAll(ctx context.Context) error {
	if !svc.mutate(func(s *user.State) bool {
		s.FetchPending()
		return true
	}) {
		return ErrStoreClosed
	}

	users, err := svc.users.ListAll(ctx)
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = defaultFetchError
		}

		svc.mutate(func(s *user.State) bool {
			s.FetchRejected(msg)
			return true
		})

		return err
	}

	svc.mutate(func(s *user.State) bool {
		s.FetchFulfilled(users)
		return true
	})

	return nil
}

func (svc *service) CreateRemote(ctx context.Context, d user.Draft) (*user.User, error) {
	if !svc.mutate(func(s *user.State) bool {
		s.CreatePending()
		return true
	}) {
		return nil, ErrStoreClosed
	}

	// the remote source never sees a local image
	d.Image = ""

	created, err := svc.users.Create(ctx, d)
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = defaultCreateError
		}

		svc.mutate(func(s *user.State) bool {
			s.CreateRejected(msg)
			return true
		})

		return nil, err
	}

	if created == nil {
		created = &user.User{}
	}

	var u user.User
	ok := svc.mutate(func(s *user.State) bool {
		u = s.CreateFulfilled(*created)
		return true
	})

	if !ok {
		return nil, ErrStoreClosed
	}

	return &u, nil
}

func (svc *service) Add(d user.Draft) (user.User, error) {
	var u user.User
	if !svc.mutate(func(s *user.State) bool {
		u = s.Add(d)
		return true
	}) {
		return user.User{}, ErrStoreClosed
	}

	return u, nil
}

func (svc *service) Edit(u user.User) error {
	var err error
	if !svc.mutate(func(s *user.State) bool {
		err = s.Edit(u)
		return err == nil
	}) {
		return ErrStoreClosed
	}

	return err
}

func (svc *service) Update(p user.Patch) error {
	var err error
	if !svc.mutate(func(s *user.State) bool {
		err = s.Update(p)
		return err == nil
	}) {
		return ErrStoreClosed
	}

	return err
}

func (svc *service) Remove(id int) {
	svc.mutate(func(s *user.State) bool {
		return s.Remove(id)
	})
}

func (svc *service) Hydrate(state user.State) {
	svc.mutate(func(s *user.State) bool {
		s.Restore(state)
		return true
	})
}

func (svc *service) State() user.State {
	svc.RLock()
	defer svc.RUnlock()

	return svc.state.Clone()
}

func (svc *service) User(id int) (*user.User, error) {
	svc.RLock()
	defer svc.RUnlock()

	u, err := svc.state.Find(id)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

func (svc *service) Search(query string) []user.User {
	svc.RLock()
	defer svc.RUnlock()

	return svc.state.Search(query)
}

func (svc *service) Subscribe(fn Listener) func() {
	svc.listenerMu.Lock()
	defer svc.listenerMu.Unlock()

	id := svc.nextID
	svc.nextID++
	svc.listeners[id] = fn

	return func() {
		svc.listenerMu.Lock()
		defer svc.listenerMu.Unlock()

		delete(svc.listeners, id)
	}
}

// Close detaches the store. Requests still in flight resolve without
// touching the state, and later intents fail with ErrStoreClosed.
// Remove and Hydrate are ignored.
func (svc *service) Close() {
	svc.Lock()
	svc.closed = true
	svc.Unlock()

	svc.listenerMu.Lock()
	svc.listeners = make(map[int]Listener)
	svc.listenerMu.Unlock()
}

// mutate applies fn under the state lock and notifies listeners when fn
// reports a change. It returns false once the store is closed.
func (svc *service) mutate(fn func(s *user.State) bool) bool {
	svc.Lock()
	if svc.closed {
		svc.Unlock()
		return false
	}

	if !fn(svc.state) {
		svc.Unlock()
		return true
	}

	svc.revision++
	revision := svc.revision
	snapshot := svc.state.Clone()
	svc.Unlock()

	svc.notify(revision, snapshot)
	return true
}

func (svc *service) notify(revision uint64, snapshot user.State) {
	svc.listenerMu.Lock()
	listeners := make([]Listener, 0, len(svc.listeners))
	for _, fn := range svc.listeners {
		listeners = append(listeners, fn)
	}
	svc.listenerMu.Unlock()

	for _, fn := range listeners {
		fn(revision, snapshot)
	}
}
