package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/flarexio/userdash"
	"github.com/flarexio/userdash/user"
)

// Version of the snapshot envelope. Snapshots written with any other
// version are ignored on bootstrap.
const Version = 1

// DefaultCheckpointTimeout bounds a single checkpoint write, which runs
// on the goroutine of the mutation that triggered it.
const DefaultCheckpointTimeout = 2 * time.Second

var (
	ErrVersionMismatch = errors.New("snapshot version mismatch")
)

type Envelope struct {
	Version  int        `json:"version"`
	Revision string     `json:"revision"`
	SavedAt  time.Time  `json:"savedAt"`
	State    user.State `json:"state"`
}

func Encode(state user.State) ([]byte, error) {
	if state.Users == nil {
		state.Users = make([]user.User, 0)
	}

	envelope := Envelope{
		Version:  Version,
		Revision: ulid.Make().String(),
		SavedAt:  time.Now().UTC(),
		State:    state,
	}

	return json.Marshal(&envelope)
}

func Decode(data []byte) (*Envelope, error) {
	var envelope *Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}

	if envelope == nil {
		return nil, errors.New("empty snapshot")
	}

	if envelope.Version != Version {
		return nil, fmt.Errorf("%w: got %d, want %d",
			ErrVersionMismatch, envelope.Version, Version)
	}

	return envelope, nil
}

// Persistor checkpoints the store into a durable slot and rehydrates it
// on startup. Every failure is logged and swallowed: the store keeps
// working in memory when the slot is unavailable.
type Persistor struct {
	snapshots user.SnapshotRepository
	key       string
	log       *zap.Logger

	timeout   time.Duration
	ready     chan struct{}
	readyOnce sync.Once

	mu       sync.Mutex
	store    userdash.Service
	revision uint64
	detach   func()
}

func NewPersistor(snapshots user.SnapshotRepository, key string, log *zap.Logger) *Persistor {
	return &Persistor{
		snapshots: snapshots,
		key:       key,
		log: log.With(
			zap.String("infra", "persistence"),
			zap.String("key", key),
		),
		timeout: DefaultCheckpointTimeout,
		ready:   make(chan struct{}),
	}
}

// Ready is closed once Bootstrap has finished, whatever its outcome.
func (p *Persistor) Ready() <-chan struct{} {
	return p.ready
}

func (p *Persistor) Rehydrated() bool {
	select {
	case <-p.ready:
		return true
	default:
		return false
	}
}

// Bootstrap rehydrates the store from the last snapshot, if any, and
// reports whether a snapshot was restored. The store is attached before
// Ready is closed, so no mutation made after Ready goes unsaved.
func (p *Persistor) Bootstrap(ctx context.Context, store userdash.Service) bool {
	restored := p.restore(ctx, store)

	p.Attach(store)
	p.readyOnce.Do(func() { close(p.ready) })

	return restored
}

func (p *Persistor) restore(ctx context.Context, store userdash.Service) bool {
	log := p.log.With(zap.String("action", "bootstrap"))

	data, err := p.snapshots.Load(ctx, p.key)
	if err != nil {
		if errors.Is(err, user.ErrSnapshotNotFound) {
			log.Info("no snapshot, starting empty")
		} else {
			log.Error(err.Error())
		}

		return false
	}

	envelope, err := Decode(data)
	if err != nil {
		log.Warn("discard snapshot", zap.Error(err))
		return false
	}

	store.Hydrate(envelope.State)

	log.Info("state rehydrated",
		zap.String("revision", envelope.Revision),
		zap.Time("saved_at", envelope.SavedAt),
		zap.Int("users", len(envelope.State.Users)),
	)
	return true
}

// Attach checkpoints every change of the store until the returned
// function is called. Attaching the same store twice is a no-op.
func (p *Persistor) Attach(store userdash.Service) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.store == store && p.detach != nil {
		return p.detach
	}

	if p.detach != nil {
		p.detach()
	}

	p.store = store
	p.detach = store.Subscribe(func(revision uint64, state user.State) {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		p.checkpoint(ctx, revision, state)
	})

	return p.detach
}

// Checkpoint writes state to the slot unconditionally.
func (p *Persistor) Checkpoint(ctx context.Context, state user.State) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.save(ctx, state)
}

// checkpoint writes state unless a later revision has been written
// already. Listeners may be invoked out of order when mutations race.
func (p *Persistor) checkpoint(ctx context.Context, revision uint64, state user.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if revision <= p.revision {
		return
	}

	if err := p.save(ctx, state); err != nil {
		p.log.Error(err.Error(),
			zap.String("action", "checkpoint"),
			zap.Uint64("revision", revision),
		)
		return
	}

	p.revision = revision
}

func (p *Persistor) save(ctx context.Context, state user.State) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}

	return p.snapshots.Save(ctx, p.key, data)
}

// Flush writes the current state of the attached store.
func (p *Persistor) Flush(ctx context.Context) error {
	p.mu.Lock()
	store := p.store
	p.mu.Unlock()

	if store == nil {
		return nil
	}

	err := p.Checkpoint(ctx, store.State())
	if err != nil {
		p.log.Error(err.Error(), zap.String("action", "flush"))
		return err
	}

	p.log.Debug("state flushed")
	return nil
}

// Purge removes the snapshot. The in-memory state is untouched and the
// next mutation writes a fresh snapshot.
func (p *Persistor) Purge(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.snapshots.Delete(ctx, p.key); err != nil {
		p.log.Error(err.Error(), zap.String("action", "purge"))
		return err
	}

	p.log.Info("snapshot purged")
	return nil
}

func (p *Persistor) Close() error {
	p.mu.Lock()
	detach := p.detach
	p.detach = nil
	p.mu.Unlock()

	if detach != nil {
		detach()
	}

	return p.snapshots.Close()
}
