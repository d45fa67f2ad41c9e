// Package store keeps the local cache of the user list and exposes actions
// that combine a remote call with a local patch of that cache.
//
// Remote calls run outside the cache lock; the patch is applied when the call
// resolves. Two overlapping actions on the same user are therefore resolved
// last-write-wins: whichever response arrives last decides the cached state.
// A failed call never touches the cache.
package store

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/thoas/go-funk"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/userfront/internal/logger"
	"github.com/patric-chuzhbe/userfront/internal/user"
)

type usersLister interface {
	ListUsers(ctx context.Context) ([]user.User, error)
}

type usersMutator interface {
	CreateUser(ctx context.Context, payload user.Payload) (user.User, error)
	UpdateUser(ctx context.Context, id int, patch user.Patch) (user.User, error)
	DeleteUser(ctx context.Context, id int) error
}

type apiClient interface {
	usersLister
	usersMutator
}

type refreshEnqueuer interface {
	Enqueue(reason string)
}

// Status is the coarse state of the store.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
)

// MissPolicy decides what UpdateUser does when the server returned a user
// that is not in the cache.
type MissPolicy int

const (
	// MissIgnore leaves the cache as is and logs a warning.
	MissIgnore MissPolicy = iota
	// MissAppend appends the returned user to the end of the cache.
	MissAppend
	// MissRefetch reconciles the cache with the server, through the attached
	// refresher when there is one, inline otherwise.
	MissRefetch
)

func (p MissPolicy) String() string {
	switch p {
	case MissAppend:
		return "append"
	case MissRefetch:
		return "refetch"
	default:
		return "ignore"
	}
}

// ParseMissPolicy maps a config value to a MissPolicy; unknown values fall back to MissIgnore.
func ParseMissPolicy(value string) MissPolicy {
	switch value {
	case "append":
		return MissAppend
	case "refetch":
		return MissRefetch
	default:
		return MissIgnore
	}
}

// Store is the in-memory mirror of the server-side user list.
// It is owned by the application root and shared by reference.
type Store struct {
	api        apiClient
	missPolicy MissPolicy

	mu      sync.RWMutex
	users   []user.User
	version uint64

	pending atomic.Int32

	refresherMu sync.RWMutex
	refresher   refreshEnqueuer

	observersMu    sync.Mutex
	observers      map[int]func([]user.User)
	nextObserverID int

	// notifyMu serializes observer calls; notifiedVersion is the newest
	// snapshot delivered so far.
	notifyMu        sync.Mutex
	notifiedVersion uint64
}

// snapshot is a copy of the cache stamped with the change that produced it.
type snapshot struct {
	version uint64
	users   []user.User
}

type InitOption func(*initOptions)

type initOptions struct {
	missPolicy MissPolicy
}

func WithMissPolicy(policy MissPolicy) InitOption {
	return func(options *initOptions) {
		options.missPolicy = policy
	}
}

// New returns an empty store backed by the given API client.
func New(api apiClient, optionsProto ...InitOption) *Store {
	options := &initOptions{
		missPolicy: MissIgnore,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	return &Store{
		api:        api,
		missPolicy: options.missPolicy,
		users:      []user.User{},
		observers:  map[int]func([]user.User){},
	}
}

// AttachRefresher sets the worker used by MissRefetch.
func (s *Store) AttachRefresher(r refreshEnqueuer) {
	s.refresherMu.Lock()
	defer s.refresherMu.Unlock()
	s.refresher = r
}

// Users returns a copy of the cached list.
func (s *Store) Users() []user.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneUsers(s.users)
}

// Len returns the number of cached users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.users)
}

// Status is StatusPending while at least one action awaits its remote call.
func (s *Store) Status() Status {
	if s.pending.Load() > 0 {
		return StatusPending
	}
	return StatusIdle
}

// Subscribe registers fn to be called with a snapshot of the cache after
// every change. The returned function removes the subscription.
//
// Observers are called one at a time and never see an older snapshot after a
// newer one: when changes race, a snapshot superseded before its delivery is
// skipped, so the last snapshot an observer receives is the current cache.
// fn may read the store but must not call its actions.
func (s *Store) Subscribe(fn func([]user.User)) (unsubscribe func()) {
	s.observersMu.Lock()
	defer s.observersMu.Unlock()

	id := s.nextObserverID
	s.nextObserverID++
	s.observers[id] = fn

	return func() {
		s.observersMu.Lock()
		defer s.observersMu.Unlock()
		delete(s.observers, id)
	}
}

// SetUsers replaces the cached list wholesale.
func (s *Store) SetUsers(list []user.User) {
	s.mu.Lock()
	s.users = cloneUsers(list)
	snap := s.stampLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// FetchUsers replaces the cache with the server's list and returns it.
func (s *Store) FetchUsers(ctx context.Context) ([]user.User, error) {
	done := s.begin()
	list, err := s.api.ListUsers(ctx)
	done()
	if err != nil {
		return nil, err
	}

	s.SetUsers(list)
	logger.Log.Debugw("users fetched", "count", len(list))

	return list, nil
}

// CreateUser creates a user on the server and appends it to the cache.
func (s *Store) CreateUser(ctx context.Context, payload user.Payload) (user.User, error) {
	done := s.begin()
	created, err := s.api.CreateUser(ctx, payload)
	done()
	if err != nil {
		return user.User{}, err
	}

	s.mu.Lock()
	s.users = append(s.users, created)
	snap := s.stampLocked()
	s.mu.Unlock()

	s.notify(snap)
	logger.Log.Debugw("user created", "id", created.ID)

	return created, nil
}

// UpdateUser patches a user on the server and replaces the cached entry with
// the same id in place. A miss is handled according to the store's MissPolicy.
func (s *Store) UpdateUser(ctx context.Context, id int, patch user.Patch) (user.User, error) {
	done := s.begin()
	updated, err := s.api.UpdateUser(ctx, id, patch)
	done()
	if err != nil {
		return user.User{}, err
	}

	s.mu.Lock()
	idx := indexByID(s.users, id)
	switch {
	case idx >= 0:
		s.users[idx] = updated
	case s.missPolicy == MissAppend:
		s.users = append(s.users, updated)
	}
	changed := idx >= 0 || s.missPolicy == MissAppend
	var snap snapshot
	if changed {
		snap = s.stampLocked()
	}
	s.mu.Unlock()

	if changed {
		s.notify(snap)
		return updated, nil
	}

	s.handleMiss(ctx, id)

	return updated, nil
}

// DeleteUser deletes a user on the server and filters it out of the cache.
// Deleting an id that is not cached leaves the cache unchanged.
func (s *Store) DeleteUser(ctx context.Context, id int) error {
	done := s.begin()
	err := s.api.DeleteUser(ctx, id)
	done()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.users = funk.Filter(s.users, func(u user.User) bool {
		return u.ID != id
	}).([]user.User)
	snap := s.stampLocked()
	s.mu.Unlock()

	s.notify(snap)
	logger.Log.Debugw("user deleted", "id", id)

	return nil
}

func (s *Store) handleMiss(ctx context.Context, id int) {
	if s.missPolicy != MissRefetch {
		logger.Log.Warnw("updated user is not cached, the cache may be stale", "id", id)
		return
	}

	s.refresherMu.RLock()
	r := s.refresher
	s.refresherMu.RUnlock()

	if r != nil {
		r.Enqueue("update miss")
		return
	}

	if _, err := s.FetchUsers(ctx); err != nil {
		logger.Log.Warnw("refetch after update miss failed", "id", id, zap.Error(err))
	}
}

func (s *Store) begin() (done func()) {
	s.pending.Add(1)
	return func() {
		s.pending.Add(-1)
	}
}

// stampLocked copies the cache under a new version; s.mu must be held for writing.
func (s *Store) stampLocked() snapshot {
	s.version++
	return snapshot{version: s.version, users: cloneUsers(s.users)}
}

func (s *Store) notify(snap snapshot) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if snap.version <= s.notifiedVersion {
		return
	}
	s.notifiedVersion = snap.version

	s.observersMu.Lock()
	observers := make([]func([]user.User), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.observersMu.Unlock()

	for _, fn := range observers {
		fn(cloneUsers(snap.users))
	}
}

func indexByID(users []user.User, id int) int {
	for i, u := range users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func cloneUsers(users []user.User) []user.User {
	result := make([]user.User, len(users))
	copy(result, users)
	return result
}
