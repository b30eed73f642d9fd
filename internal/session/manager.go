// Package session hosts game sessions in memory and exposes them over HTTP and
// websockets.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gokatarajesh/cloud-architect-quest/internal/game"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrLimit    = errors.New("session limit reached")
)

// Result describes one accepted event.
type Result struct {
	Before  game.Phase
	Session game.Session
	View    game.View
}

type entry struct {
	mu       sync.Mutex
	ctl      *game.Controller
	lastSeen time.Time
}

// Manager is the in-memory registry of live sessions. Events for one session
// are applied one at a time; different sessions proceed independently.
type Manager struct {
	engine    *game.Engine
	idleTTL   time.Duration
	maxActive int
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*entry
}

// ManagerOptions tunes eviction and capacity. Zero values disable them.
type ManagerOptions struct {
	IdleTTL   time.Duration
	MaxActive int
	Now       func() time.Time
}

func NewManager(engine *game.Engine, opts ManagerOptions) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		engine:    engine,
		idleTTL:   opts.IdleTTL,
		maxActive: opts.MaxActive,
		now:       opts.Now,
		sessions:  make(map[string]*entry),
	}
}

// Create registers a fresh session in the start phase.
func (m *Manager) Create() (string, game.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxActive > 0 && len(m.sessions) >= m.maxActive {
		return "", game.View{}, ErrLimit
	}

	id := uuid.NewString()
	e := &entry{ctl: game.NewController(m.engine), lastSeen: m.now()}
	m.sessions[id] = e
	return id, e.ctl.View(), nil
}

func (m *Manager) lookup(id string) (*entry, error) {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// Get renders the current view of a session.
func (m *Manager) Get(id string) (game.View, error) {
	e, err := m.lookup(id)
	if err != nil {
		return game.View{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSeen = m.now()
	return e.ctl.View(), nil
}

// Snapshot returns a copy of the session state.
func (m *Manager) Snapshot(id string) (game.Session, error) {
	e, err := m.lookup(id)
	if err != nil {
		return game.Session{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctl.Session(), nil
}

// Apply feeds ev to the session. Engine errors are returned unchanged. Each
// onApplied hook runs with the result while the session is still locked, so
// hooks observe accepted events in order.
func (m *Manager) Apply(id string, ev game.Event, onApplied ...func(Result)) (Result, error) {
	e, err := m.lookup(id)
	if err != nil {
		return Result{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSeen = m.now()

	before := e.ctl.Session().Phase
	view, err := e.ctl.Dispatch(ev)
	if err != nil {
		return Result{Before: before}, err
	}
	res := Result{Before: before, Session: e.ctl.Session(), View: view}
	for _, fn := range onApplied {
		fn(res)
	}
	return res, nil
}

// Attach calls fn with the current view while holding the session lock. No
// event can be applied to the session until fn returns.
func (m *Manager) Attach(id string, fn func(game.View)) error {
	e, err := m.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSeen = m.now()
	fn(e.ctl.View())
	return nil
}

// Delete drops a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Sweep evicts sessions idle for longer than the TTL and returns their ids.
func (m *Manager) Sweep(now time.Time) []string {
	if m.idleTTL <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var expired []string
	for id, e := range m.sessions {
		e.mu.Lock()
		idle := now.Sub(e.lastSeen)
		e.mu.Unlock()
		if idle > m.idleTTL {
			delete(m.sessions, id)
			expired = append(expired, id)
		}
	}
	return expired
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
