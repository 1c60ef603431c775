// Package statemachine tracks which stage of the query pipeline the agent is
// in and makes that stage durable across restarts.
package statemachine

import (
	"errors"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/udaplay/internal/jsonfile"
	"github.com/ziadkadry99/udaplay/internal/logging"
)

// State is one stage of the query pipeline.
type State string

const (
	Idle       State = "idle"
	Retrieving State = "retrieving"
	Evaluating State = "evaluating"
	WebSearch  State = "web_search"
	Answering  State = "answering"
)

// States lists every valid state in pipeline order.
var States = []State{Idle, Retrieving, Evaluating, WebSearch, Answering}

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	for _, v := range States {
		if s == v {
			return true
		}
	}
	return false
}

// Allowed returns the states reachable from s in one transition.
func Allowed(s State) []State {
	switch s {
	case Idle:
		return []State{Retrieving}
	case Retrieving:
		return []State{Evaluating}
	case Evaluating:
		return []State{WebSearch, Answering}
	case WebSearch:
		return []State{Answering}
	case Answering:
		return []State{Idle}
	default:
		return nil
	}
}

// IsAllowed reports whether target is reachable from s in one transition.
func IsAllowed(s, target State) bool {
	for _, t := range Allowed(s) {
		if t == target {
			return true
		}
	}
	return false
}

// snapshot is the on-disk representation.
type snapshot struct {
	State              State  `json:"state"`
	LastTransitionTime string `json:"last_transition_time"`
}

// Machine is a guarded finite-state tracker with optional JSON persistence.
type Machine struct {
	mu     sync.Mutex
	state  State
	last   time.Time
	path   string
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger used for rejected transitions and persistence
// failures.
func WithLogger(l *zap.Logger) Option {
	return func(m *Machine) { m.logger = logging.OrNop(l) }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// New returns an unbound machine in the Idle state.
func New(opts ...Option) *Machine {
	m := &Machine{
		state:  Idle,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.last = m.now().UTC()
	return m
}

// Bind sets the persistence path and loads any state previously written
// there. A missing file keeps the current state; an unreadable or invalid
// file is logged and the machine starts fresh from Idle.
func (m *Machine) Bind(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.path = path

	var snap snapshot
	if err := jsonfile.Read(path, &snap); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			m.logger.Warn("could not load agent state, starting from idle",
				zap.String("path", path), zap.Error(err))
			m.state = Idle
		}
		return
	}

	if !snap.State.Valid() {
		m.logger.Warn("persisted agent state is unknown, starting from idle",
			zap.String("path", path), zap.String("state", string(snap.State)))
		m.state = Idle
		return
	}

	m.state = snap.State
	if ts, err := time.Parse(time.RFC3339Nano, snap.LastTransitionTime); err == nil {
		m.last = ts.UTC()
	} else {
		m.logger.Warn("persisted transition time is malformed",
			zap.String("path", path), zap.Error(err))
	}
	m.logger.Debug("loaded agent state", zap.String("state", string(m.state)))
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LastTransition returns the time of the most recent state change.
func (m *Machine) LastTransition() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// CanTransition reports whether Transition(target) would succeed.
func (m *Machine) CanTransition(target State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return IsAllowed(m.state, target)
}

// Transition moves to target if the transition table allows it, persisting
// the new state. A rejected transition leaves the state unchanged, logs a
// warning and returns false.
func (m *Machine) Transition(target State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !IsAllowed(m.state, target) {
		m.logger.Warn("invalid state transition",
			zap.String("from", string(m.state)), zap.String("to", string(target)))
		return false
	}

	m.logger.Debug("state transition",
		zap.String("from", string(m.state)), zap.String("to", string(target)))
	m.state = target
	m.last = m.now().UTC()
	m.persistLocked()
	return true
}

// Reset forces the machine back to Idle regardless of the transition table.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = Idle
	m.last = m.now().UTC()
	m.persistLocked()
}

// Persist flushes the current state to disk. It is a no-op for an unbound
// machine.
func (m *Machine) Persist() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persistLocked()
}

func (m *Machine) persistLocked() {
	if m.path == "" {
		return
	}
	snap := snapshot{
		State:              m.state,
		LastTransitionTime: m.last.Format(time.RFC3339Nano),
	}
	if err := jsonfile.Write(m.path, snap); err != nil {
		m.logger.Warn("could not persist agent state", zap.String("path", m.path), zap.Error(err))
	}
}
