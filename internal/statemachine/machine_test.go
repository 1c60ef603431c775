package statemachine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ziadkadry99/udaplay/internal/jsonfile"
)

func fixedClock() func() time.Time {
	t := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

// forceState puts m into s without going through the guard.
func forceState(m *Machine, s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func TestAllowedTable(t *testing.T) {
	assert.Equal(t, []State{Retrieving}, Allowed(Idle))
	assert.Equal(t, []State{Evaluating}, Allowed(Retrieving))
	assert.ElementsMatch(t, []State{WebSearch, Answering}, Allowed(Evaluating))
	assert.Equal(t, []State{Answering}, Allowed(WebSearch))
	assert.Equal(t, []State{Idle}, Allowed(Answering))
	assert.Nil(t, Allowed("bogus"))
}

func TestTransitionMatchesTable(t *testing.T) {
	for _, from := range States {
		for _, to := range States {
			path := filepath.Join(t.TempDir(), "state.json")
			m := New(WithClock(fixedClock()))
			m.Bind(path)
			forceState(m, from)

			want := IsAllowed(from, to)
			assert.Equal(t, want, m.CanTransition(to), "%s -> %s", from, to)

			ok := m.Transition(to)
			assert.Equal(t, want, ok, "%s -> %s", from, to)
			if ok {
				assert.Equal(t, to, m.State())
				var snap snapshot
				require.NoError(t, jsonfile.Read(path, &snap))
				assert.Equal(t, to, snap.State)
			} else {
				assert.Equal(t, from, m.State())
			}
		}
	}
}

func TestRejectedTransitionLogsWarning(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	m := New(WithLogger(zap.New(core)))

	assert.False(t, m.Transition(Answering))
	assert.Equal(t, Idle, m.State())
	assert.Equal(t, 1, logs.FilterMessage("invalid state transition").Len())
}

func TestFullCycle(t *testing.T) {
	m := New()
	for _, s := range []State{Retrieving, Evaluating, WebSearch, Answering, Idle} {
		require.True(t, m.Transition(s), "transition to %s", s)
	}
	for _, s := range []State{Retrieving, Evaluating, Answering, Idle} {
		require.True(t, m.Transition(s), "transition to %s", s)
	}
}

func TestPersistRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	first := New(WithClock(fixedClock()))
	first.Bind(path)
	require.True(t, first.Transition(Retrieving))
	require.True(t, first.Transition(Evaluating))

	second := New()
	second.Bind(path)
	assert.Equal(t, Evaluating, second.State())
	assert.True(t, first.LastTransition().Equal(second.LastTransition()))
}

func TestPersistedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	m := New(WithClock(fixedClock()))
	m.Bind(path)
	require.True(t, m.Transition(Retrieving))

	var raw map[string]string
	require.NoError(t, jsonfile.Read(path, &raw))
	assert.Equal(t, "retrieving", raw["state"])
	ts, err := time.Parse(time.RFC3339Nano, raw["last_transition_time"])
	require.NoError(t, err)
	assert.Equal(t, time.UTC, ts.Location())
}

func TestBindMalformedFileStartsIdle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o644))

	core, logs := observer.New(zapcore.WarnLevel)
	m := New(WithLogger(zap.New(core)))
	m.Bind(path)

	assert.Equal(t, Idle, m.State())
	assert.Equal(t, 1, logs.Len())
}

func TestBindUnknownStateStartsIdle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, jsonfile.Write(path, snapshot{State: "dreaming", LastTransitionTime: "x"}))

	m := New()
	m.Bind(path)
	assert.Equal(t, Idle, m.State())
}

func TestBindMissingFile(t *testing.T) {
	m := New()
	m.Bind(filepath.Join(t.TempDir(), "missing", "state.json"))
	assert.Equal(t, Idle, m.State())
}

func TestReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	m := New()
	m.Bind(path)
	require.True(t, m.Transition(Retrieving))

	m.Reset()
	assert.Equal(t, Idle, m.State())

	var snap snapshot
	require.NoError(t, jsonfile.Read(path, &snap))
	assert.Equal(t, Idle, snap.State)
}

func TestPersistUnboundIsNoop(t *testing.T) {
	m := New()
	m.Persist()
	assert.Equal(t, Idle, m.State())
}

func TestPersistWriteFailureIsSwallowed(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	core, logs := observer.New(zapcore.WarnLevel)
	m := New(WithLogger(zap.New(core)))
	m.Bind(filepath.Join(blocker, "state.json"))

	assert.True(t, m.Transition(Retrieving))
	assert.Equal(t, Retrieving, m.State())
	assert.GreaterOrEqual(t, logs.FilterMessage("could not persist agent state").Len(), 1)
}
