package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/udaplay/internal/output"
)

func testEvent() output.Webhook {
	f := output.New(output.WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }))
	return f.Webhook(output.Answer{
		Question:     "When was Pokémon Gold released?",
		Answer:       "It was released in 1999.",
		Confidence:   0.9,
		Sources:      []string{"Local Game Database"},
		SearchMethod: "vector_db",
	}, "")
}

func TestDispatchDeliversToAllSubscribers(t *testing.T) {
	var hits atomic.Int32
	var got output.Webhook
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if hits.Add(1) == 1 {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDispatcher([]string{srv.URL, "", srv.URL + "/second"})
	require.True(t, d.Enabled())
	require.NoError(t, d.Dispatch(context.Background(), testEvent()))

	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, output.EventGameQuery, got.EventType)
	assert.Equal(t, "udaplay_20240501_120000", got.EventID)
	require.NotNil(t, got.Payload.QueryResult)
}

func TestDispatchContinuesAfterFailure(t *testing.T) {
	var okHits atomic.Int32
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		okHits.Add(1)
	}))
	defer good.Close()

	d := NewDispatcher([]string{bad.URL, good.URL})
	err := d.Dispatch(context.Background(), testEvent())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, int32(1), okHits.Load())
}

func TestDispatchWithoutSubscribers(t *testing.T) {
	d := NewDispatcher(nil)
	assert.False(t, d.Enabled())
	assert.NoError(t, d.Dispatch(context.Background(), testEvent()))
}

func TestSendWebhookTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	d := NewDispatcher([]string{srv.URL}, WithTimeout(20*time.Millisecond))
	assert.Error(t, d.SendWebhook(context.Background(), srv.URL, map[string]string{"ping": "pong"}))
}
