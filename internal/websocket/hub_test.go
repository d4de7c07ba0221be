package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"policylens-be/internal/pkg/logger"
	"policylens-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc, <-chan struct{}) {
	t.Helper()
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		hub.Run(ctx)
	}()
	return hub, cancel, stopped
}

func newTestClient(course string) *Client {
	return &Client{Course: course, Send: make(chan []byte, 4)}
}

func waitSessions(t *testing.T, hub *Hub, want map[string]int) {
	t.Helper()
	require.Eventually(t, func() bool {
		got := hub.Sessions()
		if len(got) != len(want) {
			return false
		}
		for k, v := range want {
			if got[k] != v {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)
}

func clusterPayload(t *testing.T, instance string, dc events.DocumentChanged) []byte {
	t.Helper()
	data, err := json.Marshal(clusterMessage{Instance: instance, Change: dc})
	require.NoError(t, err)
	return data
}

func TestHubSessions(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, cancel, stopped := startHub(t)

	a, b, c := newTestClient("cpsc110"), newTestClient("cpsc110"), newTestClient("cpsc330")
	for _, cl := range []*Client{a, b, c} {
		require.True(t, hub.add(cl))
	}
	waitSessions(t, hub, map[string]int{"cpsc110": 2, "cpsc330": 1})

	hub.remove(c)
	waitSessions(t, hub, map[string]int{"cpsc110": 2})

	cancel()
	<-stopped
	assert.Empty(t, hub.Sessions())
	assert.False(t, hub.add(newTestClient("cpsc110")), "a stopped hub refuses sessions")
	hub.remove(a)
}

func TestHubNotifiesCourseSessions(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, cancel, stopped := startHub(t)
	defer func() {
		cancel()
		<-stopped
	}()

	mine, other := newTestClient("cpsc110"), newTestClient("cpsc330")
	require.True(t, hub.add(mine))
	require.True(t, hub.add(other))
	waitSessions(t, hub, map[string]int{"cpsc110": 1, "cpsc330": 1})

	hub.AnnounceReload(context.Background(), events.DocumentChanged{Course: "cpsc110", Origin: events.OriginAdmin})

	select {
	case msg := <-mine.Send:
		assert.JSONEq(t, `{"type":"document_changed","course":"cpsc110"}`, string(msg))
	default:
		t.Fatal("course session was not notified")
	}
	assert.Empty(t, other.Send)
}

func TestHubClusterMessages(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, cancel, stopped := startHub(t)
	defer func() {
		cancel()
		<-stopped
	}()

	var reloaded []events.DocumentChanged
	hub.OnReload(func(_ context.Context, dc events.DocumentChanged) {
		reloaded = append(reloaded, dc)
	})

	session := newTestClient("cpsc110")
	require.True(t, hub.add(session))
	waitSessions(t, hub, map[string]int{"cpsc110": 1})

	change := events.DocumentChanged{Course: "cpsc110", Path: "/data/cpsc110_facts.json", Origin: events.OriginWatcher}

	hub.handleClusterMessage(context.Background(), clusterPayload(t, hub.instanceID, change))
	assert.Empty(t, reloaded, "own announcements are ignored")
	assert.Empty(t, session.Send)

	hub.handleClusterMessage(context.Background(), clusterPayload(t, "peer-1", change))
	require.Len(t, reloaded, 1)
	assert.Equal(t, events.OriginCluster, reloaded[0].Origin)
	assert.Equal(t, "cpsc110", reloaded[0].Course)
	assert.Len(t, session.Send, 1)

	hub.handleClusterMessage(context.Background(), []byte("garbage"))
	assert.Len(t, reloaded, 1)
}
