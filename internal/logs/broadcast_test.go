package logs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charliek/logview/internal/domain"
)

func TestCoordinator_RegisterUnregister(t *testing.T) {
	c := NewCoordinator(testLogger())
	store := NewStore(Indexer{})

	s1 := newSession("a", store, newRecordingOutbox(), DefaultSessionConfig(), testLogger())
	s2 := newSession("b", store, newRecordingOutbox(), DefaultSessionConfig(), testLogger())
	c.Register(s1)
	c.Register(s2)
	assert.Equal(t, 2, c.Count())

	s1.Close()
	assert.Equal(t, 1, c.Count())

	c.Unregister("b")
	assert.Equal(t, 0, c.Count())
}

func TestCoordinator_BroadcastDelivers(t *testing.T) {
	c := NewCoordinator(testLogger())
	store := NewStore(Indexer{})
	s := newSession("a", store, newRecordingOutbox(), DefaultSessionConfig(), testLogger())
	c.Register(s)

	rec := store.Append(msg("hello"))
	c.Broadcast(rec)

	select {
	case got := <-s.records:
		assert.Equal(t, rec.Seq, got.Seq)
	default:
		t.Fatal("record was not delivered")
	}
}

func TestCoordinator_DropsSlowViewer(t *testing.T) {
	c := NewCoordinator(testLogger())
	store := NewStore(Indexer{})
	cfg := SessionConfig{SendBuffer: 2}

	slow := newSession("slow", store, newRecordingOutbox(), cfg, testLogger())
	fast := newSession("fast", store, newRecordingOutbox(), DefaultSessionConfig(), testLogger())
	c.Register(slow)
	c.Register(fast)

	// Neither session is running, so the slow inbox fills up
	for i := 0; i < 3; i++ {
		c.Broadcast(store.Append(msg("line")))
	}

	select {
	case <-slow.Done():
	default:
		t.Fatal("slow viewer should be closed")
	}
	assert.ErrorIs(t, slow.Err(), domain.ErrSlowViewer)
	assert.NoError(t, fast.Err())
	assert.Equal(t, 1, c.Count())
	assert.Len(t, fast.records, 3)
}

func TestCoordinator_BlockedViewerDoesNotStallOthers(t *testing.T) {
	c := NewCoordinator(testLogger())
	store := NewStore(Indexer{})

	blocked := &blockingOutbox{release: make(chan struct{})}
	defer close(blocked.release)
	stuck := newSession("stuck", store, blocked, SessionConfig{SendBuffer: 1}, testLogger())
	healthyOut := newRecordingOutbox()
	healthy := newSession("healthy", store, healthyOut, DefaultSessionConfig(), testLogger())
	c.Register(stuck)
	c.Register(healthy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stuck.Run(ctx) }()
	go func() { _ = healthy.Run(ctx) }()
	healthyOut.nextInit(t)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			c.Broadcast(store.Append(msg("line")))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a stuck viewer")
	}

	for i := 0; i < 10; i++ {
		healthyOut.nextUpdate(t)
	}
	assert.ErrorIs(t, stuck.Err(), domain.ErrSlowViewer)
	require.Equal(t, 1, c.Count())
}

func TestCoordinator_Close(t *testing.T) {
	c := NewCoordinator(testLogger())
	store := NewStore(Indexer{})
	s1 := newSession("a", store, newRecordingOutbox(), DefaultSessionConfig(), testLogger())
	s2 := newSession("b", store, newRecordingOutbox(), DefaultSessionConfig(), testLogger())
	c.Register(s1)
	c.Register(s2)

	c.Close()

	assert.Equal(t, 0, c.Count())
	for _, s := range []*Session{s1, s2} {
		select {
		case <-s.Done():
		default:
			t.Fatalf("session %s not closed", s.ID())
		}
	}
}
