package logs

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/charliek/logview/internal/domain"
)

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func msg(text string) map[string]any {
	return map[string]any{"message": text}
}

// recordingOutbox records every message a session sends
type recordingOutbox struct {
	mu   sync.Mutex
	msgs []any
	ch   chan any
	err  error
}

func newRecordingOutbox() *recordingOutbox {
	return &recordingOutbox{ch: make(chan any, 1000)}
}

func (o *recordingOutbox) Send(m any) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.msgs = append(o.msgs, m)
	o.ch <- m
	return nil
}

func (o *recordingOutbox) failWith(err error) {
	o.mu.Lock()
	o.err = err
	o.mu.Unlock()
}

func (o *recordingOutbox) next(t *testing.T) any {
	t.Helper()
	select {
	case m := <-o.ch:
		return m
	case <-time.After(time.Second):
		t.Fatal("expected a message")
		return nil
	}
}

func (o *recordingOutbox) nextInit(t *testing.T) domain.InitResponse {
	t.Helper()
	m := o.next(t)
	init, ok := m.(domain.InitResponse)
	require.True(t, ok, "expected init, got %T", m)
	return init
}

func (o *recordingOutbox) nextUpdate(t *testing.T) domain.UpdateResponse {
	t.Helper()
	m := o.next(t)
	update, ok := m.(domain.UpdateResponse)
	require.True(t, ok, "expected update, got %T", m)
	return update
}

func (o *recordingOutbox) expectNone(t *testing.T) {
	t.Helper()
	select {
	case m := <-o.ch:
		t.Fatalf("unexpected message %#v", m)
	case <-time.After(50 * time.Millisecond):
	}
}

func (o *recordingOutbox) last() any {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.msgs) == 0 {
		return nil
	}
	return o.msgs[len(o.msgs)-1]
}

// blockingOutbox blocks every send until released
type blockingOutbox struct {
	release chan struct{}
}

func (o *blockingOutbox) Send(m any) error {
	<-o.release
	return errors.New("released")
}

func seqs(entries []domain.Entry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Seq
	}
	return out
}

func intPtr(n int) *int { return &n }
