package logs

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/charliek/logview/internal/domain"
)

// Coordinator tracks the connected viewer sessions and fans new records
// out to them
type Coordinator struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	log      logrus.FieldLogger
}

// NewCoordinator creates an empty coordinator
func NewCoordinator(log logrus.FieldLogger) *Coordinator {
	return &Coordinator{
		sessions: make(map[string]*Session),
		log:      log,
	}
}

// Register adds a session. The session unregisters itself when closed.
func (c *Coordinator) Register(s *Session) {
	s.onClose = func(closed *Session) {
		c.Unregister(closed.ID())
	}

	c.mu.Lock()
	c.sessions[s.id] = s
	c.mu.Unlock()
}

// Unregister removes a session without closing it
func (c *Coordinator) Unregister(id string) {
	c.mu.Lock()
	delete(c.sessions, id)
	c.mu.Unlock()
}

// Broadcast hands rec to every session. It never blocks: sessions whose
// inbox is full are dropped as slow viewers, and no failure stops
// delivery to the remaining sessions.
func (c *Coordinator) Broadcast(rec domain.Record) {
	var dropped []*Session

	c.mu.RLock()
	for _, s := range c.sessions {
		if !s.deliver(rec) {
			dropped = append(dropped, s)
		}
	}
	c.mu.RUnlock()

	for _, s := range dropped {
		if !s.closed() {
			c.log.WithFields(logrus.Fields{
				"session": s.ID(),
				"seq":     rec.Seq,
			}).Warn("viewer inbox full, disconnecting slow viewer")
		}
		s.closeWith(domain.ErrSlowViewer)
	}
}

// Count returns the number of connected sessions
func (c *Coordinator) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

// Close closes every session
func (c *Coordinator) Close() {
	c.mu.Lock()
	sessions := make([]*Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		sessions = append(sessions, s)
	}
	c.sessions = make(map[string]*Session)
	c.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
