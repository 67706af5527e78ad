package logs

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/charliek/logview/internal/domain"
)

// ManagerConfig holds configuration for the log manager
type ManagerConfig struct {
	IncludeKeys bool          // Index object keys as well as values
	Session     SessionConfig // Per-viewer limits
}

// DefaultManagerConfig returns the default configuration
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Session: DefaultSessionConfig(),
	}
}

// Manager owns the record store and the viewer sessions reading it
type Manager struct {
	config      ManagerConfig
	store       *Store
	coordinator *Coordinator
	log         logrus.FieldLogger

	// appendMu keeps broadcasts in seq order should more than one
	// goroutine ever append
	appendMu sync.Mutex
}

// NewManager creates a new log manager
func NewManager(config ManagerConfig, log logrus.FieldLogger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	config.Session = config.Session.withDefaults()

	return &Manager{
		config:      config,
		store:       NewStore(Indexer{IncludeKeys: config.IncludeKeys}),
		coordinator: NewCoordinator(log),
		log:         log,
	}
}

// Append stores a parsed line and broadcasts it to every viewer.
// It never waits on a viewer.
func (m *Manager) Append(data any) domain.Record {
	m.appendMu.Lock()
	defer m.appendMu.Unlock()

	rec := m.store.Append(data)
	m.coordinator.Broadcast(rec)
	return rec
}

// Attach creates and registers a viewer session writing to out.
// The caller must run it with Session.Run.
func (m *Manager) Attach(out Outbox) *Session {
	s := newSession(uuid.NewString(), m.store, out, m.config.Session, m.log)
	m.coordinator.Register(s)
	return s
}

// AttachRequest is like Attach but the session starts with req instead
// of the default tail window
func (m *Manager) AttachRequest(out Outbox, req domain.Request) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s := newSession(uuid.NewString(), m.store, out, m.config.Session, m.log)
	s.initial = req
	m.coordinator.Register(s)
	return s, nil
}

// Query computes a one-off window against the current store contents
func (m *Manager) Query(req domain.Request) (domain.InitResponse, error) {
	if err := req.Validate(); err != nil {
		return domain.InitResponse{}, err
	}
	return BuildInit(m.store.Snapshot(), req, m.config.Session.DefaultMaxMessages), nil
}

// Stats returns statistics about the log manager
func (m *Manager) Stats() domain.LogStats {
	return domain.LogStats{
		TotalRecords: m.store.TotalSize(),
		Viewers:      m.coordinator.Count(),
		IndexKeys:    m.store.IncludeKeys(),
	}
}

// Close closes the manager and all viewer sessions
func (m *Manager) Close() {
	m.coordinator.Close()
}
