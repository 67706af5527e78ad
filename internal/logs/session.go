package logs

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/charliek/logview/internal/constants"
	"github.com/charliek/logview/internal/domain"
)

// Outbox delivers protocol messages to one viewer's transport.
// Send is only ever called from the session's Run goroutine.
type Outbox interface {
	Send(msg any) error
}

// SessionConfig holds per-viewer limits
type SessionConfig struct {
	DefaultMaxMessages int // Window size when a request does not carry one
	LatestSize         int // Trailing matches kept for static viewers
	SendBuffer         int // Pending records before the viewer is dropped
	RequestBuffer      int // Pending protocol requests
}

// DefaultSessionConfig returns the default per-viewer limits
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		DefaultMaxMessages: constants.DefaultMaxMessages,
		LatestSize:         constants.DefaultLatestSize,
		SendBuffer:         constants.DefaultSendBuffer,
		RequestBuffer:      constants.DefaultRequestBuffer,
	}
}

func (c SessionConfig) withDefaults() SessionConfig {
	d := DefaultSessionConfig()
	if c.DefaultMaxMessages <= 0 {
		c.DefaultMaxMessages = d.DefaultMaxMessages
	}
	if c.LatestSize < 0 {
		c.LatestSize = 0
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = d.SendBuffer
	}
	if c.RequestBuffer <= 0 {
		c.RequestBuffer = d.RequestBuffer
	}
	return c
}

// Session is the state machine of one connected viewer. Viewer requests
// and new records are both funneled into the Run goroutine, which is the
// only place session state is read or written.
type Session struct {
	id    string
	store *Store
	out   Outbox
	cfg   SessionConfig
	log   logrus.FieldLogger

	records  chan domain.Record
	requests chan domain.Request

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
	onClose   func(*Session)

	// initial is applied when Run starts
	initial domain.Request

	// Owned by Run
	mode               domain.Mode
	filter             string
	matcher            Matcher
	offsetStart        int
	maxMessages        int
	knownFilteredCount int
	lastSeq            int
	latest             []domain.Entry
}

func newSession(id string, store *Store, out Outbox, cfg SessionConfig, log logrus.FieldLogger) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		id:          id,
		store:       store,
		out:         out,
		cfg:         cfg,
		log:         log.WithField("session", id),
		records:     make(chan domain.Record, cfg.SendBuffer),
		requests:    make(chan domain.Request, cfg.RequestBuffer),
		done:        make(chan struct{}),
		initial:     domain.Request{Mode: domain.ModeTail},
		mode:        domain.ModeTail,
		maxMessages: cfg.DefaultMaxMessages,
	}
}

// ID returns the session ID
func (s *Session) ID() string {
	return s.id
}

// Done is closed once the session has been closed
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns why the session was closed, nil while it is open or
// when it was closed normally
func (s *Session) Err() error {
	select {
	case <-s.done:
		return s.closeErr
	default:
		return nil
	}
}

// Run sends the initial window (tail with the default size unless the
// session was attached with a request) and then processes requests and
// records until ctx is canceled, the session is closed or a send fails.
// The session is closed when Run returns.
func (s *Session) Run(ctx context.Context) error {
	err := s.run(ctx)
	s.closeWith(err)
	return err
}

func (s *Session) run(ctx context.Context) error {
	if err := s.apply(s.initial); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return s.closeErr
		case req := <-s.requests:
			if err := s.handleRequest(req); err != nil {
				return err
			}
		case rec := <-s.records:
			if err := s.handleRecord(rec); err != nil {
				return err
			}
		}
	}
}

// Submit queues a viewer request. It blocks only on this viewer's own
// request queue.
func (s *Session) Submit(ctx context.Context, req domain.Request) error {
	select {
	case s.requests <- req:
		return nil
	case <-s.done:
		return domain.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the session. It is safe to call more than once.
func (s *Session) Close() {
	s.closeWith(nil)
}

func (s *Session) closeWith(err error) {
	s.closeOnce.Do(func() {
		s.closeErr = err
		close(s.done)
		if s.onClose != nil {
			s.onClose(s)
		}
	})
}

func (s *Session) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// deliver hands a new record to the session without blocking.
// Returns false if the session is closed or its inbox is full.
func (s *Session) deliver(rec domain.Record) bool {
	if s.closed() {
		return false
	}
	select {
	case s.records <- rec:
		return true
	default:
		return false
	}
}

// handleRequest applies a viewer request. Malformed requests are
// ignored and leave the session state untouched.
func (s *Session) handleRequest(req domain.Request) error {
	if err := req.Validate(); err != nil {
		s.log.WithError(err).Debug("ignoring malformed request")
		return nil
	}
	return s.apply(req)
}

// apply recomputes the session window against the full store and sends
// a fresh init
func (s *Session) apply(req domain.Request) error {
	snapshot := s.store.Snapshot()
	init := BuildInit(snapshot, req, s.cfg.DefaultMaxMessages)

	s.mode = init.Mode
	s.filter = req.Filter
	s.matcher = Compile(req.Filter)
	s.offsetStart = req.Offset()
	s.maxMessages = init.Window.MaxMessages
	s.knownFilteredCount = init.Window.Size
	s.lastSeq = len(snapshot)
	s.latest = nil

	return s.send(init)
}

// handleRecord re-evaluates the session filter against one new record
func (s *Session) handleRecord(rec domain.Record) error {
	// Already covered by the snapshot of the last init
	if rec.Seq <= s.lastSeq {
		return nil
	}
	s.lastSeq = rec.Seq

	if !s.matcher.Matches(rec) {
		return nil
	}
	s.knownFilteredCount++

	update := domain.UpdateResponse{
		Type:    domain.TypeUpdate,
		Mode:    s.mode,
		Size:    s.knownFilteredCount,
		Message: domain.NewEntry(rec, s.knownFilteredCount),
	}

	if s.mode == domain.ModeStatic && s.cfg.LatestSize > 0 {
		s.latest = append(s.latest, update.Message)
		if len(s.latest) > s.cfg.LatestSize {
			s.latest = append([]domain.Entry(nil), s.latest[len(s.latest)-s.cfg.LatestSize:]...)
		}
		update.Latest = append([]domain.Entry(nil), s.latest...)
	}

	return s.send(update)
}

func (s *Session) send(msg any) error {
	if err := s.out.Send(msg); err != nil {
		if !errors.Is(err, context.Canceled) {
			s.log.WithError(err).Debug("send failed, closing session")
		}
		return err
	}
	return nil
}
