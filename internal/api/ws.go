package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/charliek/logview/internal/constants"
	"github.com/charliek/logview/internal/domain"
)

// checkOrigin accepts non-browser clients, same-host pages and
// localhost pages
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || isLocalhostOrigin(origin) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// wsOutbox writes protocol messages as websocket text frames, one JSON
// document per frame
type wsOutbox struct {
	conn    *websocket.Conn
	timeout time.Duration
}

func (o *wsOutbox) Send(msg any) error {
	if err := o.conn.SetWriteDeadline(time.Now().Add(o.timeout)); err != nil {
		return err
	}
	return o.conn.WriteJSON(msg)
}

// ServeWS handles GET /ws. Each connection is one viewer session: the
// read loop feeds client requests into the session, and the session
// goroutine is the only writer of data frames.
func (h *Handlers) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.log.WithError(err).Debug("websocket upgrade failed")
		return
	}
	defer conn.Close()

	session := h.logManager.Attach(&wsOutbox{conn: conn, timeout: h.config.WriteTimeout})
	log := h.log.WithFields(logrus.Fields{
		"session": session.ID(),
		"remote":  r.RemoteAddr,
	})
	log.Debug("viewer connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		defer cancel()
		h.readRequests(ctx, conn, session, log)
	}()
	if h.config.PingInterval > 0 {
		go h.ping(ctx, conn)
	}

	runErr := session.Run(ctx)
	if errors.Is(runErr, domain.ErrSlowViewer) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, runErr.Error()),
			time.Now().Add(h.config.WriteTimeout))
	} else if runErr == nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(h.config.WriteTimeout))
	}

	// Unblock the read loop
	_ = conn.Close()
	<-readDone

	log.WithError(runErr).Debug("viewer disconnected")
}

type submitter interface {
	Submit(ctx context.Context, req domain.Request) error
}

// readRequests decodes client frames into session requests until the
// connection fails. Malformed frames are ignored.
func (h *Handlers) readRequests(ctx context.Context, conn *websocket.Conn, session submitter, log logrus.FieldLogger) {
	conn.SetReadLimit(constants.MaxRequestSize)

	pongWait := 2 * h.config.PingInterval
	extend := func() error {
		if pongWait <= 0 {
			// Clear any deadline left over from the HTTP server
			return conn.SetReadDeadline(time.Time{})
		}
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	}
	_ = extend()
	conn.SetPongHandler(func(string) error { return extend() })

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Debug("websocket read failed")
			}
			return
		}
		_ = extend()

		if msgType != websocket.TextMessage {
			log.Debug("ignoring non-text frame")
			continue
		}

		req, err := domain.DecodeRequest(data)
		if err != nil {
			log.WithError(err).Debug("ignoring malformed request")
			continue
		}
		if err := session.Submit(ctx, req); err != nil {
			return
		}
	}
}

// ping keeps idle connections alive. WriteControl may be called
// concurrently with the session's writes.
func (h *Handlers) ping(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(h.config.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
