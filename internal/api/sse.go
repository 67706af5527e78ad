package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/charliek/logview/internal/domain"
)

// sseOutbox writes protocol messages as server-sent events named after
// the message type
type sseOutbox struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (o *sseOutbox) Send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	event := domain.TypeUpdate
	if _, ok := msg.(domain.InitResponse); ok {
		event = domain.TypeInit
	}

	if _, err := fmt.Fprintf(o.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	o.flusher.Flush()
	return nil
}

// StreamLogs handles GET /api/v1/logs/stream (SSE). The stream is a
// read-only tail viewer: an init event followed by update events.
func (h *Handlers) StreamLogs(w http.ResponseWriter, r *http.Request) {
	// Check if flusher is available
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "streaming not supported",
			Code:  domain.ErrCodeStreamingNotSupported,
		})
		return
	}

	req := domain.Request{Mode: domain.ModeTail, Filter: r.URL.Query().Get("filter")}
	maxMessages, err := intParam(r.URL.Query().Get("max"), "max")
	if err != nil {
		writeError(w, err)
		return
	}
	req.MaxMessages = maxMessages

	session, err := h.logManager.AttachRequest(&sseOutbox{w: w, flusher: flusher}, req)
	if err != nil {
		writeError(w, err)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	// Send initial comment to establish connection
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	// Write errors and client disconnects both end Run
	err = session.Run(r.Context())
	h.log.WithFields(logrus.Fields{
		"session": session.ID(),
		"remote":  r.RemoteAddr,
	}).WithError(err).Debug("stream closed")
}
