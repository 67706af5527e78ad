package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/charliek/logview/internal/constants"
	"github.com/charliek/logview/internal/domain"
	"github.com/charliek/logview/internal/logs"
)

// HandlersConfig holds transport settings for viewer connections
type HandlersConfig struct {
	Input        string        // Description of the log input, reported by /status
	PingInterval time.Duration // Websocket keepalive interval, 0 disables pings
	WriteTimeout time.Duration // Deadline for a single websocket write
}

// DefaultHandlersConfig returns the default transport settings
func DefaultHandlersConfig() HandlersConfig {
	return HandlersConfig{
		PingInterval: constants.DefaultPingInterval,
		WriteTimeout: constants.DefaultWriteTimeout,
	}
}

// Handlers contains all HTTP handlers
type Handlers struct {
	logManager *logs.Manager
	config     HandlersConfig
	log        logrus.FieldLogger
	startedAt  time.Time
	upgrader   websocket.Upgrader
}

// NewHandlers creates new HTTP handlers
func NewHandlers(logMgr *logs.Manager, config HandlersConfig, log logrus.FieldLogger) *Handlers {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = constants.DefaultWriteTimeout
	}
	return &Handlers{
		logManager: logMgr,
		config:     config,
		log:        log,
		startedAt:  time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// CloseViewers disconnects every connected viewer
func (h *Handlers) CloseViewers() {
	h.logManager.Close()
}

// GetStatus handles GET /api/v1/status
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	stats := h.logManager.Stats()

	resp := StatusResponse{
		Status:        "running",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		TotalSize:     stats.TotalRecords,
		Viewers:       stats.Viewers,
		IndexKeys:     stats.IndexKeys,
		Input:         h.config.Input,
		APIVersion:    "v1",
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetLogs handles GET /api/v1/logs. It returns the same window an init
// message would carry for the request described by the query string.
func (h *Handlers) GetLogs(w http.ResponseWriter, r *http.Request) {
	req, err := parseLogParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	init, err := h.logManager.Query(req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, init)
}

// parseLogParams builds a viewer request from the query parameters
// mode, filter, offset and max
func parseLogParams(r *http.Request) (domain.Request, error) {
	q := r.URL.Query()

	req := domain.Request{
		Mode:   domain.ModeTail,
		Filter: q.Get("filter"),
	}
	if mode := q.Get("mode"); mode != "" {
		req.Mode = domain.Mode(mode)
	}

	var err error
	if req.OffsetStart, err = intParam(q.Get("offset"), "offset"); err != nil {
		return domain.Request{}, err
	}
	if req.MaxMessages, err = intParam(q.Get("max"), "max"); err != nil {
		return domain.Request{}, err
	}

	if err := req.Validate(); err != nil {
		return domain.Request{}, err
	}
	return req, nil
}

func intParam(value, name string) (*int, error) {
	if value == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidRequest, name)
	}
	return &n, nil
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("encoding JSON response")
	}
}

// writeError writes an error response
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := domain.ErrorCode(err)
	message := "an internal error occurred"

	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrUnknownMode),
		errors.Is(err, domain.ErrInvalidFilter):
		status = http.StatusBadRequest
		message = err.Error()
	default:
		// For unknown errors, log the actual error but return a sanitized message
		logrus.WithError(err).Error("internal error")
	}

	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
