package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charliek/logview/internal/constants"
)

// Mode is a viewer's operating mode
type Mode string

const (
	// ModeTail always shows the newest matching records
	ModeTail Mode = "tail"
	// ModeStatic pins the viewer to a fixed offset window of matching records
	ModeStatic Mode = "static"
)

// String returns the string representation of Mode
func (m Mode) String() string {
	return string(m)
}

// Server message types
const (
	TypeInit   = "init"
	TypeUpdate = "update"
)

// Request is a client -> server message asking for a mode, filter and window.
//
// Fields:
//   - Mode: "tail" or "static".
//   - Filter: whitespace separated search terms, all of which must match.
//   - OffsetStart: first filtered position (0-based) of a static window. Required for static.
//   - MaxMessages: window size. Nil or 0 means the server default.
type Request struct {
	Mode        Mode   `json:"mode"`
	Filter      string `json:"filter"`
	OffsetStart *int   `json:"offsetStart,omitempty"`
	MaxMessages *int   `json:"maxMessages,omitempty"`
}

// TailRequest builds a tail-mode request
func TailRequest(filter string, maxMessages int) Request {
	return Request{Mode: ModeTail, Filter: filter, MaxMessages: &maxMessages}
}

// StaticRequest builds a static-mode request
func StaticRequest(filter string, offsetStart, maxMessages int) Request {
	return Request{Mode: ModeStatic, Filter: filter, OffsetStart: &offsetStart, MaxMessages: &maxMessages}
}

// DecodeRequest parses and validates a client frame
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Validate checks that the request is well formed
func (r Request) Validate() error {
	switch r.Mode {
	case ModeTail:
	case ModeStatic:
		if r.OffsetStart == nil {
			return fmt.Errorf("%w: offsetStart is required in static mode", ErrInvalidRequest)
		}
		if *r.OffsetStart < 0 {
			return fmt.Errorf("%w: offsetStart must be non-negative, got %d", ErrInvalidRequest, *r.OffsetStart)
		}
	default:
		return fmt.Errorf("%w: %w %q", ErrInvalidRequest, ErrUnknownMode, r.Mode)
	}

	if r.MaxMessages != nil && *r.MaxMessages < 0 {
		return fmt.Errorf("%w: maxMessages must be non-negative, got %d", ErrInvalidRequest, *r.MaxMessages)
	}
	if len(r.Filter) > constants.MaxFilterLength {
		return fmt.Errorf("%w: %w: filter exceeds maximum length of %d characters",
			ErrInvalidRequest, ErrInvalidFilter, constants.MaxFilterLength)
	}
	return nil
}

// Offset returns the static window offset, 0 when unset
func (r Request) Offset() int {
	if r.OffsetStart == nil {
		return 0
	}
	return *r.OffsetStart
}

// WindowSize resolves MaxMessages against a default and the global cap.
// An explicit 0 asks for the default, not an empty window.
func (r Request) WindowSize(defaultMax int) int {
	n := defaultMax
	if r.MaxMessages != nil && *r.MaxMessages > 0 {
		n = *r.MaxMessages
	}
	if n > constants.MaxWindow {
		n = constants.MaxWindow
	}
	return n
}

// IsFilterEmpty reports whether the filter matches everything
func (r Request) IsFilterEmpty() bool {
	return strings.TrimSpace(r.Filter) == ""
}

// Window is the slice of filtered records a viewer asked for
type Window struct {
	Size        int     `json:"size"`
	MaxMessages int     `json:"maxMessages"`
	OffsetStart *int    `json:"offsetStart,omitempty"`
	Messages    []Entry `json:"messages"`
}

// InitResponse is sent on connect and on every mode/filter/window change
type InitResponse struct {
	Type      string `json:"type"`
	Mode      Mode   `json:"mode"`
	TotalSize int    `json:"totalSize"`
	Window    Window `json:"window"`
}

// UpdateResponse is sent for each new record matching a viewer's filter.
// Latest is only set for static viewers and carries the trailing matches
// that arrived after the pinned window.
type UpdateResponse struct {
	Type    string  `json:"type"`
	Mode    Mode    `json:"mode"`
	Size    int     `json:"size"`
	Message Entry   `json:"message"`
	Latest  []Entry `json:"latest,omitempty"`
}

// ServerMessage is a decoded server -> client message. Exactly one of
// Init and Update is set, according to Type.
type ServerMessage struct {
	Type   string
	Init   *InitResponse
	Update *UpdateResponse
}

// DecodeServerMessage parses a server frame
func DecodeServerMessage(data []byte) (ServerMessage, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return ServerMessage{}, fmt.Errorf("decoding server message: %w", err)
	}

	msg := ServerMessage{Type: head.Type}
	switch head.Type {
	case TypeInit:
		msg.Init = &InitResponse{}
		if err := json.Unmarshal(data, msg.Init); err != nil {
			return ServerMessage{}, fmt.Errorf("decoding init message: %w", err)
		}
	case TypeUpdate:
		msg.Update = &UpdateResponse{}
		if err := json.Unmarshal(data, msg.Update); err != nil {
			return ServerMessage{}, fmt.Errorf("decoding update message: %w", err)
		}
	default:
		return ServerMessage{}, fmt.Errorf("unknown server message type %q", head.Type)
	}
	return msg, nil
}
