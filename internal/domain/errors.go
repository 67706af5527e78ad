package domain

import "errors"

// Domain errors
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnknownMode    = errors.New("unknown mode")
	ErrInvalidFilter  = errors.New("invalid filter")
	ErrSessionClosed  = errors.New("session closed")
	ErrSlowViewer     = errors.New("viewer too slow")
	ErrConfigNotFound = errors.New("config file not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrUnknownParser  = errors.New("unknown parser")
)

// Error codes for API responses
const (
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeUnknownMode    = "UNKNOWN_MODE"
	ErrCodeInvalidFilter  = "INVALID_FILTER"

	// API-only codes with no sentinel error
	ErrCodeStreamingNotSupported = "STREAMING_NOT_SUPPORTED"
	ErrCodeUpgradeFailed         = "UPGRADE_FAILED"
)

// ErrorCode returns the API error code for a domain error
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnknownMode):
		return ErrCodeUnknownMode
	case errors.Is(err, ErrInvalidFilter):
		return ErrCodeInvalidFilter
	case errors.Is(err, ErrInvalidRequest):
		return ErrCodeInvalidRequest
	default:
		return "INTERNAL_ERROR"
	}
}
