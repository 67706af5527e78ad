package api

// StatusResponse represents the response for GET /status
type StatusResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	TotalSize     int    `json:"total_size"`
	Viewers       int    `json:"viewers"`
	IndexKeys     bool   `json:"index_keys"`
	Input         string `json:"input,omitempty"`
	APIVersion    string `json:"api_version"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
