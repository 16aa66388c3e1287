// Package handlers implements the amiibot HTTP API: probes on plain Echo
// routes and the /api/v1 operations on Huma.
package handlers

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

// StatusResponse is a generic status response body.
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}
