package api

import "coursemind/internal/tools"

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// QueryResponse is the body returned by POST /api/query.
type QueryResponse struct {
	Answer    string         `json:"answer"`
	Sources   []tools.Source `json:"sources"`
	SessionID string         `json:"session_id"`
}

// ErrorResponse carries a human-readable failure detail.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
