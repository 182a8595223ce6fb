package utils

import (
	"encoding/json"
	"net/http"
)

type contextKey string

// RequestIDKey is the context key under which the request id middleware stores
// the per-request identifier.
const RequestIDKey = contextKey("requestID")

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
