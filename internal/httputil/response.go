// Package httputil provides JSON response helpers shared by HTTP handlers.
package httputil

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": message} with the given status.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// BadRequest writes a 400 error.
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// InternalError writes a 500 error. The message must not carry internal detail.
func InternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

// TooManyRequests writes a 429 error.
func TooManyRequests(w http.ResponseWriter) {
	WriteError(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
}
