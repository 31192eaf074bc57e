package web

import (
	"encoding/json"
	"net/http"

	"github.com/shipfast/livesync/todo"
)

type listRequest struct {
	Filter string `json:"filter,omitempty"`
}

type listResponse struct {
	Success bool           `json:"success"`
	Todos   []todo.Todo    `json:"data,omitempty"`
	Error   todo.ErrorKind `json:"error,omitempty"`
	Message string         `json:"message,omitempty"`
}

type createRequest struct {
	Title   string             `json:"title"`
	Options todo.CreateOptions `json:"options"`
}

type updateRequest struct {
	ID      int64              `json:"id"`
	Options todo.UpdateOptions `json:"options"`
}

type toggleRequest struct {
	ID int64 `json:"id"`
}

type deleteRequest struct {
	ID int64 `json:"id"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeResult maps the result envelope onto an HTTP status. The envelope
// itself is the response body either way, so clients can ignore the
// status and read success/error uniformly.
func writeResult(w http.ResponseWriter, result todo.Result) {
	writeJSON(w, resultStatus(result), result)
}

func resultStatus(result todo.Result) int {
	if result.OK {
		return http.StatusOK
	}
	switch result.Err {
	case todo.ErrorValidation:
		return http.StatusBadRequest
	case todo.ErrorUnauthorized:
		return http.StatusUnauthorized
	case todo.ErrorNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dest); err != nil {
		writeResult(w, todo.Failure(todo.ErrorValidation, "invalid request body"))
		return false
	}
	return true
}

func writeMethodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}
