package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeJSON renders v with the given status. Encoding failures after the
// header is written can only be logged.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("api: encode response failed", slog.String("error", err.Error()))
	}
}

// errorResponse is the uniform error body for every API failure.
type errorResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errorResponse {
	return errorResponse{Error: msg}
}
