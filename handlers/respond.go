package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"chatwire/errors"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("response encoding failed", "error", err)
	}
}

func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, errors.HTTPStatus(err), struct {
		Error string `json:"error"`
	}{err.Error()})
}
