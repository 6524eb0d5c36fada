package handlers

import (
	"errors"
	"net/http"

	"conversadb/pkg/chat"
	"conversadb/pkg/live"
	"conversadb/pkg/utils"
)

var (
	svc *chat.Service
	hub *live.Hub
)

// Init wires the handler package to the chat service and, optionally, the
// websocket hub. Must be called before any route is served.
func Init(s *chat.Service, h *live.Hub) {
	svc = s
	hub = h
}

// writeErr maps domain errors onto HTTP status codes with the standard
// {"error": "..."} body.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrValidation):
		utils.JSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrNotFound):
		utils.JSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chat.ErrUnauthorized):
		utils.JSONError(w, http.StatusForbidden, err.Error())
	default:
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
	}
}

// requester returns the acting user's ID from the X-User-ID header.
func requester(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}
